package planner

import "taskbridge/internal/service"

// PlannableQuery selects tasks ready to be worked on.
type PlannableQuery struct {
	ListID         string
	MaxItems       int
	ExcludeBlocked bool
}

// ScopeQuery limits an operation to one list, or all lists when ListID is empty.
type ScopeQuery struct {
	ListID string
}

// DueSoonQuery selects tasks due within DaysAhead days of now.
type DueSoonQuery struct {
	ListID    string
	DaysAhead int
}

// TagQuery selects tasks carrying Tag.
type TagQuery struct {
	ListID string
	Tag    string
}

// QuickAddInput is the minimal input for creating a task.
type QuickAddInput struct {
	ListID            string
	Title             string
	Description       string
	Priority          service.Priority
	DueAt             string
	Tags              []string
	EstimatedDuration string
}

// TaskSet is the common shape of every task-returning planning result.
type TaskSet struct {
	Tasks        []service.Task `json:"tasks"`
	Count        int            `json:"count"`
	ListsScanned int            `json:"lists_scanned"`
	GeneratedAt  string         `json:"generated_at"`
}

// PlannableResult is returned by PlannableTasks.
type PlannableResult struct {
	TaskSet
	TotalCandidates int  `json:"total_candidates"`
	Truncated       bool `json:"truncated"`
}

// DueSoonResult is returned by DueSoon.
type DueSoonResult struct {
	TaskSet
	DaysAhead int    `json:"days_ahead"`
	WindowEnd string `json:"window_end"`
}

// TagResult is returned by TasksByTag.
type TagResult struct {
	TaskSet
	Tag string `json:"tag"`
}

// Bucket accumulates tasks and estimated hours for one key.
type Bucket struct {
	Count          int     `json:"count"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// WorkloadSummary is returned by WorkloadSummary.
type WorkloadSummary struct {
	TotalTasks       int               `json:"total_tasks"`
	TotalHours       float64           `json:"total_hours"`
	ByPriority       map[string]Bucket `json:"by_priority"`
	ByTag            map[string]Bucket `json:"by_tag"`
	ByStatus         map[string]int    `json:"by_status"`
	OverdueCount     int               `json:"overdue_count"`
	DueSoonCount     int               `json:"due_soon_count"`
	DueSoonDays      int               `json:"due_soon_days"`
	UnestimatedCount int               `json:"unestimated_count"`
	ListsScanned     int               `json:"lists_scanned"`
	GeneratedAt      string            `json:"generated_at"`
}
