// Package service defines the backend-agnostic interface for task operations.
package service

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in declaration order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusBlocked, StatusDone, StatusArchived, StatusCancelled}

// Priority is the importance level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// OrDefault returns p, or PriorityMedium when p is empty.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// Rank returns the planning order of a priority (lower = more important).
// Unknown and empty priorities rank as medium.
func (p Priority) Rank() int {
	switch p.OrDefault() {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// RecurrencePattern is how often a recurring template generates tasks.
type RecurrencePattern string

const (
	RecurrenceDaily     RecurrencePattern = "daily"
	RecurrenceWeekly    RecurrencePattern = "weekly"
	RecurrenceBiweekly  RecurrencePattern = "biweekly"
	RecurrenceMonthly   RecurrencePattern = "monthly"
	RecurrenceYearly    RecurrencePattern = "yearly"
	RecurrenceQuarterly RecurrencePattern = "quarterly"
	RecurrenceWeekdays  RecurrencePattern = "weekdays"
)

// RecurrencePatterns lists every valid recurrence pattern.
var RecurrencePatterns = []RecurrencePattern{
	RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly,
	RecurrenceYearly, RecurrenceQuarterly, RecurrenceWeekdays,
}

// Task represents a single task item.
type Task struct {
	ID                  string   `json:"id"`
	ListID              string   `json:"list_id"`
	Title               string   `json:"title"`
	Description         string   `json:"description,omitempty"`
	Status              Status   `json:"status"`
	Priority            Priority `json:"priority,omitempty"`
	DueAt               string   `json:"due_at,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	EstimatedDuration   string   `json:"estimated_duration,omitempty"`
	ActualDuration      string   `json:"actual_duration,omitempty"`
	RecurringTemplateID string   `json:"recurring_template_id,omitempty"`
	ETag                string   `json:"etag,omitempty"`
	CreatedAt           string   `json:"created_at,omitempty"`
	UpdatedAt           string   `json:"updated_at,omitempty"`
}

// HasTag reports whether the task carries tag.
func (t Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// TaskList represents a task list.
type TaskList struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	ItemCount      int    `json:"item_count"`
	CompletedCount int    `json:"completed_count"`
	ETag           string `json:"etag,omitempty"`
}

// RecurringTemplate generates tasks on a schedule.
type RecurringTemplate struct {
	ID                   string            `json:"id"`
	ListID               string            `json:"list_id"`
	Title                string            `json:"title"`
	Description          string            `json:"description,omitempty"`
	Priority             Priority          `json:"priority,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	EstimatedDuration    string            `json:"estimated_duration,omitempty"`
	RecurrencePattern    RecurrencePattern `json:"recurrence_pattern"`
	GenerationWindowDays int               `json:"generation_window_days"`
	IsActive             bool              `json:"is_active"`
	ETag                 string            `json:"etag,omitempty"`
	CreatedAt            string            `json:"created_at,omitempty"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
	TotalCount    int    `json:"total_count,omitempty"`
}

// PageQuery selects a page of a listing.
type PageQuery struct {
	PageSize  int
	PageToken string
}

// ItemQuery filters a listing of items within one list.
// Slice filters are sent as repeated query keys.
type ItemQuery struct {
	PageQuery
	Status    []Status
	Priority  []Priority
	Tags      []string
	DueBefore string
	DueAfter  string
	SortBy    string
	SortOrder string
}

// ListInput carries the fields of a list to create.
type ListInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskInput carries the fields of a task to create.
type TaskInput struct {
	Title               string   `json:"title"`
	Description         string   `json:"description,omitempty"`
	Status              Status   `json:"status,omitempty"`
	Priority            Priority `json:"priority,omitempty"`
	DueAt               string   `json:"due_at,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	EstimatedDuration   string   `json:"estimated_duration,omitempty"`
	RecurringTemplateID string   `json:"recurring_template_id,omitempty"`
}

// TemplateInput carries the fields of a recurring template to create.
type TemplateInput struct {
	Title                string            `json:"title"`
	Description          string            `json:"description,omitempty"`
	Priority             Priority          `json:"priority,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	EstimatedDuration    string            `json:"estimated_duration,omitempty"`
	RecurrencePattern    RecurrencePattern `json:"recurrence_pattern"`
	GenerationWindowDays int               `json:"generation_window_days,omitempty"`
	IsActive             *bool             `json:"is_active,omitempty"`
}

// Patch is a masked partial update. Only the paths in Mask are applied;
// Fields holds the new values keyed by path (a nil value clears the field).
type Patch struct {
	Mask   []string
	Fields map[string]any
	ETag   string
}

// Mutable field paths per resource, in the remote API's naming.
var (
	ListMutableFields = []string{"title", "description"}

	ItemMutableFields = []string{
		"title", "description", "status", "priority", "due_at", "tags",
		"estimated_duration", "actual_duration",
	}

	TemplateMutableFields = []string{
		"title", "description", "priority", "tags", "estimated_duration",
		"recurrence_pattern", "generation_window_days", "is_active",
	}
)
