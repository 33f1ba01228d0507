package tools

import (
	"context"
	"encoding/json"

	"taskbridge/internal/planner"
	"taskbridge/internal/service"
)

func init() {
	Register(&PlannableTasksTool{})
	Register(&OverdueTasksTool{})
	Register(&DueSoonTool{})
	Register(&TasksByTagTool{})
	Register(&WorkloadSummaryTool{})
	Register(&QuickAddTool{})
}

var scopeParam = Param{
	Name:        "list_id",
	Type:        TypeString,
	Description: "Limit to one list. When omitted, every list is scanned.",
}

type scopeArgs struct {
	ListID string `json:"list_id"`
}

// PlannableTasksTool implements get_plannable_tasks.
type PlannableTasksTool struct{}

func (t *PlannableTasksTool) Name() string { return "get_plannable_tasks" }
func (t *PlannableTasksTool) Description() string {
	return "Open tasks (todo, in progress and blocked) ordered for planning: " +
		"urgent first, then by earliest due date, undated last."
}
func (t *PlannableTasksTool) Params() []Param {
	return []Param{
		scopeParam,
		{Name: "max_items", Type: TypeInteger, Description: "Maximum number of tasks to return (default 50)."},
		{Name: "exclude_blocked", Type: TypeBoolean, Description: "Leave out blocked tasks."},
	}
}

func (t *PlannableTasksTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID         string `json:"list_id"`
		MaxItems       int    `json:"max_items" validate:"omitempty,min=1,max=500"`
		ExcludeBlocked bool   `json:"exclude_blocked"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.PlannableTasks(ctx, planner.PlannableQuery{
		ListID:         in.ListID,
		MaxItems:       in.MaxItems,
		ExcludeBlocked: in.ExcludeBlocked,
	})
}

// OverdueTasksTool implements get_overdue_tasks.
type OverdueTasksTool struct{}

func (t *OverdueTasksTool) Name() string { return "get_overdue_tasks" }
func (t *OverdueTasksTool) Description() string {
	return "Open tasks whose due date has passed, oldest first."
}
func (t *OverdueTasksTool) Params() []Param { return []Param{scopeParam} }

func (t *OverdueTasksTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in scopeArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.OverdueTasks(ctx, planner.ScopeQuery{ListID: in.ListID})
}

// DueSoonTool implements get_tasks_due_soon.
type DueSoonTool struct{}

func (t *DueSoonTool) Name() string { return "get_tasks_due_soon" }
func (t *DueSoonTool) Description() string {
	return "Open tasks due between now and the given number of days ahead, earliest first."
}
func (t *DueSoonTool) Params() []Param {
	return []Param{
		scopeParam,
		{Name: "days_ahead", Type: TypeInteger, Description: "Size of the window in days (default 7)."},
	}
}

func (t *DueSoonTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID    string `json:"list_id"`
		DaysAhead int    `json:"days_ahead" validate:"omitempty,min=1,max=365"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.DueSoon(ctx, planner.DueSoonQuery{ListID: in.ListID, DaysAhead: in.DaysAhead})
}

// TasksByTagTool implements get_tasks_by_tag.
type TasksByTagTool struct{}

func (t *TasksByTagTool) Name() string { return "get_tasks_by_tag" }
func (t *TasksByTagTool) Description() string {
	return "Open tasks carrying a tag, ordered by priority and due date."
}
func (t *TasksByTagTool) Params() []Param {
	return []Param{
		{Name: "tag", Type: TypeString, Description: "Tag to match exactly.", Required: true},
		scopeParam,
	}
}

func (t *TasksByTagTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		Tag    string `json:"tag" validate:"required"`
		ListID string `json:"list_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.TasksByTag(ctx, planner.TagQuery{ListID: in.ListID, Tag: in.Tag})
}

// WorkloadSummaryTool implements get_workload_summary.
type WorkloadSummaryTool struct{}

func (t *WorkloadSummaryTool) Name() string { return "get_workload_summary" }
func (t *WorkloadSummaryTool) Description() string {
	return "Counts and estimated hours of open work by priority, tag and status, " +
		"with overdue and due-soon counts."
}
func (t *WorkloadSummaryTool) Params() []Param { return []Param{scopeParam} }

func (t *WorkloadSummaryTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in scopeArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.WorkloadSummary(ctx, planner.ScopeQuery{ListID: in.ListID})
}

// QuickAddTool implements quick_add_task.
type QuickAddTool struct{}

func (t *QuickAddTool) Name() string { return "quick_add_task" }
func (t *QuickAddTool) Description() string {
	return "Create a task with minimal input. Priority defaults to medium."
}
func (t *QuickAddTool) Params() []Param {
	return []Param{
		listIDParam,
		{Name: "title", Type: TypeString, Description: "Title of the task.", Required: true},
		{Name: "priority", Type: TypeString, Description: "Importance; defaults to medium.", Enum: priorityValues},
		{Name: "due_at", Type: TypeString, Description: "Due timestamp in ISO 8601."},
		{Name: "tags", Type: TypeArray, Description: "Free-form labels."},
		{Name: "estimated_duration", Type: TypeString, Description: "Estimated effort, e.g. PT30M."},
		{Name: "description", Type: TypeString, Description: "Longer notes."},
	}
}

func (t *QuickAddTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID            string           `json:"list_id" validate:"required"`
		Title             string           `json:"title" validate:"required"`
		Priority          service.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		DueAt             string           `json:"due_at"`
		Tags              []string         `json:"tags"`
		EstimatedDuration string           `json:"estimated_duration"`
		Description       string           `json:"description"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Planner.QuickAdd(ctx, planner.QuickAddInput{
		ListID:            in.ListID,
		Title:             in.Title,
		Priority:          in.Priority,
		DueAt:             in.DueAt,
		Tags:              in.Tags,
		EstimatedDuration: in.EstimatedDuration,
		Description:       in.Description,
	})
}
