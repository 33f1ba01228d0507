package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbridge/internal/apierror"
	"taskbridge/internal/planner"
	"taskbridge/internal/service"
	"taskbridge/internal/testutil"
)

func newEnv(svc *testutil.FakeService) *Env {
	return &Env{Service: svc, Planner: planner.New(svc, planner.DefaultConfig, nil)}
}

func run(t *testing.T, env *Env, name, args string) (any, error) {
	t.Helper()
	tool, ok := DefaultRegistry.Find(name)
	require.True(t, ok, "tool %s not registered", name)
	return tool.Run(context.Background(), env, json.RawMessage(args))
}

func requireInputError(t *testing.T, err error) *apierror.InputError {
	t.Helper()
	var ie *apierror.InputError
	require.ErrorAs(t, err, &ie)
	return ie
}

func TestCatalog(t *testing.T) {
	want := []string{
		"create_item",
		"create_list",
		"create_recurring_template",
		"delete_item",
		"delete_list",
		"delete_recurring_template",
		"get_item",
		"get_list",
		"get_overdue_tasks",
		"get_plannable_tasks",
		"get_recurring_template",
		"get_tasks_by_tag",
		"get_tasks_due_soon",
		"get_workload_summary",
		"list_items",
		"list_lists",
		"list_recurring_templates",
		"quick_add_task",
		"update_item",
		"update_list",
		"update_recurring_template",
	}

	var got []string
	for _, tool := range DefaultRegistry.All() {
		got = append(got, tool.Name())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_ParamsWellFormed(t *testing.T) {
	for _, tool := range DefaultRegistry.All() {
		t.Run(tool.Name(), func(t *testing.T) {
			assert.NotEmpty(t, tool.Description())
			seen := make(map[string]bool)
			for _, p := range tool.Params() {
				assert.False(t, seen[p.Name], "duplicate param %s", p.Name)
				seen[p.Name] = true
				assert.NotEmpty(t, p.Description, "param %s", p.Name)
				assert.Contains(t, []ParamType{TypeString, TypeInteger, TypeBoolean, TypeArray}, p.Type)
			}
		})
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&GetListTool{}))
	err := r.Register(&GetListTool{})
	assert.EqualError(t, err, "tool already registered: get_list")
}

func TestUpdate_EmptyMaskRejectedLocally(t *testing.T) {
	tests := []struct {
		tool string
		args string
	}{
		{"update_list", `{"list_id":"L1","title":"x"}`},
		{"update_item", `{"list_id":"L1","item_id":"I1","update_mask":[],"title":"x"}`},
		{"update_recurring_template", `{"list_id":"L1","template_id":"T1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			svc := testutil.NewFakeService()
			_, err := run(t, newEnv(svc), tt.tool, tt.args)

			ie := requireInputError(t, err)
			assert.Equal(t, "update_mask", ie.Field)
			assert.NotEmpty(t, ie.ValidValues)
			assert.Empty(t, svc.Calls(), "no remote call expected")
		})
	}
}

func TestUpdate_UnknownMaskPath(t *testing.T) {
	svc := testutil.NewFakeService()
	_, err := run(t, newEnv(svc), "update_list", `{"list_id":"L1","update_mask":["color"]}`)

	ie := requireInputError(t, err)
	assert.Equal(t, "update_mask", ie.Field)
	assert.Equal(t, `unknown field "color"`, ie.Issue)
	assert.Equal(t, service.ListMutableFields, ie.ValidValues)
	assert.Empty(t, svc.Calls())
}

func TestUpdateItem_OnlyMaskedFieldsSent(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")
	svc.AddTask("L1", service.Task{ID: "I1", Title: "a", Priority: service.PriorityLow, DueAt: "2025-01-20T00:00:00Z"})

	_, err := run(t, newEnv(svc), "update_item", `{
		"list_id": "L1",
		"item_id": "I1",
		"update_mask": ["priority", "due_at", "priority"],
		"priority": "high",
		"title": "ignored",
		"etag": "e7"
	}`)
	require.NoError(t, err)

	calls := svc.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Patch)
	want := service.Patch{
		Mask:   []string{"priority", "due_at"},
		Fields: map[string]any{"priority": service.PriorityHigh, "due_at": nil},
		ETag:   "e7",
	}
	if diff := cmp.Diff(want, *calls[0].Patch); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateItem_DueNormalized(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")
	svc.AddTask("L1", service.Task{ID: "I1", Title: "a"})

	got, err := run(t, newEnv(svc), "update_item",
		`{"list_id":"L1","item_id":"I1","update_mask":["due_at"],"due_at":"2025-01-31T17:00:00+02:00"}`)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31T15:00:00Z", got.(service.Task).DueAt)
}

func TestUpdateTemplate_Toggle(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")
	svc.AddTemplate("L1", service.RecurringTemplate{ID: "T1", Title: "standup", IsActive: true})

	got, err := run(t, newEnv(svc), "update_recurring_template",
		`{"list_id":"L1","template_id":"T1","update_mask":["is_active"],"is_active":false}`)
	require.NoError(t, err)
	assert.False(t, got.(service.RecurringTemplate).IsActive)
}

func TestDecode_EnumViolation(t *testing.T) {
	svc := testutil.NewFakeService()
	_, err := run(t, newEnv(svc), "create_item", `{"list_id":"L1","title":"a","status":"later"}`)

	ie := requireInputError(t, err)
	assert.Equal(t, "status", ie.Field)
	assert.Equal(t, []string{"todo", "in_progress", "blocked", "done", "archived", "cancelled"}, ie.ValidValues)
	assert.Empty(t, svc.Calls())
}

func TestDecode_ArrayEnumViolation(t *testing.T) {
	svc := testutil.NewFakeService()
	_, err := run(t, newEnv(svc), "list_items", `{"list_id":"L1","priority":["high","critical"]}`)

	ie := requireInputError(t, err)
	assert.Equal(t, "priority[1]", ie.Field)
	assert.Equal(t, []string{"low", "medium", "high", "urgent"}, ie.ValidValues)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		tool      string
		args      string
		wantField string
		wantIssue string
	}{
		{"missing required", "get_item", `{"list_id":"L1"}`, "item_id", "is required"},
		{"wrong type", "list_lists", `{"page_size":"ten"}`, "page_size", "must be of type integer"},
		{"fractional", "list_lists", `{"page_size":0.5}`, "page_size", "must be of type integer"},
		{"above max", "list_lists", `{"page_size":101}`, "page_size", "must be at most 100"},
		{"window too large", "get_tasks_due_soon", `{"days_ahead":400}`, "days_ahead", "must be at most 365"},
		{"empty tag", "get_tasks_by_tag", `{"tag":""}`, "tag", "is required"},
		{"quick add without title", "quick_add_task", `{"list_id":"L1"}`, "title", "is required"},
		{"bad timestamp", "create_item", `{"list_id":"L1","title":"a","due_at":"tomorrow"}`, "due_at",
			"must be an ISO 8601 timestamp such as 2025-01-31T17:00:00Z"},
		{"bad recurrence", "create_recurring_template", `{"list_id":"L1","title":"a","recurrence_pattern":"hourly"}`,
			"recurrence_pattern", "must be one of: daily, weekly, biweekly, monthly, yearly, quarterly, weekdays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			_, err := run(t, newEnv(svc), tt.tool, tt.args)

			ie := requireInputError(t, err)
			assert.Equal(t, tt.wantField, ie.Field)
			assert.Equal(t, tt.wantIssue, ie.Issue)
			assert.Empty(t, svc.Calls())
		})
	}
}

func TestDecode_NotAnObject(t *testing.T) {
	_, err := run(t, newEnv(testutil.NewFakeService()), "list_lists", `[1,2]`)
	ie := requireInputError(t, err)
	assert.Empty(t, ie.Field)
}

func TestDecode_NullArgs(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")

	got, err := run(t, newEnv(svc), "list_lists", `null`)
	require.NoError(t, err)
	assert.Len(t, got.(service.Page[service.TaskList]).Items, 1)
}

func TestListItems_QueryForwarded(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")

	_, err := run(t, newEnv(svc), "list_items", `{
		"list_id": "L1",
		"status": ["todo", "blocked"],
		"tags": ["home"],
		"due_before": "2025-02-01",
		"sort_by": "due_at",
		"sort_order": "asc",
		"page_size": 20
	}`)
	require.NoError(t, err)

	calls := svc.Calls()
	require.Len(t, calls, 1)
	want := service.ItemQuery{
		PageQuery: service.PageQuery{PageSize: 20},
		Status:    []service.Status{service.StatusTodo, service.StatusBlocked},
		Tags:      []string{"home"},
		DueBefore: "2025-02-01T00:00:00Z",
		SortBy:    "due_at",
		SortOrder: "asc",
	}
	if diff := cmp.Diff(want, *calls[0].Item); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_ReturnsConfirmation(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")
	svc.AddTask("L1", service.Task{ID: "I1", Title: "a"})

	got, err := run(t, newEnv(svc), "delete_item", `{"list_id":"L1","item_id":"I1"}`)
	require.NoError(t, err)
	assert.Equal(t, Deleted{Deleted: true, ID: "I1"}, got)
	assert.Empty(t, svc.Tasks("L1"))
}

func TestDelete_RemoteErrorPassedThrough(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")

	_, err := run(t, newEnv(svc), "delete_recurring_template", `{"list_id":"L1","template_id":"T9"}`)
	var re *apierror.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.Status)
}

func TestCreateTemplate(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")

	got, err := run(t, newEnv(svc), "create_recurring_template",
		`{"list_id":"L1","title":"standup","recurrence_pattern":"weekdays","generation_window_days":14}`)
	require.NoError(t, err)

	tmpl := got.(service.RecurringTemplate)
	assert.Equal(t, service.RecurrencePattern("weekdays"), tmpl.RecurrencePattern)
	assert.Equal(t, 14, tmpl.GenerationWindowDays)
	assert.True(t, tmpl.IsActive)
}

func TestQuickAdd_DefaultsPriority(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")

	got, err := run(t, newEnv(svc), "quick_add_task", `{"list_id":"L1","title":"call bank"}`)
	require.NoError(t, err)

	task := got.(service.Task)
	assert.Equal(t, service.PriorityMedium, task.Priority)
	assert.Equal(t, service.StatusTodo, task.Status)
}

func TestPlannable_Unscoped(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("L1", "Work")
	svc.AddList("L2", "Home")
	svc.AddTask("L1", service.Task{ID: "a", Priority: service.PriorityLow})
	svc.AddTask("L2", service.Task{ID: "b", Priority: service.PriorityUrgent})

	got, err := run(t, newEnv(svc), "get_plannable_tasks", `{"max_items":1}`)
	require.NoError(t, err)

	res := got.(planner.PlannableResult)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "b", res.Tasks[0].ID)
	assert.True(t, res.Truncated)
	assert.Equal(t, 2, res.ListsScanned)
}
