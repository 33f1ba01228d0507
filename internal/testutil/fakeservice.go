// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"taskbridge/internal/apierror"
	"taskbridge/internal/service"
)

// Call records one invocation of a FakeService method.
type Call struct {
	Method string
	ListID string
	ID     string
	Item   *service.ItemQuery
	Patch  *service.Patch
}

// FakeService is an in-memory implementation of service.Service for testing.
// It is safe for concurrent use.
type FakeService struct {
	mu        sync.Mutex
	lists     []service.TaskList
	tasks     map[string][]service.Task              // listID -> tasks
	templates map[string][]service.RecurringTemplate // listID -> templates
	calls     []Call
	nextID    int

	// Error injection for testing
	ListListsErr      error
	GetListErr        error
	CreateListErr     error
	UpdateListErr     error
	DeleteListErr     error
	ListItemsErr      map[string]error // listID -> error
	GetItemErr        error
	CreateItemErr     error
	UpdateItemErr     error
	DeleteItemErr     error
	TemplateErr       error
	ListItemsPageSize int // overrides the requested page size when > 0
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tasks:        make(map[string][]service.Task),
		templates:    make(map[string][]service.RecurringTemplate),
		ListItemsErr: make(map[string]error),
	}
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title})
	if f.tasks[id] == nil {
		f.tasks[id] = []service.Task{}
	}
}

// AddTask adds a task to a list. ListID and Status are filled when empty.
func (f *FakeService) AddTask(listID string, t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ListID == "" {
		t.ListID = listID
	}
	if t.Status == "" {
		t.Status = service.StatusTodo
	}
	f.tasks[listID] = append(f.tasks[listID], t)
}

// AddTemplate adds a recurring template to a list.
func (f *FakeService) AddTemplate(listID string, tmpl service.RecurringTemplate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmpl.ListID = listID
	f.templates[listID] = append(f.templates[listID], tmpl)
}

// Calls returns the recorded calls in invocation order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount returns how many times method was invoked.
func (f *FakeService) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Tasks returns a copy of the tasks stored in a list.
func (f *FakeService) Tasks(listID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tasks[listID])
}

func (f *FakeService) record(c Call) {
	f.calls = append(f.calls, c)
}

func (f *FakeService) newID(prefix string) string {
	f.nextID++
	return prefix + strconv.Itoa(f.nextID)
}

func notFound(resource, id string) error {
	noun := resource
	if resource == "recurring_template" {
		noun = "recurring template"
	}
	return &apierror.RemoteError{
		Status:  404,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", noun),
		Context: apierror.RequestContext{ResourceType: resource, ResourceID: id},
	}
}

// paginate returns one page of items starting at the offset encoded in token.
func paginate[T any](items []T, size int, token string) service.Page[T] {
	start, _ := strconv.Atoi(token)
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if size > 0 && start+size < end {
		end = start + size
	}
	page := service.Page[T]{
		Items:      slices.Clone(items[start:end]),
		TotalCount: len(items),
	}
	if end < len(items) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page
}

// ListLists implements service.Service.
func (f *FakeService) ListLists(ctx context.Context, q service.PageQuery) (service.Page[service.TaskList], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "ListLists"})
	if f.ListListsErr != nil {
		return service.Page[service.TaskList]{}, f.ListListsErr
	}
	return paginate(f.lists, q.PageSize, q.PageToken), nil
}

// GetList implements service.Service.
func (f *FakeService) GetList(ctx context.Context, listID string) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "GetList", ListID: listID})
	if f.GetListErr != nil {
		return service.TaskList{}, f.GetListErr
	}
	for _, l := range f.lists {
		if l.ID == listID {
			return l, nil
		}
	}
	return service.TaskList{}, notFound("list", listID)
}

// CreateList implements service.Service.
func (f *FakeService) CreateList(ctx context.Context, in service.ListInput) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "CreateList"})
	if f.CreateListErr != nil {
		return service.TaskList{}, f.CreateListErr
	}
	list := service.TaskList{ID: f.newID("L"), Title: in.Title, Description: in.Description}
	f.lists = append(f.lists, list)
	f.tasks[list.ID] = []service.Task{}
	return list, nil
}

// UpdateList implements service.Service.
func (f *FakeService) UpdateList(ctx context.Context, listID string, p service.Patch) (service.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "UpdateList", ListID: listID, Patch: &p})
	if f.UpdateListErr != nil {
		return service.TaskList{}, f.UpdateListErr
	}
	for i, l := range f.lists {
		if l.ID != listID {
			continue
		}
		for _, field := range p.Mask {
			s, _ := p.Fields[field].(string)
			switch field {
			case "title":
				l.Title = s
			case "description":
				l.Description = s
			}
		}
		f.lists[i] = l
		return l, nil
	}
	return service.TaskList{}, notFound("list", listID)
}

// DeleteList implements service.Service.
func (f *FakeService) DeleteList(ctx context.Context, listID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "DeleteList", ListID: listID})
	if f.DeleteListErr != nil {
		return f.DeleteListErr
	}
	for i, l := range f.lists {
		if l.ID == listID {
			f.lists = slices.Delete(f.lists, i, i+1)
			delete(f.tasks, listID)
			delete(f.templates, listID)
			return nil
		}
	}
	return notFound("list", listID)
}

// ListItems implements service.Service. Filters in q are recorded but not
// applied; only pagination is honored.
func (f *FakeService) ListItems(ctx context.Context, listID string, q service.ItemQuery) (service.Page[service.Task], error) {
	if err := ctx.Err(); err != nil {
		return service.Page[service.Task]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "ListItems", ListID: listID, Item: &q})
	if err, ok := f.ListItemsErr[listID]; ok && err != nil {
		return service.Page[service.Task]{}, err
	}
	tasks, ok := f.tasks[listID]
	if !ok {
		return service.Page[service.Task]{}, notFound("list", listID)
	}
	size := q.PageSize
	if f.ListItemsPageSize > 0 {
		size = f.ListItemsPageSize
	}
	return paginate(tasks, size, q.PageToken), nil
}

// GetItem implements service.Service.
func (f *FakeService) GetItem(ctx context.Context, listID, itemID string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "GetItem", ListID: listID, ID: itemID})
	if f.GetItemErr != nil {
		return service.Task{}, f.GetItemErr
	}
	for _, t := range f.tasks[listID] {
		if t.ID == itemID {
			return t, nil
		}
	}
	return service.Task{}, notFound("item", itemID)
}

// CreateItem implements service.Service.
func (f *FakeService) CreateItem(ctx context.Context, listID string, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "CreateItem", ListID: listID})
	if f.CreateItemErr != nil {
		return service.Task{}, f.CreateItemErr
	}
	if _, ok := f.tasks[listID]; !ok {
		return service.Task{}, notFound("list", listID)
	}
	status := in.Status
	if status == "" {
		status = service.StatusTodo
	}
	t := service.Task{
		ID:                  f.newID("I"),
		ListID:              listID,
		Title:               in.Title,
		Description:         in.Description,
		Status:              status,
		Priority:            in.Priority,
		DueAt:               in.DueAt,
		Tags:                in.Tags,
		EstimatedDuration:   in.EstimatedDuration,
		RecurringTemplateID: in.RecurringTemplateID,
		ETag:                "e1",
	}
	f.tasks[listID] = append(f.tasks[listID], t)
	return t, nil
}

// UpdateItem implements service.Service. Masked string fields are applied.
func (f *FakeService) UpdateItem(ctx context.Context, listID, itemID string, p service.Patch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "UpdateItem", ListID: listID, ID: itemID, Patch: &p})
	if f.UpdateItemErr != nil {
		return service.Task{}, f.UpdateItemErr
	}
	for i, t := range f.tasks[listID] {
		if t.ID != itemID {
			continue
		}
		for _, field := range p.Mask {
			s, _ := p.Fields[field].(string)
			switch field {
			case "title":
				t.Title = s
			case "description":
				t.Description = s
			case "status":
				t.Status = service.Status(s)
			case "priority":
				t.Priority = service.Priority(s)
			case "due_at":
				t.DueAt = s
			}
		}
		f.tasks[listID][i] = t
		return t, nil
	}
	return service.Task{}, notFound("item", itemID)
}

// DeleteItem implements service.Service.
func (f *FakeService) DeleteItem(ctx context.Context, listID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "DeleteItem", ListID: listID, ID: itemID})
	if f.DeleteItemErr != nil {
		return f.DeleteItemErr
	}
	for i, t := range f.tasks[listID] {
		if t.ID == itemID {
			f.tasks[listID] = slices.Delete(f.tasks[listID], i, i+1)
			return nil
		}
	}
	return notFound("item", itemID)
}

// ListTemplates implements service.Service.
func (f *FakeService) ListTemplates(ctx context.Context, listID string, q service.PageQuery) (service.Page[service.RecurringTemplate], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "ListTemplates", ListID: listID})
	if f.TemplateErr != nil {
		return service.Page[service.RecurringTemplate]{}, f.TemplateErr
	}
	return paginate(f.templates[listID], q.PageSize, q.PageToken), nil
}

// GetTemplate implements service.Service.
func (f *FakeService) GetTemplate(ctx context.Context, listID, templateID string) (service.RecurringTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "GetTemplate", ListID: listID, ID: templateID})
	if f.TemplateErr != nil {
		return service.RecurringTemplate{}, f.TemplateErr
	}
	for _, t := range f.templates[listID] {
		if t.ID == templateID {
			return t, nil
		}
	}
	return service.RecurringTemplate{}, notFound("recurring_template", templateID)
}

// CreateTemplate implements service.Service.
func (f *FakeService) CreateTemplate(ctx context.Context, listID string, in service.TemplateInput) (service.RecurringTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "CreateTemplate", ListID: listID})
	if f.TemplateErr != nil {
		return service.RecurringTemplate{}, f.TemplateErr
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	tmpl := service.RecurringTemplate{
		ID:                   f.newID("T"),
		ListID:               listID,
		Title:                in.Title,
		Description:          in.Description,
		Priority:             in.Priority,
		Tags:                 in.Tags,
		EstimatedDuration:    in.EstimatedDuration,
		RecurrencePattern:    in.RecurrencePattern,
		GenerationWindowDays: in.GenerationWindowDays,
		IsActive:             active,
	}
	f.templates[listID] = append(f.templates[listID], tmpl)
	return tmpl, nil
}

// UpdateTemplate implements service.Service.
func (f *FakeService) UpdateTemplate(ctx context.Context, listID, templateID string, p service.Patch) (service.RecurringTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "UpdateTemplate", ListID: listID, ID: templateID, Patch: &p})
	if f.TemplateErr != nil {
		return service.RecurringTemplate{}, f.TemplateErr
	}
	for i, t := range f.templates[listID] {
		if t.ID != templateID {
			continue
		}
		for _, field := range p.Mask {
			switch field {
			case "title":
				t.Title, _ = p.Fields[field].(string)
			case "is_active":
				t.IsActive, _ = p.Fields[field].(bool)
			}
		}
		f.templates[listID][i] = t
		return t, nil
	}
	return service.RecurringTemplate{}, notFound("recurring_template", templateID)
}

// DeleteTemplate implements service.Service.
func (f *FakeService) DeleteTemplate(ctx context.Context, listID, templateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "DeleteTemplate", ListID: listID, ID: templateID})
	if f.TemplateErr != nil {
		return f.TemplateErr
	}
	for i, t := range f.templates[listID] {
		if t.ID == templateID {
			f.templates[listID] = slices.Delete(f.templates[listID], i, i+1)
			return nil
		}
	}
	return notFound("recurring_template", templateID)
}
