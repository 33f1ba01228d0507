// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for remote task API operations.
// All remote calls go through this interface.
// Tools and the planner never import the HTTP backend directly.
type Service interface {
	// ListLists returns one page of the list catalog.
	ListLists(ctx context.Context, q PageQuery) (Page[TaskList], error)

	// GetList returns a list by ID.
	GetList(ctx context.Context, listID string) (TaskList, error)

	// CreateList creates a new list.
	CreateList(ctx context.Context, in ListInput) (TaskList, error)

	// UpdateList applies a masked update to a list.
	UpdateList(ctx context.Context, listID string, p Patch) (TaskList, error)

	// DeleteList deletes a list by ID.
	DeleteList(ctx context.Context, listID string) error

	// ListItems returns one page of items in a list.
	// Results are in server order unless q asks for a sort.
	ListItems(ctx context.Context, listID string, q ItemQuery) (Page[Task], error)

	// GetItem returns a single item.
	GetItem(ctx context.Context, listID, itemID string) (Task, error)

	// CreateItem creates a new item in the specified list.
	CreateItem(ctx context.Context, listID string, in TaskInput) (Task, error)

	// UpdateItem applies a masked update to an item.
	UpdateItem(ctx context.Context, listID, itemID string, p Patch) (Task, error)

	// DeleteItem deletes an item.
	DeleteItem(ctx context.Context, listID, itemID string) error

	// ListTemplates returns one page of recurring templates in a list.
	ListTemplates(ctx context.Context, listID string, q PageQuery) (Page[RecurringTemplate], error)

	// GetTemplate returns a single recurring template.
	GetTemplate(ctx context.Context, listID, templateID string) (RecurringTemplate, error)

	// CreateTemplate creates a recurring template in the specified list.
	CreateTemplate(ctx context.Context, listID string, in TemplateInput) (RecurringTemplate, error)

	// UpdateTemplate applies a masked update to a recurring template.
	UpdateTemplate(ctx context.Context, listID, templateID string, p Patch) (RecurringTemplate, error)

	// DeleteTemplate deletes a recurring template.
	DeleteTemplate(ctx context.Context, listID, templateID string) error
}
