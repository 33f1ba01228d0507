package tools

import (
	"context"
	"encoding/json"

	"taskbridge/internal/service"
)

func init() {
	Register(&ListItemsTool{})
	Register(&GetItemTool{})
	Register(&CreateItemTool{})
	Register(&UpdateItemTool{})
	Register(&DeleteItemTool{})
}

var itemIDParam = Param{Name: "item_id", Type: TypeString, Description: "ID of the item.", Required: true}

type itemRef struct {
	ListID string `json:"list_id" validate:"required"`
	ItemID string `json:"item_id" validate:"required"`
}

// ListItemsTool implements list_items.
type ListItemsTool struct{}

func (t *ListItemsTool) Name() string { return "list_items" }
func (t *ListItemsTool) Description() string {
	return "List items in one task list, with optional filters on status, priority, tags and due date."
}
func (t *ListItemsTool) Params() []Param {
	return append([]Param{
		listIDParam,
		{Name: "status", Type: TypeArray, Description: "Only items with one of these statuses.", Enum: statusValues},
		{Name: "priority", Type: TypeArray, Description: "Only items with one of these priorities.", Enum: priorityValues},
		{Name: "tags", Type: TypeArray, Description: "Only items carrying these tags."},
		{Name: "due_before", Type: TypeString, Description: "Only items due before this ISO 8601 timestamp."},
		{Name: "due_after", Type: TypeString, Description: "Only items due after this ISO 8601 timestamp."},
		{Name: "sort_by", Type: TypeString, Description: "Sort field.", Enum: []string{"created_at", "due_at", "priority", "title"}},
		{Name: "sort_order", Type: TypeString, Description: "Sort direction.", Enum: []string{"asc", "desc"}},
	}, pagingParams...)
}

func (t *ListItemsTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		pageArgs
		ListID    string             `json:"list_id" validate:"required"`
		Status    []service.Status   `json:"status" validate:"dive,oneof=todo in_progress blocked done archived cancelled"`
		Priority  []service.Priority `json:"priority" validate:"dive,oneof=low medium high urgent"`
		Tags      []string           `json:"tags"`
		DueBefore string             `json:"due_before"`
		DueAfter  string             `json:"due_after"`
		SortBy    string             `json:"sort_by" validate:"omitempty,oneof=created_at due_at priority title"`
		SortOrder string             `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	before, err := normalizeDue("due_before", in.DueBefore)
	if err != nil {
		return nil, err
	}
	after, err := normalizeDue("due_after", in.DueAfter)
	if err != nil {
		return nil, err
	}
	return env.Service.ListItems(ctx, in.ListID, service.ItemQuery{
		PageQuery: in.query(),
		Status:    in.Status,
		Priority:  in.Priority,
		Tags:      in.Tags,
		DueBefore: before,
		DueAfter:  after,
		SortBy:    in.SortBy,
		SortOrder: in.SortOrder,
	})
}

// GetItemTool implements get_item.
type GetItemTool struct{}

func (t *GetItemTool) Name() string        { return "get_item" }
func (t *GetItemTool) Description() string { return "Get one item by list ID and item ID." }
func (t *GetItemTool) Params() []Param     { return []Param{listIDParam, itemIDParam} }

func (t *GetItemTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in itemRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.GetItem(ctx, in.ListID, in.ItemID)
}

// itemFieldParams are the writable item fields shared by create and update.
var itemFieldParams = []Param{
	{Name: "description", Type: TypeString, Description: "Longer notes."},
	{Name: "status", Type: TypeString, Description: "Lifecycle state.", Enum: statusValues},
	{Name: "priority", Type: TypeString, Description: "Importance; defaults to medium.", Enum: priorityValues},
	{Name: "due_at", Type: TypeString, Description: "Due timestamp in ISO 8601, e.g. 2025-01-31T17:00:00Z."},
	{Name: "tags", Type: TypeArray, Description: "Free-form labels."},
	{Name: "estimated_duration", Type: TypeString, Description: "Estimated effort as an ISO 8601 duration, e.g. PT1H30M."},
}

// CreateItemTool implements create_item.
type CreateItemTool struct{}

func (t *CreateItemTool) Name() string        { return "create_item" }
func (t *CreateItemTool) Description() string { return "Create an item in a task list." }
func (t *CreateItemTool) Params() []Param {
	params := []Param{
		listIDParam,
		{Name: "title", Type: TypeString, Description: "Title of the item.", Required: true},
	}
	params = append(params, itemFieldParams...)
	return append(params, Param{
		Name:        "recurring_template_id",
		Type:        TypeString,
		Description: "Template this item was generated from, if any.",
	})
}

func (t *CreateItemTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID              string           `json:"list_id" validate:"required"`
		Title               string           `json:"title" validate:"required"`
		Description         string           `json:"description"`
		Status              service.Status   `json:"status" validate:"omitempty,oneof=todo in_progress blocked done archived cancelled"`
		Priority            service.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		DueAt               string           `json:"due_at"`
		Tags                []string         `json:"tags"`
		EstimatedDuration   string           `json:"estimated_duration"`
		RecurringTemplateID string           `json:"recurring_template_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	due, err := normalizeDue("due_at", in.DueAt)
	if err != nil {
		return nil, err
	}
	return env.Service.CreateItem(ctx, in.ListID, service.TaskInput{
		Title:               in.Title,
		Description:         in.Description,
		Status:              in.Status,
		Priority:            in.Priority,
		DueAt:               due,
		Tags:                in.Tags,
		EstimatedDuration:   in.EstimatedDuration,
		RecurringTemplateID: in.RecurringTemplateID,
	})
}

// UpdateItemTool implements update_item.
type UpdateItemTool struct{}

func (t *UpdateItemTool) Name() string { return "update_item" }
func (t *UpdateItemTool) Description() string {
	return "Update fields of an item. Only the fields named in update_mask are changed; " +
		"a masked field left out of the arguments is cleared."
}
func (t *UpdateItemTool) Params() []Param {
	params := []Param{
		listIDParam,
		itemIDParam,
		updateMaskParam(service.ItemMutableFields),
		{Name: "title", Type: TypeString, Description: "New title."},
	}
	params = append(params, itemFieldParams...)
	return append(params,
		Param{Name: "actual_duration", Type: TypeString, Description: "Time actually spent, as an ISO 8601 duration."},
		etagParam,
	)
}

func (t *UpdateItemTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID            string            `json:"list_id" validate:"required"`
		ItemID            string            `json:"item_id" validate:"required"`
		UpdateMask        []string          `json:"update_mask"`
		Title             *string           `json:"title"`
		Description       *string           `json:"description"`
		Status            *service.Status   `json:"status" validate:"omitempty,oneof=todo in_progress blocked done archived cancelled"`
		Priority          *service.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		DueAt             *string           `json:"due_at"`
		Tags              []string          `json:"tags"`
		EstimatedDuration *string           `json:"estimated_duration"`
		ActualDuration    *string           `json:"actual_duration"`
		ETag              string            `json:"etag"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	var due any
	if in.DueAt != nil && *in.DueAt != "" {
		normalized, err := normalizeDue("due_at", *in.DueAt)
		if err != nil {
			return nil, err
		}
		due = normalized
	}
	var tags any
	if in.Tags != nil {
		tags = in.Tags
	}

	patch, err := buildPatch(in.UpdateMask, service.ItemMutableFields, map[string]any{
		"title":              deref(in.Title),
		"description":        deref(in.Description),
		"status":             deref(in.Status),
		"priority":           deref(in.Priority),
		"due_at":             due,
		"tags":               tags,
		"estimated_duration": deref(in.EstimatedDuration),
		"actual_duration":    deref(in.ActualDuration),
	}, in.ETag)
	if err != nil {
		return nil, err
	}
	return env.Service.UpdateItem(ctx, in.ListID, in.ItemID, patch)
}

// DeleteItemTool implements delete_item.
type DeleteItemTool struct{}

func (t *DeleteItemTool) Name() string        { return "delete_item" }
func (t *DeleteItemTool) Description() string { return "Delete an item. This cannot be undone." }
func (t *DeleteItemTool) Params() []Param     { return []Param{listIDParam, itemIDParam} }

func (t *DeleteItemTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in itemRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := env.Service.DeleteItem(ctx, in.ListID, in.ItemID); err != nil {
		return nil, err
	}
	return Deleted{Deleted: true, ID: in.ItemID}, nil
}
