package tools

import (
	"context"
	"encoding/json"

	"taskbridge/internal/service"
)

func init() {
	Register(&ListListsTool{})
	Register(&GetListTool{})
	Register(&CreateListTool{})
	Register(&UpdateListTool{})
	Register(&DeleteListTool{})
}

var pagingParams = []Param{
	{Name: "page_size", Type: TypeInteger, Description: "Maximum number of results to return (1-100)."},
	{Name: "page_token", Type: TypeString, Description: "Token from a previous response's next_page_token."},
}

type pageArgs struct {
	PageSize  int    `json:"page_size" validate:"omitempty,min=1,max=100"`
	PageToken string `json:"page_token"`
}

func (a pageArgs) query() service.PageQuery {
	return service.PageQuery{PageSize: a.PageSize, PageToken: a.PageToken}
}

// ListListsTool implements list_lists.
type ListListsTool struct{}

func (t *ListListsTool) Name() string { return "list_lists" }
func (t *ListListsTool) Description() string {
	return "List task lists with their IDs, titles and item counts."
}
func (t *ListListsTool) Params() []Param { return pagingParams }

func (t *ListListsTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in pageArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.ListLists(ctx, in.query())
}

type listRef struct {
	ListID string `json:"list_id" validate:"required"`
}

var listIDParam = Param{Name: "list_id", Type: TypeString, Description: "ID of the list.", Required: true}

// GetListTool implements get_list.
type GetListTool struct{}

func (t *GetListTool) Name() string        { return "get_list" }
func (t *GetListTool) Description() string { return "Get one task list by ID." }
func (t *GetListTool) Params() []Param     { return []Param{listIDParam} }

func (t *GetListTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in listRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.GetList(ctx, in.ListID)
}

// CreateListTool implements create_list.
type CreateListTool struct{}

func (t *CreateListTool) Name() string        { return "create_list" }
func (t *CreateListTool) Description() string { return "Create a new task list." }
func (t *CreateListTool) Params() []Param {
	return []Param{
		{Name: "title", Type: TypeString, Description: "Title of the list.", Required: true},
		{Name: "description", Type: TypeString, Description: "Optional description."},
	}
}

func (t *CreateListTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.CreateList(ctx, service.ListInput{Title: in.Title, Description: in.Description})
}

// UpdateListTool implements update_list.
type UpdateListTool struct{}

func (t *UpdateListTool) Name() string { return "update_list" }
func (t *UpdateListTool) Description() string {
	return "Update fields of a task list. Only the fields named in update_mask are changed."
}
func (t *UpdateListTool) Params() []Param {
	return []Param{
		listIDParam,
		updateMaskParam(service.ListMutableFields),
		{Name: "title", Type: TypeString, Description: "New title."},
		{Name: "description", Type: TypeString, Description: "New description."},
		etagParam,
	}
}

func (t *UpdateListTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID      string   `json:"list_id" validate:"required"`
		UpdateMask  []string `json:"update_mask"`
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		ETag        string   `json:"etag"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	patch, err := buildPatch(in.UpdateMask, service.ListMutableFields, map[string]any{
		"title":       deref(in.Title),
		"description": deref(in.Description),
	}, in.ETag)
	if err != nil {
		return nil, err
	}
	return env.Service.UpdateList(ctx, in.ListID, patch)
}

// DeleteListTool implements delete_list.
type DeleteListTool struct{}

func (t *DeleteListTool) Name() string { return "delete_list" }
func (t *DeleteListTool) Description() string {
	return "Delete a task list and everything in it. This cannot be undone."
}
func (t *DeleteListTool) Params() []Param { return []Param{listIDParam} }

func (t *DeleteListTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in listRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := env.Service.DeleteList(ctx, in.ListID); err != nil {
		return nil, err
	}
	return Deleted{Deleted: true, ID: in.ListID}, nil
}

var etagParam = Param{
	Name:        "etag",
	Type:        TypeString,
	Description: "Concurrency token from the last read. The update fails with CONFLICT if the resource changed since.",
}

func updateMaskParam(allowed []string) Param {
	return Param{
		Name:        "update_mask",
		Type:        TypeArray,
		Description: "Names of the fields to change. Fields not listed are ignored.",
		Required:    true,
		Enum:        allowed,
	}
}

// deref returns *p, or nil for a nil pointer so the field is sent as null.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
