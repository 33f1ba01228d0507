package tools

import (
	"context"
	"encoding/json"

	"taskbridge/internal/service"
)

func init() {
	Register(&ListTemplatesTool{})
	Register(&GetTemplateTool{})
	Register(&CreateTemplateTool{})
	Register(&UpdateTemplateTool{})
	Register(&DeleteTemplateTool{})
}

var templateIDParam = Param{Name: "template_id", Type: TypeString, Description: "ID of the recurring template.", Required: true}

type templateRef struct {
	ListID     string `json:"list_id" validate:"required"`
	TemplateID string `json:"template_id" validate:"required"`
}

// ListTemplatesTool implements list_recurring_templates.
type ListTemplatesTool struct{}

func (t *ListTemplatesTool) Name() string { return "list_recurring_templates" }
func (t *ListTemplatesTool) Description() string {
	return "List the recurring templates of a task list."
}
func (t *ListTemplatesTool) Params() []Param { return append([]Param{listIDParam}, pagingParams...) }

func (t *ListTemplatesTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		pageArgs
		ListID string `json:"list_id" validate:"required"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.ListTemplates(ctx, in.ListID, in.query())
}

// GetTemplateTool implements get_recurring_template.
type GetTemplateTool struct{}

func (t *GetTemplateTool) Name() string        { return "get_recurring_template" }
func (t *GetTemplateTool) Description() string { return "Get one recurring template." }
func (t *GetTemplateTool) Params() []Param     { return []Param{listIDParam, templateIDParam} }

func (t *GetTemplateTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in templateRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.GetTemplate(ctx, in.ListID, in.TemplateID)
}

var templateFieldParams = []Param{
	{Name: "description", Type: TypeString, Description: "Description copied onto generated items."},
	{Name: "priority", Type: TypeString, Description: "Priority of generated items.", Enum: priorityValues},
	{Name: "tags", Type: TypeArray, Description: "Tags copied onto generated items."},
	{Name: "estimated_duration", Type: TypeString, Description: "Estimated effort of generated items, e.g. PT45M."},
	{Name: "generation_window_days", Type: TypeInteger, Description: "How many days ahead items are generated (1-365)."},
	{Name: "is_active", Type: TypeBoolean, Description: "Whether the template generates items."},
}

// CreateTemplateTool implements create_recurring_template.
type CreateTemplateTool struct{}

func (t *CreateTemplateTool) Name() string { return "create_recurring_template" }
func (t *CreateTemplateTool) Description() string {
	return "Create a recurring template that generates items in a list on a schedule."
}
func (t *CreateTemplateTool) Params() []Param {
	params := []Param{
		listIDParam,
		{Name: "title", Type: TypeString, Description: "Title of generated items.", Required: true},
		{Name: "recurrence_pattern", Type: TypeString, Description: "How often items are generated.", Required: true, Enum: recurrenceValues},
	}
	return append(params, templateFieldParams...)
}

func (t *CreateTemplateTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID               string                    `json:"list_id" validate:"required"`
		Title                string                    `json:"title" validate:"required"`
		RecurrencePattern    service.RecurrencePattern `json:"recurrence_pattern" validate:"required,oneof=daily weekly biweekly monthly yearly quarterly weekdays"`
		Description          string                    `json:"description"`
		Priority             service.Priority          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		Tags                 []string                  `json:"tags"`
		EstimatedDuration    string                    `json:"estimated_duration"`
		GenerationWindowDays int                       `json:"generation_window_days"`
		IsActive             *bool                     `json:"is_active"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return env.Service.CreateTemplate(ctx, in.ListID, service.TemplateInput{
		Title:                in.Title,
		Description:          in.Description,
		Priority:             in.Priority,
		Tags:                 in.Tags,
		EstimatedDuration:    in.EstimatedDuration,
		RecurrencePattern:    in.RecurrencePattern,
		GenerationWindowDays: in.GenerationWindowDays,
		IsActive:             in.IsActive,
	})
}

// UpdateTemplateTool implements update_recurring_template.
type UpdateTemplateTool struct{}

func (t *UpdateTemplateTool) Name() string { return "update_recurring_template" }
func (t *UpdateTemplateTool) Description() string {
	return "Update fields of a recurring template. Only the fields named in update_mask are changed."
}
func (t *UpdateTemplateTool) Params() []Param {
	params := []Param{
		listIDParam,
		templateIDParam,
		updateMaskParam(service.TemplateMutableFields),
		{Name: "title", Type: TypeString, Description: "New title."},
		{Name: "recurrence_pattern", Type: TypeString, Description: "New schedule.", Enum: recurrenceValues},
	}
	params = append(params, templateFieldParams...)
	return append(params, etagParam)
}

func (t *UpdateTemplateTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in struct {
		ListID               string                     `json:"list_id" validate:"required"`
		TemplateID           string                     `json:"template_id" validate:"required"`
		UpdateMask           []string                   `json:"update_mask"`
		Title                *string                    `json:"title"`
		Description          *string                    `json:"description"`
		Priority             *service.Priority          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		Tags                 []string                   `json:"tags"`
		EstimatedDuration    *string                    `json:"estimated_duration"`
		RecurrencePattern    *service.RecurrencePattern `json:"recurrence_pattern" validate:"omitempty,oneof=daily weekly biweekly monthly yearly quarterly weekdays"`
		GenerationWindowDays *int                       `json:"generation_window_days"`
		IsActive             *bool                      `json:"is_active"`
		ETag                 string                     `json:"etag"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	var tags any
	if in.Tags != nil {
		tags = in.Tags
	}
	patch, err := buildPatch(in.UpdateMask, service.TemplateMutableFields, map[string]any{
		"title":                  deref(in.Title),
		"description":            deref(in.Description),
		"priority":               deref(in.Priority),
		"tags":                   tags,
		"estimated_duration":     deref(in.EstimatedDuration),
		"recurrence_pattern":     deref(in.RecurrencePattern),
		"generation_window_days": deref(in.GenerationWindowDays),
		"is_active":              deref(in.IsActive),
	}, in.ETag)
	if err != nil {
		return nil, err
	}
	return env.Service.UpdateTemplate(ctx, in.ListID, in.TemplateID, patch)
}

// DeleteTemplateTool implements delete_recurring_template.
type DeleteTemplateTool struct{}

func (t *DeleteTemplateTool) Name() string { return "delete_recurring_template" }
func (t *DeleteTemplateTool) Description() string {
	return "Delete a recurring template. Items it already generated are kept."
}
func (t *DeleteTemplateTool) Params() []Param { return []Param{listIDParam, templateIDParam} }

func (t *DeleteTemplateTool) Run(ctx context.Context, env *Env, args json.RawMessage) (any, error) {
	var in templateRef
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := env.Service.DeleteTemplate(ctx, in.ListID, in.TemplateID); err != nil {
		return nil, err
	}
	return Deleted{Deleted: true, ID: in.TemplateID}, nil
}
