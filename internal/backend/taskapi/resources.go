package taskapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"taskbridge/internal/apierror"
	"taskbridge/internal/service"
)

const (
	listsPath     = "lists"
	listPath      = "lists/{list_id}"
	itemsPath     = "lists/{list_id}/items"
	itemPath      = "lists/{list_id}/items/{item_id}"
	templatesPath = "lists/{list_id}/recurring-templates"
	templatePath  = "lists/{list_id}/recurring-templates/{template_id}"
)

// ListLists implements service.Service.
func (cl *Client) ListLists(ctx context.Context, q service.PageQuery) (service.Page[service.TaskList], error) {
	var page service.Page[service.TaskList]
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   listsPath,
		query:  pageValues(q),
		rc:     apierror.NewRequestContext(ctx, ResourceList, ""),
	}, &page)
	return page, err
}

// GetList implements service.Service.
func (cl *Client) GetList(ctx context.Context, listID string) (service.TaskList, error) {
	var list service.TaskList
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   listPath,
		params: map[string]string{"list_id": listID},
		rc:     apierror.NewRequestContext(ctx, ResourceList, listID),
	}, &list)
	return list, err
}

// CreateList implements service.Service.
func (cl *Client) CreateList(ctx context.Context, in service.ListInput) (service.TaskList, error) {
	var list service.TaskList
	err := cl.do(ctx, call{
		method: http.MethodPost,
		path:   listsPath,
		body:   in,
		rc:     apierror.NewRequestContext(ctx, ResourceList, ""),
	}, &list)
	return list, err
}

// UpdateList implements service.Service.
func (cl *Client) UpdateList(ctx context.Context, listID string, p service.Patch) (service.TaskList, error) {
	var list service.TaskList
	err := cl.do(ctx, patchCall(listPath, map[string]string{"list_id": listID}, p,
		apierror.NewRequestContext(ctx, ResourceList, listID)), &list)
	return list, err
}

// DeleteList implements service.Service.
func (cl *Client) DeleteList(ctx context.Context, listID string) error {
	return cl.do(ctx, call{
		method: http.MethodDelete,
		path:   listPath,
		params: map[string]string{"list_id": listID},
		rc:     apierror.NewRequestContext(ctx, ResourceList, listID),
	}, nil)
}

// ListItems implements service.Service.
// A failure is reported against the list, since a missing list is the
// usual cause.
func (cl *Client) ListItems(ctx context.Context, listID string, q service.ItemQuery) (service.Page[service.Task], error) {
	var page service.Page[service.Task]
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   itemsPath,
		params: map[string]string{"list_id": listID},
		query:  itemValues(q),
		rc:     apierror.NewRequestContext(ctx, ResourceList, listID),
	}, &page)
	if err != nil {
		return service.Page[service.Task]{}, err
	}
	for i := range page.Items {
		page.Items[i] = normalizeTask(page.Items[i], listID)
	}
	return page, nil
}

// GetItem implements service.Service.
func (cl *Client) GetItem(ctx context.Context, listID, itemID string) (service.Task, error) {
	var task service.Task
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   itemPath,
		params: map[string]string{"list_id": listID, "item_id": itemID},
		rc:     apierror.NewRequestContext(ctx, ResourceItem, itemID),
	}, &task)
	if err != nil {
		return service.Task{}, err
	}
	return normalizeTask(task, listID), nil
}

// CreateItem implements service.Service.
func (cl *Client) CreateItem(ctx context.Context, listID string, in service.TaskInput) (service.Task, error) {
	var task service.Task
	err := cl.do(ctx, call{
		method: http.MethodPost,
		path:   itemsPath,
		params: map[string]string{"list_id": listID},
		body:   in,
		rc:     apierror.NewRequestContext(ctx, ResourceItem, ""),
	}, &task)
	if err != nil {
		return service.Task{}, err
	}
	return normalizeTask(task, listID), nil
}

// UpdateItem implements service.Service.
func (cl *Client) UpdateItem(ctx context.Context, listID, itemID string, p service.Patch) (service.Task, error) {
	var task service.Task
	err := cl.do(ctx, patchCall(itemPath, map[string]string{"list_id": listID, "item_id": itemID}, p,
		apierror.NewRequestContext(ctx, ResourceItem, itemID)), &task)
	if err != nil {
		return service.Task{}, err
	}
	return normalizeTask(task, listID), nil
}

// DeleteItem implements service.Service.
func (cl *Client) DeleteItem(ctx context.Context, listID, itemID string) error {
	return cl.do(ctx, call{
		method: http.MethodDelete,
		path:   itemPath,
		params: map[string]string{"list_id": listID, "item_id": itemID},
		rc:     apierror.NewRequestContext(ctx, ResourceItem, itemID),
	}, nil)
}

// ListTemplates implements service.Service.
func (cl *Client) ListTemplates(ctx context.Context, listID string, q service.PageQuery) (service.Page[service.RecurringTemplate], error) {
	var page service.Page[service.RecurringTemplate]
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   templatesPath,
		params: map[string]string{"list_id": listID},
		query:  pageValues(q),
		rc:     apierror.NewRequestContext(ctx, ResourceList, listID),
	}, &page)
	return page, err
}

// GetTemplate implements service.Service.
func (cl *Client) GetTemplate(ctx context.Context, listID, templateID string) (service.RecurringTemplate, error) {
	var tmpl service.RecurringTemplate
	err := cl.do(ctx, call{
		method: http.MethodGet,
		path:   templatePath,
		params: map[string]string{"list_id": listID, "template_id": templateID},
		rc:     apierror.NewRequestContext(ctx, ResourceTemplate, templateID),
	}, &tmpl)
	return tmpl, err
}

// CreateTemplate implements service.Service.
func (cl *Client) CreateTemplate(ctx context.Context, listID string, in service.TemplateInput) (service.RecurringTemplate, error) {
	var tmpl service.RecurringTemplate
	err := cl.do(ctx, call{
		method: http.MethodPost,
		path:   templatesPath,
		params: map[string]string{"list_id": listID},
		body:   in,
		rc:     apierror.NewRequestContext(ctx, ResourceTemplate, ""),
	}, &tmpl)
	return tmpl, err
}

// UpdateTemplate implements service.Service.
func (cl *Client) UpdateTemplate(ctx context.Context, listID, templateID string, p service.Patch) (service.RecurringTemplate, error) {
	var tmpl service.RecurringTemplate
	err := cl.do(ctx, patchCall(templatePath, map[string]string{"list_id": listID, "template_id": templateID}, p,
		apierror.NewRequestContext(ctx, ResourceTemplate, templateID)), &tmpl)
	return tmpl, err
}

// DeleteTemplate implements service.Service.
func (cl *Client) DeleteTemplate(ctx context.Context, listID, templateID string) error {
	return cl.do(ctx, call{
		method: http.MethodDelete,
		path:   templatePath,
		params: map[string]string{"list_id": listID, "template_id": templateID},
		rc:     apierror.NewRequestContext(ctx, ResourceTemplate, templateID),
	}, nil)
}

// patchCall builds a masked PATCH. Only masked fields are sent; a masked
// field without a value is sent as null.
func patchCall(path string, params map[string]string, p service.Patch, rc apierror.RequestContext) call {
	mask := &fieldmaskpb.FieldMask{Paths: append([]string(nil), p.Mask...)}
	mask.Normalize()

	body := make(map[string]any, len(mask.GetPaths())+1)
	for _, field := range mask.GetPaths() {
		body[field] = p.Fields[field]
	}
	if p.ETag != "" {
		body["etag"] = p.ETag
	}

	query := url.Values{}
	query.Set("update_mask", strings.Join(mask.GetPaths(), ","))

	return call{
		method: http.MethodPatch,
		path:   path,
		params: params,
		query:  query,
		body:   body,
		rc:     rc,
	}
}

func pageValues(q service.PageQuery) url.Values {
	v := url.Values{}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.PageToken != "" {
		v.Set("page_token", q.PageToken)
	}
	return v
}

// itemValues encodes slice filters as repeated keys.
func itemValues(q service.ItemQuery) url.Values {
	v := pageValues(q.PageQuery)
	for _, s := range q.Status {
		v.Add("status", string(s))
	}
	for _, p := range q.Priority {
		v.Add("priority", string(p))
	}
	for _, tag := range q.Tags {
		v.Add("tag", tag)
	}
	if q.DueBefore != "" {
		v.Set("due_before", q.DueBefore)
	}
	if q.DueAfter != "" {
		v.Set("due_after", q.DueAfter)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sort_order", q.SortOrder)
	}
	return v
}

// normalizeTask fills the owning list and rewrites the due timestamp in
// fixed-width UTC. Unparseable timestamps are kept as received.
func normalizeTask(t service.Task, listID string) service.Task {
	if t.ListID == "" {
		t.ListID = listID
	}
	if due, err := service.NormalizeTimestamp(t.DueAt); err == nil {
		t.DueAt = due
	}
	return t
}
