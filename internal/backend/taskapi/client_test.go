package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbridge/internal/apierror"
	"taskbridge/internal/retry"
	"taskbridge/internal/service"
)

func fastRetry() *retry.Executor {
	cfg := retry.DefaultConfig
	cfg.BaseDelay = 0
	cfg.PerAttemptTimeout = 2 * time.Second
	return retry.New(cfg, nil)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{BaseURL: srv.URL + "/v1", Token: "secret-token"}, fastRetry(), nil)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(context.Background(), Config{BaseURL: "https://api.example.com"}, nil, nil)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewWithHTTPClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewWithHTTPClient(Config{BaseURL: "not a url"}, http.DefaultClient, nil, nil)
	assert.Error(t, err)
}

func TestListLists_SendsBearerAndPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "/v1/lists", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("page_size"))
		assert.Equal(t, "tok", r.URL.Query().Get("page_token"))

		_, _ = io.WriteString(w, `{"items":[{"id":"L1","title":"Inbox","item_count":3}],"next_page_token":"n2"}`)
	})

	page, err := c.ListLists(context.Background(), service.PageQuery{PageSize: 25, PageToken: "tok"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Inbox", page.Items[0].Title)
	assert.Equal(t, 3, page.Items[0].ItemCount)
	assert.Equal(t, "n2", page.NextPageToken)
}

func TestListItems_RepeatedFiltersAndNormalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/lists/L%201/items", r.URL.EscapedPath())
		q := r.URL.Query()
		assert.Equal(t, []string{"todo", "in_progress"}, q["status"])
		assert.Equal(t, []string{"high"}, q["priority"])
		assert.Equal(t, []string{"work", "home"}, q["tag"])
		assert.Equal(t, "priority", q.Get("sort_by"))
		assert.Equal(t, "desc", q.Get("sort_order"))

		_, _ = io.WriteString(w, `{"items":[{"id":"I1","title":"a","status":"todo","due_at":"2025-01-01T10:00:00+02:00"}]}`)
	})

	page, err := c.ListItems(context.Background(), "L 1", service.ItemQuery{
		Status:    []service.Status{service.StatusTodo, service.StatusInProgress},
		Priority:  []service.Priority{service.PriorityHigh},
		Tags:      []string{"work", "home"},
		SortBy:    "priority",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2025-01-01T08:00:00Z", page.Items[0].DueAt)
	assert.Equal(t, "L 1", page.Items[0].ListID)
}

func TestUpdateItem_SendsOnlyMaskedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/lists/L1/items/I1", r.URL.Path)
		assert.Equal(t, "due_at,priority", r.URL.Query().Get("update_mask"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"priority": "high", "due_at": nil, "etag": "e1"}, body)

		_, _ = io.WriteString(w, `{"id":"I1","title":"t","priority":"high","etag":"e2"}`)
	})

	task, err := c.UpdateItem(context.Background(), "L1", "I1", service.Patch{
		Mask:   []string{"priority", "due_at", "priority"},
		Fields: map[string]any{"priority": "high", "title": "ignored"},
		ETag:   "e1",
	})
	require.NoError(t, err)
	assert.Equal(t, "e2", task.ETag)
}

func TestDeleteList_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/lists/L1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteList(context.Background(), "L1"))
}

func TestCreateTemplate_PostsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/lists/L1/recurring-templates", r.URL.Path)

		var in service.TemplateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, service.RecurrenceWeekly, in.RecurrencePattern)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"T1","list_id":"L1","title":"Review","recurrence_pattern":"weekly","generation_window_days":14,"is_active":true}`)
	})

	tmpl, err := c.CreateTemplate(context.Background(), "L1", service.TemplateInput{
		Title:             "Review",
		RecurrencePattern: service.RecurrenceWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", tmpl.ID)
	assert.True(t, tmpl.IsActive)
}

func TestErrorEnvelope_BecomesRemoteError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":{"code":"VALIDATION_ERROR","message":"invalid","details":[{"field":"priority","issue":"invalid_enum"}]}}`)
	})

	ctx := apierror.WithCall(context.Background(), apierror.Call{
		Operation: "create_item",
		Params:    map[string]any{"list_id": "L1"},
		RequestID: "req-1",
	})
	_, err := c.CreateItem(ctx, "L1", service.TaskInput{Title: "x", Priority: "critical"})

	var re *apierror.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusUnprocessableEntity, re.Status)
	assert.Equal(t, "VALIDATION_ERROR", re.Code)
	assert.Equal(t, []apierror.FieldDetail{{Field: "priority", Issue: "invalid_enum"}}, re.Details)
	assert.Equal(t, "create_item", re.Context.Operation)
	assert.Equal(t, "req-1", re.Context.RequestID)
	assert.Equal(t, ResourceItem, re.Context.ResourceType)
}

func TestErrorWithoutEnvelope_KeepsBodyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "list not found", http.StatusNotFound)
	})

	_, err := c.GetList(context.Background(), "L9")

	var re *apierror.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "list not found", re.Message)
	assert.Equal(t, "L9", re.Context.ResourceID)
}

func TestRetryableStatus_Retried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"id":"L1","title":"Inbox"}`)
	})

	list, err := c.GetList(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, "Inbox", list.Title)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetryExhausted_SurfacesFinalStatus(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`)
	})

	_, err := c.GetList(context.Background(), "L1")

	var re *apierror.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "INTERNAL_ERROR", re.Code)
	assert.Equal(t, int32(retry.DefaultConfig.MaxRetries+1), hits.Load())
}

func TestTransportFailure_CarriesContext(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(context.Background(), Config{BaseURL: base, Token: "t"}, fastRetry(), nil)
	require.NoError(t, err)

	_, err = c.ListItems(context.Background(), "L2", service.ItemQuery{})

	var re *apierror.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 0, re.Status)
	assert.Equal(t, "L2", re.Context.ResourceID)
	assert.NotNil(t, re.Err)
}
