package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbridge/internal/apierror"
	"taskbridge/internal/service"
	"taskbridge/internal/testutil"
)

func TestFormatCatalog(t *testing.T) {
	var buf bytes.Buffer
	FormatCatalog(&buf, []CatalogEntry{
		{Name: "get_list", Description: "Get one task list by ID.", Required: []string{"list_id"}},
		{Name: "list_lists", Description: "List task lists.\nPaged."},
		{Name: "x", Description: "  "},
	})
	testutil.Golden(t, "catalog", buf.Bytes())
}

func TestFormatError(t *testing.T) {
	got := FormatError(&apierror.ActionableError{
		Message:        "No list exists with ID 'L9'",
		Code:           apierror.CodeNotFound,
		Suggestion:     "Call list_lists to see available list IDs.",
		RecoveryAction: "list_lists",
	})
	testutil.Golden(t, "not_found_error", got)
}

func TestFormatResult(t *testing.T) {
	got, err := FormatResult(service.Task{ID: "I1", Title: "a < b", Status: service.StatusTodo})
	require.NoError(t, err)

	assert.Contains(t, string(got), `"title": "a < b"`)
	assert.False(t, bytes.HasSuffix(got, []byte("\n")))
}

func TestFormatResult_Unencodable(t *testing.T) {
	_, err := FormatResult(map[string]any{"ch": make(chan int)})
	assert.ErrorContains(t, err, "failed to encode result")
}
