package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(includeStack bool) *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, includeStack)
}

func decodeProblem(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &problem))
	return problem
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error workbook not found",
			err:        ErrWorkbookNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeWorkbookNotFound,
		},
		{
			name:       "api error schema mismatch",
			err:        SchemaMismatchError([]string{"Industry"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchemaMismatch,
		},
		{
			name:       "api error dataset not loaded",
			err:        ErrDatasetNotLoaded,
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotLoaded,
		},
		{
			name:       "app error parsing",
			err:        NewParsingError("cannot read sheet", errors.New("bad zip")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeWorkbookParse,
		},
		{
			name:       "app error not found",
			err:        NewNotFoundError("workbook"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "plain not found error",
			err:        errors.New("dataset not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown error",
			err:        errors.New("something unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(false)
			r := httptest.NewRequest(http.MethodGet, "/api/data/dashboard", nil)
			w := httptest.NewRecorder()

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			problem := decodeProblem(t, w.Body.Bytes())
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.Equal(t, "/api/data/dashboard", problem["instance"])
		})
	}
}

func TestErrorHandler_HandleError_NilError(t *testing.T) {
	h := testHandler(false)
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, nil)

	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_HandleError_IncludesStack(t *testing.T) {
	h := testHandler(true)
	r := httptest.NewRequest(http.MethodGet, "/api/data/filters", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, errors.New("boom"))

	problem := decodeProblem(t, w.Body.Bytes())
	assert.Contains(t, problem, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	h := testHandler(true)
	r := httptest.NewRequest(http.MethodPost, "/api/data/upload", nil)
	w := httptest.NewRecorder()

	h.HandlePanic(w, r, "unexpected panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	problem := decodeProblem(t, w.Body.Bytes())
	assert.Equal(t, TypeInternal, problem["type"])
	assert.Equal(t, "unexpected panic", problem["panic"])
}

func TestErrorHandler_NotFound(t *testing.T) {
	h := testHandler(false)
	r := httptest.NewRequest(http.MethodGet, "/api/missing", nil)
	w := httptest.NewRecorder()

	h.NotFound(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w.Body.Bytes())
	assert.Equal(t, TypeNotFound, problem["type"])
}

func TestErrorHandler_MethodNotAllowed(t *testing.T) {
	h := testHandler(false)
	r := httptest.NewRequest(http.MethodDelete, "/api/data/filters", nil)
	w := httptest.NewRecorder()

	h.MethodNotAllowed(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	problem := decodeProblem(t, w.Body.Bytes())
	assert.Contains(t, problem["detail"], "DELETE")
}

func TestErrorHandler_Middleware_RecoversPanic(t *testing.T) {
	h := testHandler(false)
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/data/dashboard", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusUnprocessableEntity,
		TypeSchemaMismatch,
		"Schema Mismatch",
		"Workbook is missing expected columns",
		"/api/data/upload",
	).WithExtension("missing_columns", []string{"Industry"})

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	decoded := decodeProblem(t, data)
	assert.Equal(t, TypeSchemaMismatch, decoded["type"])
	assert.Equal(t, "Schema Mismatch", decoded["title"])
	assert.Equal(t, "/api/data/upload", decoded["instance"])
	assert.Equal(t, []interface{}{"Industry"}, decoded["missing_columns"])
}
