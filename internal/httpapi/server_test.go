package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/khatt/internal/aggregate"
	"github.com/mesh-intelligence/khatt/internal/catalog"
	"github.com/mesh-intelligence/khatt/internal/graph"
	"github.com/mesh-intelligence/khatt/internal/sqlite"
	"github.com/mesh-intelligence/khatt/internal/wire"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	scanDir string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boundary := wire.NewBoundary(catalog.New(b, logger), graph.NewManager(b, logger), aggregate.New(b, logger))
	scanDir := t.TempDir()
	srv := NewServer(boundary, Options{ScanDir: scanDir, Logger: logger})
	return &testServer{router: srv.Router(), scanDir: scanDir}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (ts *testServer) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AnnotatorHeader, "reader")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (ts *testServer) seed(t *testing.T) (wire.Book, wire.Manuscript) {
	t.Helper()
	var book wire.Book
	w := ts.do(t, http.MethodPost, "/api/books", wire.BookWrite{Title: "Muqaddimah", Author: "Ibn Khaldun"}, &book)
	require.Equal(t, http.StatusCreated, w.Code)
	var ms wire.Manuscript
	w = ts.do(t, http.MethodPost, "/api/manuscripts", wire.ManuscriptWrite{
		Book: book.ID, Title: "MS-1", Editor: "J. Doe", PageCount: 3, Filepath: "ms1/scan.tif",
	}, &ms)
	require.Equal(t, http.StatusCreated, w.Code)
	return book, ms
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = ts.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "khatt_http_requests_total")
}

func TestRequestIDEchoed(t *testing.T) {
	ts := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestBookAndManuscriptRoutes(t *testing.T) {
	ts := setupServer(t)
	book, ms := ts.seed(t)
	assert.Equal(t, "Ibn Khaldun", book.Author)
	assert.Equal(t, "J. Doe", ms.Editor)

	var books []wire.Book
	w := ts.do(t, http.MethodGet, "/api/books", nil, &books)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, books, 1)
	require.Len(t, books[0].Manuscripts, 1)

	var list []wire.Manuscript
	ts.do(t, http.MethodGet, fmt.Sprintf("/api/manuscripts?book=%d", book.ID), nil, &list)
	assert.Len(t, list, 1)

	var patched wire.Manuscript
	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/manuscripts/%d", ms.ID), map[string]any{"currently_marking": 2}, &patched)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, patched.CurrentlyMarking)

	var errResp ErrorResponse
	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/manuscripts/%d", ms.ID), map[string]any{"currently_marking": 9}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_page", errResp.Code)
}

func TestAnnotationGraphRoutes(t *testing.T) {
	ts := setupServer(t)
	_, ms := ts.seed(t)

	var tf wire.TextField
	w := ts.do(t, http.MethodPost, "/api/textfields", wire.TextFieldWrite{Manuscript: ms.ID, Page: 1}, &tf)
	require.Equal(t, http.StatusCreated, w.Code)

	var a1 wire.Annotation
	w = ts.do(t, http.MethodPost, "/api/annotations", wire.AnnotationWrite{Manuscript: ms.ID, Page: 1, Text: "one"}, &a1)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "reader", a1.Annotator)
	assert.Equal(t, "none", a1.Kind)

	var l1, a2 wire.Annotation
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/annotations/%d/line", a1.ID), wire.LineFields{TextField: &tf.ID}, &l1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/lines", wire.AnnotatedLineWrite{
		Annotation: wire.AnnotationWrite{Manuscript: ms.ID, Page: 1, Text: "two"},
		LineFields: wire.LineFields{TextField: &tf.ID, PreviousLine: &a1.ID},
	}, &a2)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "annotated_line", a2.Kind)
	assert.Equal(t, "two", a2.Text)
	require.NotNil(t, a2.PreviousLine)
	assert.Equal(t, a1.ID, *a2.PreviousLine)

	var chain []wire.Annotation
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/lines/%d/chain", a2.ID), nil, &chain)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, chain, 2)
	assert.Equal(t, a1.ID, chain[0].ID)

	var errResp ErrorResponse
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/annotations/%d/chapter", a1.ID), nil, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_specialized", errResp.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/lines/%d/insert-after", a1.ID), wire.InsertAfterWrite{NewLine: a1.ID}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cycle_detected", errResp.Code)

	var done wire.Annotation
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/annotations/%d/complete", a1.ID), nil, &done)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, done.Complete)

	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/annotations/%d", a1.ID), map[string]any{"text": "late"}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "annotation_complete", errResp.Code)

	var page wire.Page
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/manuscripts/%d/pages/1", ms.ID), nil, &page)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, page.AnnotatedLines, 2)

	var lines []wire.Annotation
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/textfields/%d/lines", tf.ID), nil, &lines)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, lines, 2)

	var manuscript wire.Manuscript
	ts.do(t, http.MethodGet, fmt.Sprintf("/api/manuscripts/%d", ms.ID), nil, &manuscript)
	assert.Equal(t, []wire.Entry{{ID: a1.ID, Complete: true}, {ID: a2.ID}}, manuscript.AnnotatedLines)
}

func TestErrorResponses(t *testing.T) {
	ts := setupServer(t)
	_, ms := ts.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad id", http.MethodGet, "/api/books/abc", nil, http.StatusBadRequest, "invalid_id"},
		{"missing book", http.MethodGet, "/api/books/99", nil, http.StatusNotFound, "not_found"},
		{"bad json", http.MethodPost, "/api/books", "not an object", http.StatusBadRequest, "invalid_json"},
		{"invalid write", http.MethodPost, "/api/books", wire.BookWrite{Title: "x"}, http.StatusBadRequest, "invalid_data"},
		{"page out of range", http.MethodPost, "/api/annotations", wire.AnnotationWrite{Manuscript: ms.ID, Page: 4}, http.StatusBadRequest, "invalid_page"},
		{"missing line", http.MethodGet, "/api/lines/77", nil, http.StatusNotFound, "not_found"},
		{"text fields need manuscript", http.MethodGet, "/api/textfields", nil, http.StatusBadRequest, "invalid_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			w := ts.do(t, tt.method, tt.path, tt.body, &resp)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrapped: %w", types.ErrAlreadySpecialized), http.StatusConflict, "already_specialized"},
		{types.ErrInvalidSpecialization, http.StatusUnprocessableEntity, "invalid_specialization"},
		{types.ErrChainScope, http.StatusUnprocessableEntity, "chain_scope"},
		{types.ErrIntegrityFault, http.StatusInternalServerError, "integrity_fault"},
		{types.ErrStoreDetached, http.StatusServiceUnavailable, "unavailable"},
		{fmt.Errorf("insert specializations: %w", types.ErrStoreBusy), http.StatusServiceUnavailable, "busy"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestScanRoute(t *testing.T) {
	ts := setupServer(t)
	_, ms := ts.seed(t)

	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/manuscripts/%d/scan", ms.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "scan file not present yet")

	require.NoError(t, os.MkdirAll(filepath.Join(ts.scanDir, "ms1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ts.scanDir, "ms1", "scan.tif"), []byte("TIFF"), 0o644))
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/manuscripts/%d/scan", ms.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "TIFF"))

	var errResp ErrorResponse
	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/manuscripts/%d", ms.ID), map[string]any{"filepath": "../secret"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_data", errResp.Code)
}
