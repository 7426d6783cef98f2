package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsHandler_OpenAPI(t *testing.T) {
	doc := []byte("openapi: 3.0.3\ninfo:\n  title: console\n")
	h := NewDocsHandler(doc)

	rec := httptest.NewRecorder()
	h.OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(doc), rec.Body.String())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.OpenAPI(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	h.OpenAPI(rec, httptest.NewRequest(http.MethodHead, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDocsHandler_MissingDocument(t *testing.T) {
	rec := httptest.NewRecorder()
	NewDocsHandler(nil).OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestDocsHandler_SwaggerUI(t *testing.T) {
	rec := httptest.NewRecorder()
	NewDocsHandler(nil).SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "unpkg.com")
	assert.Contains(t, rec.Body.String(), "/openapi.yaml")
}
