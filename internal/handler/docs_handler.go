package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"code2deploy-console/pkg/apierror"
)

const docsCSP = "default-src 'self'; connect-src 'self' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https://validator.swagger.io"

// DocsHandler serves the embedded OpenAPI document and a Swagger UI page
// pointing at it.
type DocsHandler struct {
	document []byte
	etag     string
}

func NewDocsHandler(document []byte) *DocsHandler {
	h := &DocsHandler{document: document}
	if len(document) > 0 {
		sum := sha256.Sum256(document)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
	return h
}

// OpenAPI answers GET and HEAD. The document only changes with a new build,
// so clients revalidate with If-None-Match.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	if h == nil || len(h.document) == 0 {
		writeError(w, r, apierror.New("NOT_FOUND", "API document is not available", "", http.StatusNotFound))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "openapi.yaml", time.Time{}, bytes.NewReader(h.document))
}

func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy", docsCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(swaggerPage)
}

var swaggerPage = []byte(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Code2Deploy Console API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>body{margin:0;background:#fafafa;}#swagger-ui{max-width:1200px;margin:0 auto;}</style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
        deepLinking: true,
        displayRequestDuration: true,
        withCredentials: true
      });
    </script>
  </body>
</html>`)
