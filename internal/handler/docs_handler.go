package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

const (
	openAPIRoute     = "/openapi.yaml"
	swaggerUIRelease = "5"
	swaggerCDN       = "https://unpkg.com/swagger-ui-dist@" + swaggerUIRelease
)

// DocsHandler serves the OpenAPI document from disk and a Swagger UI page that loads it.
type DocsHandler struct {
	specPath string
	page     []byte
}

func NewDocsHandler(specPath string) *DocsHandler {
	return &DocsHandler{
		specPath: strings.TrimSpace(specPath),
		page:     []byte(renderSwaggerPage("Movie Watchlist API", openAPIRoute)),
	}
}

// OpenAPI rereads the file on every call so edits show up without a restart.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	if h.specPath == "" {
		writeError(w, r, errors.New("openapi document path not configured"))
		return
	}

	content, err := os.ReadFile(h.specPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
		return
	case err != nil:
		writeError(w, r, fmt.Errorf("read openapi document: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(content)
}

func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; "+
			"style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data:")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.page)
}

func renderSwaggerPage(title string, specURL string) string {
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%[1]s</title>
<link rel="stylesheet" href="%[3]s/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="%[3]s/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %[2]q, dom_id: "#docs", persistAuthorization: true, tagsSorter: "alpha"});
</script>
</body>
</html>`, title, specURL, swaggerCDN)
}
