package swagger

import (
	"context"
	"html/template"
	"net/http"
)

// DefaultScriptURL is the pinned ReDoc build loaded by the docs page.
const DefaultScriptURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Option configures Register.
type Option func(*docs)

type docs struct {
	ScriptURL string
}

// WithScriptURL points the docs page at another ReDoc build, e.g. a copy
// hosted next to the service for networks without CDN access.
func WithScriptURL(u string) Option {
	return func(d *docs) {
		if u != "" {
			d.ScriptURL = u
		}
	}
}

// Register attaches the API docs and the OpenAPI document to mux.
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}

	d := &docs{ScriptURL: DefaultScriptURL}
	for _, opt := range opts {
		opt(d)
	}

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = indexHTML.Execute(w, d)
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexHTML = template.Must(template.New("api-docs").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>discmatch API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="{{.ScriptURL}}"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`))
