package handlers

import "net/http"

// openAPIDocument is a hand-assembled route table, not a reflection-based
// generator: the surface is small and stable enough to maintain by hand.
func openAPIDocument() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Nexus",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/cdn/npm/{pkg}":              map[string]any{"get": map[string]any{"summary": "Serve an npm package file or listing"}},
			"/cdn/jsr/{pkg}":              map[string]any{"get": map[string]any{"summary": "Serve a JSR package file or listing"}},
			"/cdn/gh/{owner}/{repo}":      map[string]any{"get": map[string]any{"summary": "Serve a GitHub repo file or listing"}},
			"/cdn/cdnjs/{library}":        map[string]any{"get": map[string]any{"summary": "Serve a cdnjs library file or listing"}},
			"/cdn/wp/{kind}/{slug}":       map[string]any{"get": map[string]any{"summary": "Serve a WordPress plugin or theme file"}},
			"/mirror/{registry}/{rest:.*}": map[string]any{"get": map[string]any{"summary": "Passthrough proxy to a generic upstream registry"}},
			"/registry/winget/packages":            map[string]any{"get": map[string]any{"summary": "Paginated WinGet package list"}},
			"/registry/winget/packages/{id}":       map[string]any{"get": map[string]any{"summary": "WinGet package summary"}},
			"/registry/winget/packages/{id}/versions":                     map[string]any{"get": map[string]any{"summary": "WinGet version list"}},
			"/registry/winget/packages/{id}/versions/{version}":           map[string]any{"get": map[string]any{"summary": "WinGet version manifest"}},
			"/registry/winget/packages/{id}/versions/{version}/locales":   map[string]any{"get": map[string]any{"summary": "WinGet locales"}},
			"/registry/winget/packages/{id}/versions/{version}/installers": map[string]any{"get": map[string]any{"summary": "WinGet installers"}},
			"/registry/winget/manifestSearch": map[string]any{
				"get":  map[string]any{"summary": "WinGet fuzzy manifest search"},
				"post": map[string]any{"summary": "WinGet fuzzy manifest search"},
			},
		},
	}
}

func (h *Handlers) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, openAPIDocument())
}

const scalarShell = `<!doctype html>
<html>
<head><title>Nexus API reference</title></head>
<body>
<script id="api-reference" data-url="/_docs/openapi.json"></script>
<script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`

const swaggerShell = `<!doctype html>
<html>
<head><title>Nexus API docs</title></head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>window.onload = () => SwaggerUIBundle({url: "/_docs/openapi.json", dom_id: "#swagger-ui"})</script>
</body>
</html>`

func (h *Handlers) handleScalarDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(scalarShell))
}

func (h *Handlers) handleSwaggerDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(swaggerShell))
}
