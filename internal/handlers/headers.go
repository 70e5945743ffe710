package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nexus-registry/nexus/internal/apierr"
)

// extTypes pins the MIME type of extensions the CDN serves most, so
// behavior doesn't depend on the host's /etc/mime.types.
var extTypes = map[string]string{
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".cjs":  "text/javascript",
	".jsx":  "text/javascript",
	".ts":   "application/typescript",
	".tsx":  "application/typescript",
	".json": "application/json",
	".map":  "application/json",
	".css":  "text/css",
	".html": "text/html",
	".svg":  "image/svg+xml",
	".wasm": "application/wasm",
	".xml":  "application/xml",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".md":   "text/markdown",
}

// contentType infers a MIME type from name's extension, appending
// "; charset=utf-8" for text/* and the application/* subtypes the
// external-interfaces header rules list.
func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base, ok := extTypes[ext]
	if !ok {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			base, _, _ = strings.Cut(guessed, ";")
			base = strings.TrimSpace(base)
		} else {
			base = "application/octet-stream"
		}
	}
	if needsUTF8Charset(base) {
		return base + "; charset=utf-8"
	}
	return base
}

func needsUTF8Charset(base string) bool {
	if strings.HasPrefix(base, "text/") {
		return true
	}
	switch base {
	case "application/json", "application/javascript", "application/xml",
		"application/xhtml+xml", "application/x-www-form-urlencoded":
		return true
	}
	return false
}

// cacheControl maps the immutability flag to the response policy.
func cacheControl(immutable bool) string {
	if immutable {
		return "public, max-age=31536000, immutable"
	}
	return "public, max-age=600"
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apierr.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(v)
}
