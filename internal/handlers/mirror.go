package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nexus-registry/nexus/internal/apierr"
)

// handleMirror proxies a request straight through to one of the ~40
// generic upstream registries, preserving the request path after the
// registry name exactly as written (including any doubled slashes:
// some upstreams are sensitive to that and collapsing it would change
// the request).
func (h *Handlers) handleMirror(w http.ResponseWriter, r *http.Request) {
	registry := mux.Vars(r)["registry"]
	base, ok := h.Mirrors[registry]
	if !ok {
		writeError(w, apierr.BadRequest("unknown mirror registry %q", registry))
		return
	}

	marker := "/mirror/" + registry
	idx := strings.Index(r.URL.Path, marker)
	rest := ""
	if idx >= 0 {
		rest = r.URL.Path[idx+len(marker):]
	}
	upstreamURL := base + rest
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, r.Body)
	if err != nil {
		writeError(w, apierr.BadRequest("building mirror request: %v", err))
		return
	}
	for name, values := range r.Header {
		if name == "Host" {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	client := h.MirrorClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "mirroring %s", registry))
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
