package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleMirrorPreservesDoubledSlashes(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	h := &Handlers{Mirrors: map[string]string{"pypi": upstream.URL}, MirrorClient: upstream.Client()}

	req := httptest.NewRequest(http.MethodGet, "/mirror/pypi/simple//foo/", nil)
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotPath != "/simple//foo/" {
		t.Errorf("upstream saw path %q, want doubled slash preserved", gotPath)
	}
}

func TestDefaultMirrorsIncludesNPM(t *testing.T) {
	if defaultMirrors["npm"] != "https://registry.npmjs.org" {
		t.Errorf("defaultMirrors[npm] = %q, want https://registry.npmjs.org", defaultMirrors["npm"])
	}
}

func TestHandleMirrorUnknownRegistry(t *testing.T) {
	h := &Handlers{Mirrors: map[string]string{}}
	req := httptest.NewRequest(http.MethodGet, "/mirror/nope/x", nil)
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
