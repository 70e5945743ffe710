package winget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/store"
)

func newTestManifestIndex(t *testing.T, srv *httptest.Server) *Index {
	t.Helper()
	return &Index{
		Store:      store.NewMemory(),
		Background: background.New(),
		HTTPClient: srv.Client(),
		Owner:      "microsoft",
		Repo:       "winget-pkgs",
		Branch:     "main",
		RawBaseURL: srv.URL,
	}
}

func TestFetchManifestParsesAndCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("PackageIdentifier: Microsoft.VisualStudioCode\nPackageVersion: 1.85.0\n"))
	}))
	defer srv.Close()

	idx := newTestManifestIndex(t, srv)
	path := "m/Microsoft/VisualStudioCode/1.85.0/Microsoft.VisualStudioCode.yaml"

	m, err := idx.FetchManifest(context.Background(), path)
	if err != nil {
		t.Fatalf("FetchManifest: %v", err)
	}
	if m["PackageIdentifier"] != "Microsoft.VisualStudioCode" {
		t.Errorf("unexpected manifest contents: %v", m)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}

	if _, err := idx.FetchManifest(context.Background(), path); err != nil {
		t.Fatalf("second FetchManifest: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected cached read to avoid a second upstream hit, got %d hits", hits)
	}
}

func TestFetchManifestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	idx := newTestManifestIndex(t, srv)
	_, err := idx.FetchManifest(context.Background(), "m/Does/NotExist/1.0.0/x.yaml")
	if !apierr.Is(err, apierr.KindFileNotFound) {
		t.Fatalf("expected FileNotFound, got %v", err)
	}
}

func TestFetchManifestInvalidYAML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not: valid: yaml: [")) // malformed mapping
	}))
	defer srv.Close()

	idx := newTestManifestIndex(t, srv)
	_, err := idx.FetchManifest(context.Background(), "m/Bad/Manifest/1.0.0/x.yaml")
	if !apierr.Is(err, apierr.KindInvalidManifest) {
		t.Fatalf("expected InvalidManifest, got %v", err)
	}
}
