package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexus-registry/nexus/internal/apierr"
)

func npmServer(t *testing.T, body npmAbbreviatedMetadata, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

func TestNPMResolveConcreteVersion(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{
		DistTags: map[string]string{"latest": "2.0.0"},
		Versions: map[string]interface{}{"1.0.0": nil, "2.0.0": nil},
	}, http.StatusOK)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "left-pad", "1.0.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", key.Version)
	}
}

func TestNPMResolveDistTag(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{
		DistTags: map[string]string{"latest": "2.0.0", "next": "3.0.0-beta.1"},
		Versions: map[string]interface{}{"1.0.0": nil, "2.0.0": nil, "3.0.0-beta.1": nil},
	}, http.StatusOK)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "left-pad", "next")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "3.0.0-beta.1" {
		t.Errorf("Version = %q, want 3.0.0-beta.1", key.Version)
	}
}

func TestNPMResolveRange(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{
		DistTags: map[string]string{"latest": "1.5.0"},
		Versions: map[string]interface{}{"1.2.0": nil, "1.3.0": nil, "1.5.0": nil, "2.0.0": nil},
	}, http.StatusOK)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "foo", "^1.0.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "1.5.0" {
		t.Errorf("Version = %q, want 1.5.0 (highest satisfying ^1.0.0)", key.Version)
	}
}

func TestNPMResolveEmptySpecFallsBackToLatestTag(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{
		DistTags: map[string]string{"latest": "1.3.0"},
		Versions: map[string]interface{}{"1.2.0": nil, "1.3.0": nil, "1.4.0-rc.1": nil},
	}, http.StatusOK)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "foo", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "1.3.0" {
		t.Errorf("Version = %q, want the dist-tags.latest value 1.3.0", key.Version)
	}
}

func TestNPMResolveNotFound(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{}, http.StatusNotFound)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	_, err := r.Resolve(context.Background(), "nope", "")
	if !apierr.Is(err, apierr.KindPackageNotFound) {
		t.Fatalf("expected PackageNotFound, got %v", err)
	}
}

func TestNPMResolveUpstreamUnavailable(t *testing.T) {
	srv := npmServer(t, npmAbbreviatedMetadata{}, http.StatusInternalServerError)
	defer srv.Close()

	r := &NPM{Client: srv.Client(), BaseURL: srv.URL}
	_, err := r.Resolve(context.Background(), "foo", "")
	if !apierr.Is(err, apierr.KindUpstreamUnavailable) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
}
