package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexus-registry/nexus/internal/apierr"
)

func githubServer(t *testing.T, versions []string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(jsdelivrGitHubVersions{Versions: versions})
	}))
}

func TestGitHubResolveCommitSHABypassesFetch(t *testing.T) {
	r := &GitHub{Client: http.DefaultClient, BaseURL: "http://unreachable.invalid"}
	sha := "0123456789abcdef0123456789abcdef01234567"
	key, err := r.Resolve(context.Background(), "owner/repo", sha)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != sha {
		t.Errorf("Version = %q, want %q", key.Version, sha)
	}
}

func TestGitHubResolveTagVersion(t *testing.T) {
	srv := githubServer(t, []string{"1.0.0", "2.0.0"}, http.StatusOK)
	defer srv.Close()

	r := &GitHub{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "owner/repo", "2.0.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", key.Version)
	}
}

func TestGitHubResolveBranchPassesThrough(t *testing.T) {
	srv := githubServer(t, []string{"1.0.0", "2.0.0"}, http.StatusOK)
	defer srv.Close()

	r := &GitHub{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "owner/repo", "main")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "main" {
		t.Errorf("Version = %q, want passthrough \"main\"", key.Version)
	}
}

func TestGitHubResolveNoSpecPicksHighest(t *testing.T) {
	srv := githubServer(t, []string{"1.0.0", "2.5.0", "2.0.0"}, http.StatusOK)
	defer srv.Close()

	r := &GitHub{Client: srv.Client(), BaseURL: srv.URL}
	key, err := r.Resolve(context.Background(), "owner/repo", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "2.5.0" {
		t.Errorf("Version = %q, want 2.5.0", key.Version)
	}
}

func TestGitHubResolveBadName(t *testing.T) {
	r := &GitHub{Client: http.DefaultClient}
	_, err := r.Resolve(context.Background(), "not-owner-slash-repo", "")
	if !apierr.Is(err, apierr.KindBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestGitHubResolveNotFound(t *testing.T) {
	srv := githubServer(t, nil, http.StatusNotFound)
	defer srv.Close()

	r := &GitHub{Client: srv.Client(), BaseURL: srv.URL}
	_, err := r.Resolve(context.Background(), "owner/repo", "")
	if !apierr.Is(err, apierr.KindPackageNotFound) {
		t.Fatalf("expected PackageNotFound, got %v", err)
	}
}
