package pkgcache

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/tarball"
)

// GitHubUpstream fetches a repository's codeload archive for a resolved
// ref (tag, branch, or commit SHA) and extracts it the same way as an
// npm tarball.
type GitHubUpstream struct {
	Client  *http.Client
	BaseURL string // default https://codeload.github.com
}

// NewGitHubUpstream returns an Upstream backed by GitHub's codeload
// archive endpoint.
func NewGitHubUpstream() *GitHubUpstream {
	return &GitHubUpstream{Client: newUpstreamHTTPClient(), BaseURL: "https://codeload.github.com"}
}

func (u *GitHubUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	owner, repo, ok := strings.Cut(key.Name, "/")
	if !ok {
		return nil, apierr.BadRequest("github package name must be \"owner/repo\", got %q", key.Name)
	}

	archiveURL := fmt.Sprintf("%s/%s/%s/tar.gz/%s", strings.TrimSuffix(u.baseURL(), "/"), owner, repo, key.Version)
	gz, err := fetchBytes(ctx, u.Client, archiveURL)
	if err != nil {
		return nil, err
	}

	entries, err := tarball.Extract(bytes.NewReader(gz))
	if err != nil {
		return nil, apierr.InvalidManifest(err, "extracting codeload archive for %s", key)
	}
	return entries, nil
}

func (u *GitHubUpstream) baseURL() string {
	if u.BaseURL != "" {
		return u.BaseURL
	}
	return "https://codeload.github.com"
}
