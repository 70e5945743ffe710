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

// WordPressUpstream downloads the zip export WordPress.org publishes for
// a plugin or theme at a given ref (a "tags/<v>" path form resolves to
// a numbered release zip; "trunk" resolves to the rolling latest).
type WordPressUpstream struct {
	Client  *http.Client
	BaseURL string // default https://downloads.wordpress.org
}

// NewWordPressUpstream returns an Upstream for the public WordPress.org
// plugin/theme directory.
func NewWordPressUpstream() *WordPressUpstream {
	return &WordPressUpstream{Client: newUpstreamHTTPClient(), BaseURL: "https://downloads.wordpress.org"}
}

func (u *WordPressUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	kind, slug, ok := strings.Cut(key.Name, "/")
	if !ok {
		return nil, apierr.BadRequest("wordpress package name must be \"plugins/<slug>\" or \"themes/<slug>\", got %q", key.Name)
	}

	var zipURL string
	switch {
	case key.Version == "trunk":
		zipURL = fmt.Sprintf("%s/%s/%s.zip", strings.TrimSuffix(u.baseURL(), "/"), kind, slug)
	default:
		zipURL = fmt.Sprintf("%s/%s/%s.%s.zip", strings.TrimSuffix(u.baseURL(), "/"), kind, slug, key.Version)
	}

	data, err := fetchBytes(ctx, u.Client, zipURL)
	if err != nil {
		return nil, err
	}

	entries, err := tarball.ExtractZip(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apierr.InvalidManifest(err, "extracting wordpress zip for %s", key)
	}
	return entries, nil
}

func (u *WordPressUpstream) baseURL() string {
	if u.BaseURL != "" {
		return u.BaseURL
	}
	return "https://downloads.wordpress.org"
}
