// Package pkgcache is the read-through, opportunistically-warming cache
// over one hydrated package version: the hot path serves a single file
// out of storage on hit, and on miss pulls the whole upstream package
// once, returns the requested file immediately, and persists the rest in
// the background.
package pkgcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/tarball"
)

// Upstream fetches every file belonging to one resolved package version,
// already flattened into relative-path entries with any archive root
// stripped. Implementations are ecosystem-specific: npm/JSR pull a
// tarball, GitHub pulls a codeload archive, WordPress pulls a zip export,
// and cdnjs has no single-archive source and assembles entries from
// per-file requests.
type Upstream interface {
	Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error)
}

func newUpstreamHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: 2 * time.Minute}
}

func fetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apierr.PackageNotFound("upstream 404 at %s", url)
	default:
		return nil, apierr.UpstreamUnavailable(nil, "upstream returned %d at %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(err, "reading body from %s", url)
	}
	return data, nil
}

// --- npm / JSR: full version metadata document carries dist.tarball ---

type npmVersionDoc struct {
	Dist struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
}

// NPMUpstream fetches a resolved npm or JSR version's tarball. BaseURL
// points at the registry's package-document endpoint (the same host the
// resolver used), and the per-version document's dist.tarball field is
// what's actually downloaded.
type NPMUpstream struct {
	Client  *http.Client
	BaseURL string
}

// NewNPMUpstream returns an Upstream for the public npm registry.
func NewNPMUpstream() *NPMUpstream {
	return &NPMUpstream{Client: newUpstreamHTTPClient(), BaseURL: "https://registry.npmjs.org"}
}

func (u *NPMUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	escaped := strings.ReplaceAll(key.Name, "/", "%2f")
	docURL := fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(u.baseURL(), "/"), escaped, key.Version)

	docBytes, err := fetchJSONDoc(ctx, u.Client, docURL)
	if err != nil {
		return nil, err
	}
	tarballURL := docBytes.Dist.Tarball
	if tarballURL == "" {
		return nil, apierr.InvalidManifest(nil, "no dist.tarball for %s", key)
	}

	gz, err := fetchBytes(ctx, u.Client, tarballURL)
	if err != nil {
		return nil, err
	}
	entries, err := tarball.Extract(bytes.NewReader(gz))
	if err != nil {
		return nil, apierr.InvalidManifest(err, "extracting tarball for %s", key)
	}
	return entries, nil
}

func (u *NPMUpstream) baseURL() string {
	if u.BaseURL != "" {
		return u.BaseURL
	}
	return "https://registry.npmjs.org"
}

func fetchJSONDoc(ctx context.Context, client *http.Client, url string) (npmVersionDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return npmVersionDoc{}, fmt.Errorf("building version-doc request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return npmVersionDoc{}, apierr.UpstreamUnavailable(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return npmVersionDoc{}, apierr.PackageNotFound("version doc not found at %s", url)
	default:
		return npmVersionDoc{}, apierr.UpstreamUnavailable(nil, "upstream returned %d at %s", resp.StatusCode, url)
	}

	var doc npmVersionDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return npmVersionDoc{}, apierr.InvalidManifest(err, "decoding version doc at %s", url)
	}
	return doc, nil
}
