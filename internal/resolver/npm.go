package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
)

// npmAbbreviatedMetadata is the subset of the registry's package document
// the resolver needs: dist-tags and the published version set.
type npmAbbreviatedMetadata struct {
	DistTags map[string]string      `json:"dist-tags"`
	Versions map[string]interface{} `json:"versions"`
}

// NPM resolves npm package specs against the public npm registry.
type NPM struct {
	Client  *http.Client
	BaseURL string // default https://registry.npmjs.org
}

// NewNPM returns an NPM resolver pointed at the public registry.
func NewNPM() *NPM {
	return &NPM{Client: newHTTPClient(), BaseURL: "https://registry.npmjs.org"}
}

func (r *NPM) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	meta, err := fetchNPMStyleMetadata(ctx, r.Client, r.baseURL(), name)
	if err != nil {
		return ecosystem.PackageKey{}, err
	}
	return resolveFromNPMMetadata(ecosystem.NPM, name, spec, meta)
}

func (r *NPM) baseURL() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return "https://registry.npmjs.org"
}

// JSR resolves JSR package specs via JSR's npm-compatibility registry,
// which serves the same abbreviated-metadata document shape as npm
// itself.
type JSR struct {
	Client  *http.Client
	BaseURL string // default https://npm.jsr.io
}

// NewJSR returns a JSR resolver pointed at the npm-compat endpoint.
func NewJSR() *JSR {
	return &JSR{Client: newHTTPClient(), BaseURL: "https://npm.jsr.io"}
}

func (r *JSR) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	meta, err := fetchNPMStyleMetadata(ctx, r.Client, r.baseURL(), name)
	if err != nil {
		return ecosystem.PackageKey{}, err
	}
	return resolveFromNPMMetadata(ecosystem.JSR, name, spec, meta)
}

func (r *JSR) baseURL() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return "https://npm.jsr.io"
}

// fetchNPMStyleMetadata fetches the abbreviated package document from an
// npm-protocol-compatible registry. Scoped names (@scope/name) must have
// their slash percent-encoded per the registry API convention.
func fetchNPMStyleMetadata(ctx context.Context, client *http.Client, baseURL, name string) (*npmAbbreviatedMetadata, error) {
	escaped := strings.ReplaceAll(name, "/", "%2f")
	reqURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), escaped)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(err, "fetching metadata for %q", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apierr.PackageNotFound("package %q not found upstream", name)
	default:
		return nil, apierr.UpstreamUnavailable(nil, "registry returned %d for %q", resp.StatusCode, name)
	}

	var meta npmAbbreviatedMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, apierr.UpstreamUnavailable(err, "decoding metadata for %q", name)
	}
	return &meta, nil
}

func resolveFromNPMMetadata(eco ecosystem.Ecosystem, name, spec string, meta *npmAbbreviatedMetadata) (ecosystem.PackageKey, error) {
	versions := make([]string, 0, len(meta.Versions))
	for v := range meta.Versions {
		versions = append(versions, v)
	}

	// A dist-tag spec (e.g. "latest", "next") resolves directly if present.
	if spec != "" {
		if tagged, ok := meta.DistTags[spec]; ok {
			return ecosystem.PackageKey{Ecosystem: eco, Name: name, Version: tagged}, nil
		}
	}

	resolved, ok := maxSatisfying(versions, spec, meta.DistTags["latest"])
	if !ok {
		return ecosystem.PackageKey{}, apierr.VersionNotFound("no version of %q satisfies %q", name, spec)
	}
	return ecosystem.PackageKey{Ecosystem: eco, Name: name, Version: resolved}, nil
}
