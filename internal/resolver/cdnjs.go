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

type cdnjsLibraryMetadata struct {
	Versions []string `json:"versions"`
	Filename string   `json:"filename"`
}

// CDNJS resolves cdnjs library specs against the cdnjs library API.
type CDNJS struct {
	Client  *http.Client
	BaseURL string // default https://api.cdnjs.com/libraries
}

// NewCDNJS returns a CDNJS resolver pointed at the public API.
func NewCDNJS() *CDNJS {
	return &CDNJS{Client: newHTTPClient(), BaseURL: "https://api.cdnjs.com/libraries"}
}

// LibraryMetadata fetches the raw cdnjs library document, exposed
// separately from Resolve because the entry-file selector needs the
// library's default filename alongside the resolved version.
func (r *CDNJS) LibraryMetadata(ctx context.Context, name string) (versions []string, defaultFilename string, err error) {
	reqURL := fmt.Sprintf("%s/%s?fields=versions,filename", strings.TrimSuffix(r.baseURL(), "/"), name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building cdnjs request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, "", apierr.UpstreamUnavailable(err, "fetching cdnjs metadata for %q", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, "", apierr.PackageNotFound("cdnjs library %q not found", name)
	default:
		return nil, "", apierr.UpstreamUnavailable(nil, "cdnjs returned %d for %q", resp.StatusCode, name)
	}

	var meta cdnjsLibraryMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, "", apierr.UpstreamUnavailable(err, "decoding cdnjs metadata for %q", name)
	}
	return meta.Versions, meta.Filename, nil
}

func (r *CDNJS) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	versions, _, err := r.LibraryMetadata(ctx, name)
	if err != nil {
		return ecosystem.PackageKey{}, err
	}
	resolved, ok := maxSatisfying(versions, spec, "")
	if !ok {
		return ecosystem.PackageKey{}, apierr.VersionNotFound("no version of %q satisfies %q", name, spec)
	}
	return ecosystem.PackageKey{Ecosystem: ecosystem.CDNJS, Name: name, Version: resolved}, nil
}

func (r *CDNJS) baseURL() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return "https://api.cdnjs.com/libraries"
}
