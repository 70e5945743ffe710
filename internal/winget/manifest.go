package winget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/store"
)

// Manifest is a loosely-typed WinGet manifest document (version,
// installer, locale, or the combined single-file form) — the schema is
// large and versioned upstream, so callers navigate it as a generic map
// rather than a fixed struct.
type Manifest map[string]any

// FetchManifest returns the parsed YAML manifest at a path relative to the
// repository's manifests/ directory
// (e.g. "m/Microsoft/VisualStudioCode/1.85.0/Microsoft.VisualStudioCode.yaml"),
// caching the raw bytes indefinitely: once the upstream workflow writes a
// version's manifest files, that exact path never changes.
func (idx *Index) FetchManifest(ctx context.Context, path string) (Manifest, error) {
	key := ecosystem.WinGetFileKey(idx.repoKey(), path)

	if cached, err := idx.Store.GetRaw(ctx, key); err == nil {
		var m Manifest
		if err := yaml.Unmarshal(cached, &m); err != nil {
			return nil, apierr.InvalidManifest(err, "decoding cached manifest %q", path)
		}
		return m, nil
	} else if !errors.Is(err, store.ErrNotFound) && !apierr.Is(err, apierr.KindStorageUnavailable) {
		return nil, err
	}

	rawURL := fmt.Sprintf("%s/%s/%s/%s/manifests/%s", idx.RawBaseURL, idx.Owner, idx.Repo, idx.Branch, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building manifest request: %w", err)
	}

	resp, err := idx.HTTPClient.Do(req)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(err, "fetching manifest %q", path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apierr.FileNotFound("manifest %q not found", path)
	default:
		return nil, apierr.UpstreamUnavailable(nil, "upstream returned %d for manifest %q", resp.StatusCode, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(err, "reading manifest %q", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, apierr.InvalidManifest(err, "parsing manifest %q", path)
	}

	if err := idx.Store.PutRaw(ctx, key, data); err != nil {
		slog.Warn("winget: manifest cache write failed", "path", path, "error", err)
	}

	return m, nil
}
