package pkgcache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/integrity"
	"github.com/nexus-registry/nexus/internal/store"
	"github.com/nexus-registry/nexus/internal/tarball"
)

// Cache is the read-through package cache: one per process, shared
// across ecosystems, dispatching to the ecosystem-specific Upstream for
// whatever it doesn't already have hydrated.
type Cache struct {
	Store      store.Store
	Upstreams  map[ecosystem.Ecosystem]Upstream
	Background *background.Runner
}

// New builds a Cache wired to the default public upstreams for every
// ecosystem except WinGet, which is served by internal/winget instead.
func New(s store.Store) *Cache {
	return &Cache{
		Store: s,
		Upstreams: map[ecosystem.Ecosystem]Upstream{
			ecosystem.NPM:    NewNPMUpstream(),
			ecosystem.JSR:    &NPMUpstream{Client: newUpstreamHTTPClient(), BaseURL: "https://npm.jsr.io"},
			ecosystem.GitHub: NewGitHubUpstream(),
			ecosystem.CDNJS:  NewCDNJSUpstream(),
			ecosystem.WP:     NewWordPressUpstream(),
		},
		Background: background.New(),
	}
}

// GetFile serves path out of key's hydrated package, pulling and
// extracting the whole upstream package on first miss; is_immutable
// tells the handler which Cache-Control policy to apply.
func (c *Cache) GetFile(ctx context.Context, key ecosystem.PackageKey, path string) ([]byte, bool, error) {
	immutable := ecosystem.Immutable(key)

	rawKey := ecosystem.RawKey(key, path)
	if data, err := c.Store.GetRaw(ctx, rawKey); err == nil {
		return data, immutable, nil
	} else if !errors.Is(err, store.ErrNotFound) && !apierr.Is(err, apierr.KindStorageUnavailable) {
		return nil, immutable, err
	}

	upstream, ok := c.Upstreams[key.Ecosystem]
	if !ok {
		return nil, immutable, apierr.BadRequest("no upstream configured for ecosystem %q", key.Ecosystem)
	}

	if !immutable {
		// A mutable key may have stale sibling files from a previous
		// version under the same "latest"-style ref; clear the whole
		// prefix before warming so a subsequent List reflects only the
		// new upstream.
		if err := c.Store.Remove(ctx, ecosystem.PackagePrefix(key)); err != nil {
			slog.Warn("pkgcache: remove before warm failed", "key", key.String(), "error", err)
		}
	}

	entries, err := upstream.Fetch(ctx, key)
	if err != nil {
		return nil, immutable, err
	}

	var requested []byte
	found := false
	for _, e := range entries {
		if e.Path == path {
			requested = e.Data
			found = true
			break
		}
	}

	c.warmAsync(key, entries)

	if !found {
		return nil, immutable, apierr.FileNotFound("path %q not found in %s", path, key.String())
	}
	return requested, immutable, nil
}

// List returns the PackageManifest for key, hydrating synchronously if
// it isn't already cached.
func (c *Cache) List(ctx context.Context, key ecosystem.PackageKey) (ecosystem.PackageManifest, error) {
	prefix := ecosystem.PackagePrefix(key)
	if raw, err := c.Store.GetMeta(ctx, prefix); err == nil {
		return decodeManifest(raw)
	} else if !errors.Is(err, store.ErrNotFound) && !apierr.Is(err, apierr.KindStorageUnavailable) {
		return ecosystem.PackageManifest{}, err
	}

	upstream, ok := c.Upstreams[key.Ecosystem]
	if !ok {
		return ecosystem.PackageManifest{}, apierr.BadRequest("no upstream configured for ecosystem %q", key.Ecosystem)
	}
	entries, err := upstream.Fetch(ctx, key)
	if err != nil {
		return ecosystem.PackageManifest{}, err
	}

	manifest := c.persistAll(ctx, key, entries)
	return manifest, nil
}

// HydrateAsync schedules a detached warmup of key, regardless of
// whether it's already cached — callers use this to pre-warm popular
// packages without blocking a request on it.
func (c *Cache) HydrateAsync(key ecosystem.PackageKey) {
	upstream, ok := c.Upstreams[key.Ecosystem]
	if !ok {
		return
	}
	c.Background.Go(func(ctx context.Context) {
		entries, err := upstream.Fetch(ctx, key)
		if err != nil {
			slog.Debug("pkgcache: hydrate_async fetch failed", "key", key.String(), "error", err)
			return
		}
		c.persistAll(ctx, key, entries)
	})
}

// warmAsync schedules concurrent persistence of every entry not already
// stored, followed by a terminal manifest write, detached from the
// request via Background so a client disconnect never cancels it.
func (c *Cache) warmAsync(key ecosystem.PackageKey, entries []tarball.Entry) {
	c.Background.Go(func(ctx context.Context) {
		c.persistAll(ctx, key, entries)
	})
}

// persistAll writes every entry under key's prefix (skipping ones that
// already exist), computes integrity for each entry it writes (entries
// that were already stored are listed without one), and writes the terminal
// manifest. Individual file failures are logged and omitted from the
// manifest rather than aborting the whole hydration.
func (c *Cache) persistAll(ctx context.Context, key ecosystem.PackageKey, entries []tarball.Entry) ecosystem.PackageManifest {
	type outcome struct {
		file ecosystem.FileEntry
		ok   bool
	}
	results := make(chan outcome, len(entries))

	for _, e := range entries {
		go func(e tarball.Entry) {
			rawKey := ecosystem.RawKey(key, e.Path)
			if _, err := c.Store.GetRaw(ctx, rawKey); err == nil {
				results <- outcome{file: ecosystem.FileEntry{Name: e.Path, Size: int64(len(e.Data))}, ok: true}
				return
			}
			if err := c.Store.PutRaw(ctx, rawKey, e.Data); err != nil {
				slog.Warn("pkgcache: persist failed", "key", rawKey, "error", err)
				results <- outcome{ok: false}
				return
			}
			results <- outcome{file: ecosystem.FileEntry{
				Name:      e.Path,
				Size:      int64(len(e.Data)),
				Integrity: integrity.SHA256(e.Data),
			}, ok: true}
		}(e)
	}

	files := make([]ecosystem.FileEntry, 0, len(entries))
	for range entries {
		if r := <-results; r.ok {
			files = append(files, r.file)
		}
	}

	manifest := ecosystem.PackageManifest{Files: files}
	if err := writeManifest(ctx, c.Store, ecosystem.PackagePrefix(key), manifest); err != nil {
		slog.Warn("pkgcache: manifest write failed", "key", key.String(), "error", err)
	}
	return manifest
}

func writeManifest(ctx context.Context, s store.Store, prefix string, manifest ecosystem.PackageManifest) error {
	return s.SetMeta(ctx, prefix, map[string]any{"files": manifest.Files})
}

func decodeManifest(raw map[string]any) (ecosystem.PackageManifest, error) {
	filesRaw, ok := raw["files"]
	if !ok {
		return ecosystem.PackageManifest{}, nil
	}
	encoded, err := json.Marshal(filesRaw)
	if err != nil {
		return ecosystem.PackageManifest{}, apierr.InvalidManifest(err, "re-encoding stored manifest")
	}
	var files []ecosystem.FileEntry
	if err := json.Unmarshal(encoded, &files); err != nil {
		return ecosystem.PackageManifest{}, apierr.InvalidManifest(err, "decoding stored manifest")
	}
	return ecosystem.PackageManifest{Files: files}, nil
}
