package handlers

import (
	"context"
	"encoding/json"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/pkgcache"
)

type npmPackageJSON struct {
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Browser json.RawMessage `json:"browser"`
}

// npmEntryFile selects browser -> main -> module -> index.js from the
// version's package.json, matching the registry metadata order the real
// CDN uses.
func npmEntryFile(ctx context.Context, cache *pkgcache.Cache, key ecosystem.PackageKey) (string, error) {
	raw, _, err := cache.GetFile(ctx, key, "package.json")
	if err != nil {
		return "", err
	}
	var pkg npmPackageJSON
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return "", apierr.InvalidManifest(err, "parsing package.json for %s", key)
	}
	if browser := decodeStringField(pkg.Browser); browser != "" {
		return browser, nil
	}
	if pkg.Main != "" {
		return pkg.Main, nil
	}
	if pkg.Module != "" {
		return pkg.Module, nil
	}
	return "index.js", nil
}

// decodeStringField narrows a field whose upstream shape is a tagged
// union (a bare string naming one entry file, or an object remapping
// several files) down to the single-entry-point case; the object case
// carries no overall default and is treated as absent.
func decodeStringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// jsrEntryFile reads the exports field (string, or the "." entry,
// following "default" if nested), falling back to mod.ts.
func jsrEntryFile(ctx context.Context, cache *pkgcache.Cache, key ecosystem.PackageKey) (string, error) {
	raw, _, err := cache.GetFile(ctx, key, "package.json")
	if err != nil {
		return "mod.ts", nil
	}
	var pkg struct {
		Exports json.RawMessage `json:"exports"`
	}
	if err := json.Unmarshal(raw, &pkg); err != nil || len(pkg.Exports) == 0 {
		return "mod.ts", nil
	}
	if entry := decodeExportsField(pkg.Exports); entry != "" {
		return entry, nil
	}
	return "mod.ts", nil
}

func decodeExportsField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	target, ok := m["."]
	if !ok {
		return ""
	}
	if s := decodeStringField(target); s != "" {
		return s
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(target, &nested); err == nil {
		if def, ok := nested["default"]; ok {
			return decodeStringField(def)
		}
	}
	return ""
}

// githubEntryFile tries README.md, then index.js, then gives up.
func githubEntryFile(ctx context.Context, cache *pkgcache.Cache, key ecosystem.PackageKey) (string, error) {
	if _, _, err := cache.GetFile(ctx, key, "README.md"); err == nil {
		return "README.md", nil
	}
	if _, _, err := cache.GetFile(ctx, key, "index.js"); err == nil {
		return "index.js", nil
	}
	return "", apierr.FileNotFound("no entry file (README.md or index.js) for %s", key)
}
