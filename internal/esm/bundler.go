// Package esm bundles a package's entry file into a single ES module,
// the way the CDN's "+esm" endpoint does: every file the entry imports
// is resolved against the package cache and inlined, while bare
// (non-relative) imports are left as external and rewritten to point
// back at this CDN's own npm endpoint.
package esm

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/pkgcache"
)

const virtualNamespace = "nexus-virtual-pkg"

// Bundler builds ESM bundles backed by a pkgcache.Cache instead of a
// filesystem: esbuild's OnLoad plugin hook fetches each file lazily
// through GetFile, so only files actually imported are ever pulled.
type Bundler struct {
	Cache *pkgcache.Cache
}

// New returns a Bundler over cache.
func New(cache *pkgcache.Cache) *Bundler {
	return &Bundler{Cache: cache}
}

type packageJSON struct {
	Dependencies     map[string]string `json:"dependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Build bundles entryPath within key's package tree and returns the
// resulting ES module source, with bare imports rewritten to this CDN's
// own "+esm" endpoint at their resolved version.
func (b *Bundler) Build(ctx context.Context, key ecosystem.PackageKey, entryPath string) (string, error) {
	deps, err := b.dependencyVersions(ctx, key)
	if err != nil {
		return "", err
	}

	virtualRoot := fmt.Sprintf("/%s/%s/%s", key.Name, key.Version, strings.TrimPrefix(entryPath, "/"))

	plugin := api.Plugin{
		Name: "nexus-virtual-fs",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint {
					return api.OnResolveResult{Path: virtualRoot, Namespace: virtualNamespace}, nil
				}
				if strings.HasPrefix(args.Path, "/") || strings.HasPrefix(args.Path, ".") {
					resolved := path.Join(path.Dir(args.Importer), args.Path)
					return api.OnResolveResult{Path: resolved, Namespace: virtualNamespace}, nil
				}
				// Bare specifier: left external, rewritten post-build.
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				relPath := strings.TrimPrefix(strings.TrimPrefix(args.Path, "/"+key.Name+"/"+key.Version+"/"), "/")
				data, _, err := b.Cache.GetFile(ctx, key, relPath)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				contents := string(data)
				loader := loaderFor(relPath)
				return api.OnLoadResult{Contents: &contents, Loader: loader}, nil
			})
		},
	}

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{virtualRoot},
		Bundle:      true,
		Write:       false,
		Format:      api.FormatESModule,
		Platform:    api.PlatformBrowser,
		Target:      api.ESNext,
		LogLevel:    api.LogLevelSilent,
		Plugins:     []api.Plugin{plugin},
	})
	if len(result.Errors) > 0 {
		return "", apierr.InvalidManifest(nil, "bundling %s: %s", key, result.Errors[0].Text)
	}
	if len(result.OutputFiles) == 0 {
		return "", apierr.InvalidManifest(nil, "bundling %s produced no output", key)
	}

	return rewriteExternalImports(string(result.OutputFiles[0].Contents), deps), nil
}

func loaderFor(relPath string) api.Loader {
	switch strings.ToLower(path.Ext(relPath)) {
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	case ".css":
		return api.LoaderCSS
	default:
		return api.LoaderJS
	}
}

// dependencyVersions merges dependencies and peerDependencies (the
// peer-inclusive heuristic: a peer import is resolved the same as a
// direct dependency, since whatever install produced this package tree
// necessarily satisfied its peers too) and resolves each range to a
// concrete version syntactically, with no upstream round-trip: the
// bundler is a pure in-memory transformation over already-cached bytes.
func (b *Bundler) dependencyVersions(ctx context.Context, key ecosystem.PackageKey) (map[string]string, error) {
	raw, _, err := b.Cache.GetFile(ctx, key, "package.json")
	if err != nil {
		return map[string]string{}, nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return map[string]string{}, nil
	}

	merged := map[string]string{}
	for name, rng := range pkg.PeerDependencies {
		merged[name] = rng
	}
	for name, rng := range pkg.Dependencies {
		merged[name] = rng
	}

	resolved := map[string]string{}
	for name, rng := range merged {
		if v := rangeBoundVersion(rng); v != "" {
			resolved[name] = v
		}
	}
	return resolved, nil
}

type semverTuple struct {
	major, minor, patch int
}

func (v semverTuple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

var versionTokenRe = regexp.MustCompile(`^[vV]?(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

func parseVersionToken(s string) (semverTuple, bool) {
	m := versionTokenRe.FindStringSubmatch(s)
	if m == nil {
		return semverTuple{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return semverTuple{major, minor, patch}, true
}

// caretUpper returns the exclusive upper bound npm's "^" operator
// implies: the next major, unless major is 0, in which case the next
// minor, unless that's also 0, in which case the next patch.
func caretUpper(v semverTuple) semverTuple {
	switch {
	case v.major > 0:
		return semverTuple{v.major + 1, 0, 0}
	case v.minor > 0:
		return semverTuple{0, v.minor + 1, 0}
	default:
		return semverTuple{0, 0, v.patch + 1}
	}
}

// tildeUpper returns the exclusive upper bound npm's "~" operator
// implies: the next minor.
func tildeUpper(v semverTuple) semverTuple {
	return semverTuple{v.major, v.minor + 1, 0}
}

// decrementOne steps an exclusive upper bound down by one minor or
// major component, per spec.md §4.8's "upper bound minus one
// minor/major" phrasing: minor is preferred when non-zero, otherwise
// major.
func decrementOne(v semverTuple) semverTuple {
	switch {
	case v.minor > 0:
		return semverTuple{v.major, v.minor - 1, 0}
	case v.major > 0:
		return semverTuple{v.major - 1, 0, 0}
	default:
		return v
	}
}

// rangeBoundVersion computes a concrete version from a semver range
// string without any network lookup: a declared upper bound from "^",
// "~", or "<" resolves to that bound minus one minor/major, and a "<="
// bound is used as is; otherwise the range's own lower bound
// ("min_version") is used. An
// unparseable or wildcard range ("*", "", "latest", "x") yields "",
// left for the caller to treat as unresolved.
func rangeBoundVersion(rng string) string {
	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "*" || rng == "latest" || rng == "x" {
		return ""
	}

	first := strings.TrimSpace(strings.SplitN(rng, "||", 2)[0])
	var upper, lower *semverTuple
	for _, seg := range strings.Fields(first) {
		op, verStr := splitRangeOp(seg)
		v, ok := parseVersionToken(verStr)
		if !ok {
			continue
		}
		switch op {
		case "^":
			u := decrementOne(caretUpper(v))
			upper = &u
		case "~":
			u := decrementOne(tildeUpper(v))
			upper = &u
		case "<":
			u := decrementOne(v)
			upper = &u
		case "<=":
			upper = &v
		default: // ">=", ">", "=", or a bare version
			lower = &v
		}
	}

	if upper != nil {
		return upper.String()
	}
	if lower != nil {
		return lower.String()
	}
	return ""
}

func splitRangeOp(seg string) (op, version string) {
	for _, candidate := range []string{"^", "~", "<=", ">=", "<", ">", "="} {
		if strings.HasPrefix(seg, candidate) {
			return candidate, strings.TrimSpace(seg[len(candidate):])
		}
	}
	return "", seg
}

var importFromRe = regexp.MustCompile(`(from\s+|import\s+)"([^"./][^"]*)"`)

// rewriteExternalImports points every bare import at this CDN's own
// "+esm" route, pinned to the version resolved for that dependency (or
// left unversioned if resolution failed, so the request re-resolves
// "latest" on its own).
func rewriteExternalImports(code string, deps map[string]string) string {
	return importFromRe.ReplaceAllStringFunc(code, func(match string) string {
		sub := importFromRe.FindStringSubmatch(match)
		keyword, spec := sub[1], sub[2]
		target := spec
		if v, ok := deps[spec]; ok {
			target = spec + "@" + v
		}
		return fmt.Sprintf(`%s"/cdn/npm/%s/+esm"`, keyword, target)
	})
}
