package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
)

// cdnListing is the directory-listing response body.
type cdnListing struct {
	Name    string                `json:"name"`
	Version string                `json:"version"`
	Path    string                `json:"path"`
	Files   []ecosystem.FileEntry `json:"files"`
}

func (h *Handlers) handleNPM(w http.ResponseWriter, r *http.Request) {
	h.handleScopedEcosystem(w, r, ecosystem.NPM, "/cdn/npm/")
}

func (h *Handlers) handleJSR(w http.ResponseWriter, r *http.Request) {
	h.handleScopedEcosystem(w, r, ecosystem.JSR, "/cdn/jsr/")
}

// handleScopedEcosystem serves npm and JSR, whose path grammar is
// identical: "@scope/name[@spec][/path]" or "name[@spec][/path]".
func (h *Handlers) handleScopedEcosystem(w http.ResponseWriter, r *http.Request, eco ecosystem.Ecosystem, prefix string) {
	rest, trailingSlash := splitCDNPath(prefix, r.URL.Path)
	name, spec, subPath, isESM, err := parseScopedPath(rest)
	if err != nil {
		writeError(w, err)
		return
	}

	key, err := h.resolve(r.Context(), eco, name, spec)
	if err != nil {
		writeError(w, err)
		return
	}

	if isESM {
		if eco != ecosystem.NPM {
			writeError(w, apierr.BadRequest("+esm is only supported for npm"))
			return
		}
		h.serveESM(w, r, key)
		return
	}

	h.serveFileOrListing(w, r, key, subPath, trailingSlash, ecosystem.Immutable(key))
}

func (h *Handlers) handleGitHub(w http.ResponseWriter, r *http.Request) {
	rest, trailingSlash := splitCDNPath("/cdn/gh/", r.URL.Path)
	segments := strings.Split(rest, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		writeError(w, apierr.BadRequest("github path must be owner/repo[@spec][/path], got %q", rest))
		return
	}
	name, spec := splitNameSpec(segments[0] + "/" + segments[1])
	subPath := strings.Join(segments[2:], "/")

	key, err := h.resolve(r.Context(), ecosystem.GitHub, name, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serveFileOrListing(w, r, key, subPath, trailingSlash, ecosystem.Immutable(key))
}

func (h *Handlers) handleCDNJS(w http.ResponseWriter, r *http.Request) {
	rest, trailingSlash := splitCDNPath("/cdn/cdnjs/", r.URL.Path)
	if rest == "" {
		writeError(w, apierr.BadRequest("missing cdnjs library name"))
		return
	}
	segments := strings.Split(rest, "/")
	name, spec := splitNameSpec(segments[0])
	subPath := strings.Join(segments[1:], "/")

	// "library/version/path" form: no "@" in the first segment, and the
	// next segment looks like a version rather than a file name.
	if spec == "" && len(segments) > 1 && looksLikeVersion(segments[1]) {
		spec = segments[1]
		subPath = strings.Join(segments[2:], "/")
	}

	key, err := h.resolve(r.Context(), ecosystem.CDNJS, name, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serveFileOrListing(w, r, key, subPath, trailingSlash, ecosystem.Immutable(key))
}

func looksLikeVersion(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func (h *Handlers) handleWordPress(w http.ResponseWriter, r *http.Request) {
	rest, trailingSlash := splitCDNPath("/cdn/wp/", r.URL.Path)
	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		writeError(w, apierr.BadRequest("wordpress path must be plugins|themes/<slug>/..., got %q", rest))
		return
	}
	kind, slug := segments[0], segments[1]

	var spec, pathForm, subPath string
	switch kind {
	case "plugins":
		if len(segments) < 3 {
			writeError(w, apierr.BadRequest("wordpress plugin path missing trunk/tags segment"))
			return
		}
		switch segments[2] {
		case "trunk":
			spec, pathForm = "trunk", "trunk"
			subPath = strings.Join(segments[3:], "/")
		case "tags":
			if len(segments) < 4 {
				writeError(w, apierr.BadRequest("wordpress tags path missing version"))
				return
			}
			spec = segments[3]
			pathForm = "tags/" + spec
			subPath = strings.Join(segments[4:], "/")
		default:
			writeError(w, apierr.BadRequest("wordpress plugin path must use trunk or tags/<version>"))
			return
		}
	case "themes":
		if len(segments) < 3 {
			writeError(w, apierr.BadRequest("wordpress theme path missing version"))
			return
		}
		spec = segments[2]
		pathForm = spec
		subPath = strings.Join(segments[3:], "/")
	default:
		writeError(w, apierr.BadRequest("unknown wordpress kind %q", kind))
		return
	}

	wpResolver, ok := h.Resolvers[ecosystem.WP]
	if !ok {
		writeError(w, apierr.BadRequest("no resolver configured for wordpress"))
		return
	}
	key, err := wpResolver.Resolve(r.Context(), kind+"/"+slug, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serveFileOrListing(w, r, key, subPath, trailingSlash, ecosystem.IsWordPressImmutable(pathForm))
}

// serveFileOrListing implements the file-vs-listing branch and the
// error-to-listing fallback shared by every ecosystem.
func (h *Handlers) serveFileOrListing(w http.ResponseWriter, r *http.Request, key ecosystem.PackageKey, subPath string, trailingSlash, immutable bool) {
	ctx := r.Context()
	isRoot := subPath == ""

	if isRoot && trailingSlash {
		h.serveListing(w, r, key, "", immutable)
		return
	}

	path := subPath
	if isRoot {
		entry, err := h.entryFile(ctx, key)
		if err != nil {
			writeError(w, err)
			return
		}
		path = entry
	}

	data, _, err := h.Cache.GetFile(ctx, key, path)
	if err != nil {
		if apierr.Is(err, apierr.KindFileNotFound) {
			h.serveListingFallback(w, r, key, path, immutable)
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(path))
	w.Header().Set("Cache-Control", cacheControl(immutable))
	w.Write(data)
}

func (h *Handlers) entryFile(ctx context.Context, key ecosystem.PackageKey) (string, error) {
	switch key.Ecosystem {
	case ecosystem.NPM:
		return npmEntryFile(ctx, h.Cache, key)
	case ecosystem.JSR:
		return jsrEntryFile(ctx, h.Cache, key)
	case ecosystem.GitHub:
		return githubEntryFile(ctx, h.Cache, key)
	case ecosystem.CDNJS:
		_, filename, err := h.CDNJS.LibraryMetadata(ctx, key.Name)
		if err != nil {
			return "", err
		}
		if filename == "" {
			return "", apierr.FileNotFound("cdnjs library %q has no default filename", key.Name)
		}
		return filename, nil
	default:
		return "", apierr.BadRequest("no entry-file rule for ecosystem %q", key.Ecosystem)
	}
}

func (h *Handlers) serveListing(w http.ResponseWriter, r *http.Request, key ecosystem.PackageKey, atPath string, immutable bool) {
	manifest, err := h.Cache.List(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeListing(w, key, atPath, manifest.Files, immutable)
}

// serveListingFallback answers a file-not-found for a non-root path with
// a prefix-filtered listing, per the error-to-listing fallback rule.
func (h *Handlers) serveListingFallback(w http.ResponseWriter, r *http.Request, key ecosystem.PackageKey, subPath string, immutable bool) {
	manifest, err := h.Cache.List(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	prefix := strings.TrimSuffix(subPath, "/") + "/"
	var filtered []ecosystem.FileEntry
	for _, f := range manifest.Files {
		if strings.HasPrefix(f.Name, prefix) {
			filtered = append(filtered, f)
		}
	}
	if len(filtered) == 0 {
		writeError(w, apierr.FileNotFound("path %q not found in %s", subPath, key.String()))
		return
	}
	writeListing(w, key, subPath, filtered, immutable)
}

func writeListing(w http.ResponseWriter, key ecosystem.PackageKey, atPath string, files []ecosystem.FileEntry, immutable bool) {
	w.Header().Set("Cache-Control", cacheControl(immutable))
	writeJSON(w, cdnListing{Name: key.Name, Version: key.Version, Path: atPath, Files: files})
}

func (h *Handlers) serveESM(w http.ResponseWriter, r *http.Request, key ecosystem.PackageKey) {
	ctx := r.Context()
	entry, err := npmEntryFile(ctx, h.Cache, key)
	if err != nil {
		writeError(w, err)
		return
	}
	bundled, err := h.ESM.Build(ctx, key, entry)
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "bundling %s", key))
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", cacheControl(ecosystem.Immutable(key)))
	w.Write([]byte(bundled))
}

func (h *Handlers) resolve(ctx context.Context, eco ecosystem.Ecosystem, name, spec string) (ecosystem.PackageKey, error) {
	r, ok := h.Resolvers[eco]
	if !ok {
		return ecosystem.PackageKey{}, apierr.BadRequest("no resolver configured for %q", eco)
	}
	return r.Resolve(ctx, name, spec)
}

// splitCDNPath strips prefix from the raw request path (never the
// mux-normalized path) and reports whether the original URL ended in a
// trailing slash after the package specifier; any run of trailing
// slashes counts and is trimmed from rest.
func splitCDNPath(prefix, rawPath string) (rest string, trailingSlash bool) {
	trimmed := strings.TrimPrefix(rawPath, prefix)
	trailingSlash = strings.HasSuffix(rawPath, "/") && trimmed != ""
	return strings.Trim(trimmed, "/"), trailingSlash
}

// parseScopedPath splits "@scope/name[@spec][/path]" or
// "name[@spec][/path]" into its parts, recognizing the root "+esm"
// virtual path.
func parseScopedPath(rest string) (name, spec, subPath string, isESM bool, err error) {
	if rest == "" {
		return "", "", "", false, apierr.BadRequest("missing package name")
	}
	segments := strings.Split(rest, "/")

	idx := 1
	if strings.HasPrefix(segments[0], "@") {
		if len(segments) < 2 {
			return "", "", "", false, apierr.BadRequest("scoped package missing name: %q", rest)
		}
		idx = 2
	}

	nameAndSpec := strings.Join(segments[:idx], "/")
	name, spec = splitNameSpec(nameAndSpec)
	subPath = strings.Join(segments[idx:], "/")
	if subPath == "+esm" {
		return name, spec, "", true, nil
	}
	return name, spec, subPath, false, nil
}

// splitNameSpec separates a trailing "@spec" from a package name. A
// scoped name's leading "@scope/" is never mistaken for a spec marker
// because LastIndex finds the later "@", if any.
func splitNameSpec(s string) (name, spec string) {
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return s, ""
	}
	return s[:at], s[at+1:]
}
