package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nexus-registry/nexus/internal/esm"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/pkgcache"
	"github.com/nexus-registry/nexus/internal/resolver"
	"github.com/nexus-registry/nexus/internal/winget"
)

// Handlers holds every dependency the HTTP surface needs, wired once at
// startup and shared across requests.
type Handlers struct {
	Cache        *pkgcache.Cache
	Resolvers    map[ecosystem.Ecosystem]resolver.Resolver
	CDNJS        *resolver.CDNJS
	WinGet       *winget.Index
	ESM          *esm.Bundler
	Mirrors      map[string]string
	MirrorClient *http.Client
}

// New wires a Handlers from its dependencies. mirrors may be nil, in
// which case the built-in registry table is used.
func New(cache *pkgcache.Cache, resolvers map[ecosystem.Ecosystem]resolver.Resolver, cdnjs *resolver.CDNJS, wg *winget.Index, bundler *esm.Bundler, mirrors map[string]string) *Handlers {
	if mirrors == nil {
		mirrors = defaultMirrors
	}
	return &Handlers{
		Cache:        cache,
		Resolvers:    resolvers,
		CDNJS:        cdnjs,
		WinGet:       wg,
		ESM:          bundler,
		Mirrors:      mirrors,
		MirrorClient: &http.Client{},
	}
}

// Router builds the full route table, wrapped in logging and CORS.
func (h *Handlers) Router() http.Handler {
	r := mux.NewRouter()
	r.SkipClean(true)

	r.HandleFunc("/cdn/npm/{rest:.*}", h.handleNPM).Methods(http.MethodGet)
	r.HandleFunc("/cdn/jsr/{rest:.*}", h.handleJSR).Methods(http.MethodGet)
	r.HandleFunc("/cdn/gh/{rest:.*}", h.handleGitHub).Methods(http.MethodGet)
	r.HandleFunc("/cdn/cdnjs/{rest:.*}", h.handleCDNJS).Methods(http.MethodGet)
	r.HandleFunc("/cdn/wp/{rest:.*}", h.handleWordPress).Methods(http.MethodGet)

	r.HandleFunc("/mirror/{registry}/{rest:.*}", h.handleMirror).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/registry/winget/packages", h.handleWinGetPackages).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}", h.handleWinGetPackageSummary).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions", h.handleWinGetVersions).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions/{version}", h.handleWinGetVersionManifest).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions/{version}/locales", h.handleWinGetLocales).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions/{version}/locales/{locale}", h.handleWinGetLocales).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions/{version}/installers", h.handleWinGetInstallers).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/packages/{id}/versions/{version}/installers/{installerId}", h.handleWinGetInstallers).Methods(http.MethodGet)
	r.HandleFunc("/registry/winget/manifestSearch", h.handleWinGetManifestSearch).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/_docs/openapi.json", h.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/_docs/scalar", h.handleScalarDocs).Methods(http.MethodGet)
	r.HandleFunc("/_docs/swagger", h.handleSwaggerDocs).Methods(http.MethodGet)

	return LoggingMiddleware(CORSMiddleware(r))
}
