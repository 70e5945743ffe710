package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/winget"
)

const winGetPageSize = 100

// winGetPackageSummary is the subset of fields the package-list and
// summary endpoints expose.
type winGetPackageSummary struct {
	PackageIdentifier string   `json:"PackageIdentifier"`
	Versions          []string `json:"Versions"`
}

func sortedKeys(index map[string][]string) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// capVersions returns the newest 10 versions, newest first. Versions are
// compared dot-segment by dot-segment, numerically where both segments
// are numbers and as plain strings otherwise.
func capVersions(versions []string) []string {
	sorted := append([]string(nil), versions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := strings.Split(sorted[i], "."), strings.Split(sorted[j], ".")
		for k := 0; k < len(a) && k < len(b); k++ {
			an, aerr := strconv.Atoi(a[k])
			bn, berr := strconv.Atoi(b[k])
			if aerr == nil && berr == nil {
				if an != bn {
					return an > bn
				}
			} else if a[k] != b[k] {
				return a[k] > b[k]
			}
		}
		return len(a) > len(b)
	})
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}
	return sorted
}

func encodeOffset(n int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(n)))
}

func decodeOffset(token string) int {
	if token == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *Handlers) handleWinGetPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := h.WinGet.PackageIndex(ctx)
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "loading winget package index"))
		return
	}
	keys := sortedKeys(index)

	offset := decodeOffset(r.URL.Query().Get("ContinuationToken"))
	end := offset + winGetPageSize
	if end > len(keys) {
		end = len(keys)
	}
	if offset > len(keys) {
		offset = len(keys)
	}

	page := keys[offset:end]
	summaries := make([]winGetPackageSummary, 0, len(page))
	for _, id := range page {
		summaries = append(summaries, winGetPackageSummary{PackageIdentifier: id, Versions: capVersions(index[id])})
	}

	resp := map[string]any{"Data": summaries}
	if end < len(keys) {
		resp["ContinuationToken"] = encodeOffset(end)
	}
	writeJSON(w, resp)
}

func (h *Handlers) handleWinGetPackageSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	versions, err := h.WinGet.Versions(r.Context(), id)
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "loading winget package %q", id))
		return
	}
	if len(versions) == 0 {
		writeError(w, apierr.PackageNotFound("winget package %q not found", id))
		return
	}
	writeJSON(w, winGetPackageSummary{PackageIdentifier: id, Versions: capVersions(versions)})
}

func (h *Handlers) handleWinGetVersions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	versions, err := h.WinGet.Versions(r.Context(), id)
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "loading winget versions for %q", id))
		return
	}
	if len(versions) == 0 {
		writeError(w, apierr.PackageNotFound("winget package %q not found", id))
		return
	}
	writeJSON(w, map[string]any{"Versions": capVersions(versions)})
}

// manifestPath reconstructs the winget-pkgs repository's file layout
// from only an identifier and version, since the accumulated index
// discards the original filename: "<letter>/<publisher>/<name>/<version>/<id>.yaml".
func manifestPath(id, version string) (string, error) {
	publisher, name, ok := strings.Cut(id, ".")
	if !ok || publisher == "" || name == "" {
		return "", apierr.BadRequest("malformed winget package identifier %q", id)
	}
	letter := strings.ToLower(publisher[:1])
	return fmt.Sprintf("%s/%s/%s/%s/%s.yaml", letter, publisher, name, version, id), nil
}

func (h *Handlers) fetchVersionManifest(r *http.Request, id, version string) (winget.Manifest, error) {
	path, err := manifestPath(id, version)
	if err != nil {
		return nil, err
	}
	return h.WinGet.FetchManifest(r.Context(), path)
}

func (h *Handlers) handleWinGetVersionManifest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	manifest, err := h.fetchVersionManifest(r, vars["id"], vars["version"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, manifest)
}

func (h *Handlers) handleWinGetLocales(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	manifest, err := h.fetchVersionManifest(r, vars["id"], vars["version"])
	if err != nil {
		writeError(w, err)
		return
	}
	locales, _ := manifest["Locales"].([]any)
	if locale, ok := vars["locale"]; ok {
		for _, l := range locales {
			if m, ok := l.(map[string]any); ok {
				if pl, _ := m["PackageLocale"].(string); strings.EqualFold(pl, locale) {
					writeJSON(w, m)
					return
				}
			}
		}
		writeError(w, apierr.FileNotFound("locale %q not found for %s %s", locale, vars["id"], vars["version"]))
		return
	}
	writeJSON(w, map[string]any{"Locales": locales})
}

func (h *Handlers) handleWinGetInstallers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	manifest, err := h.fetchVersionManifest(r, vars["id"], vars["version"])
	if err != nil {
		writeError(w, err)
		return
	}
	installers, _ := manifest["Installers"].([]any)
	if instID, ok := vars["installerId"]; ok {
		for _, i := range installers {
			if m, ok := i.(map[string]any); ok {
				if iid, _ := m["InstallerIdentifier"].(string); iid == instID {
					writeJSON(w, m)
					return
				}
			}
		}
		writeError(w, apierr.FileNotFound("installer %q not found for %s %s", instID, vars["id"], vars["version"]))
		return
	}
	writeJSON(w, map[string]any{"Installers": installers})
}

type winGetSearchQuery struct {
	Query struct {
		KeyWord   string `json:"KeyWord"`
		MatchType string `json:"MatchType"`
	} `json:"Query"`
	MaximumResults     int  `json:"MaximumResults"`
	FetchAllManifests  bool `json:"FetchAllManifests"`
}

var (
	requiredPackageMatchFields    = []string{"PackageIdentifier"}
	unsupportedPackageMatchFields = []string{"Market", "NormalizedPackageNameAndPublisher"}
)

func (h *Handlers) handleWinGetManifestSearch(w http.ResponseWriter, r *http.Request) {
	var q winGetSearchQuery
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeError(w, apierr.BadRequest("decoding search body: %v", err))
			return
		}
	} else {
		query := r.URL.Query()
		q.Query.KeyWord = query.Get("query")
		q.Query.MatchType = query.Get("matchType")
		if n, err := strconv.Atoi(query.Get("maximumResults")); err == nil {
			q.MaximumResults = n
		}
		if fetch, err := strconv.ParseBool(query.Get("fetchAllManifests")); err == nil {
			q.FetchAllManifests = fetch
		}
	}
	if q.Query.MatchType == "" {
		q.Query.MatchType = string(winget.MatchCaseInsensitive)
	}
	if q.MaximumResults <= 0 {
		q.MaximumResults = 100
	}

	index, err := h.WinGet.PackageIndex(r.Context())
	if err != nil {
		writeError(w, apierr.UpstreamUnavailable(err, "loading winget package index"))
		return
	}

	var matches []winGetPackageSummary
	for _, id := range sortedKeys(index) {
		if winget.Match(winget.MatchType(q.Query.MatchType), id, q.Query.KeyWord) {
			matches = append(matches, winGetPackageSummary{PackageIdentifier: id, Versions: capVersions(index[id])})
			if len(matches) >= q.MaximumResults {
				break
			}
		}
	}

	writeJSON(w, map[string]any{
		"Data":                          matches,
		"RequiredPackageMatchFields":    requiredPackageMatchFields,
		"UnsupportedPackageMatchFields": unsupportedPackageMatchFields,
	})
}
