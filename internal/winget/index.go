package winget

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/store"
)

// TTL is how long a layer's cached value is considered fresh before a
// request triggers stale-while-revalidate.
const TTL = 600 * time.Second

// treeGetter is the narrow slice of *github.Client.Git this package
// needs, so tests can supply a fake without a real GitHub connection.
type treeGetter interface {
	GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error)
}

// Index is the layered cache described by the component design: a
// root-tree probe, a letter→SHA map, per-letter recursive path lists,
// and the package→versions index built from them.
type Index struct {
	Git        treeGetter
	HTTPClient *http.Client
	Store      store.Store
	Background *background.Runner
	Owner      string
	Repo       string
	Branch     string

	// RawBaseURL fronts raw.githubusercontent.com; overridable in tests.
	RawBaseURL string

	rebuildMu sync.Mutex // serializes concurrent synchronous rebuilds of the same repo
}

const defaultRawBaseURL = "https://raw.githubusercontent.com"

// NewIndex returns an Index for the given GitHub client and repo.
func NewIndex(client *github.Client, s store.Store, owner, repo, branch string) *Index {
	return &Index{
		Git:        client.Git,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Store:      s,
		Background: background.New(),
		Owner:      owner,
		Repo:       repo,
		Branch:     branch,
		RawBaseURL: defaultRawBaseURL,
	}
}

// Versions returns the accumulated versions for one publisher/name, or
// an empty slice if the package isn't found in the current index.
func (idx *Index) Versions(ctx context.Context, packageID string) ([]string, error) {
	full, err := idx.PackageIndex(ctx)
	if err != nil {
		return nil, err
	}
	return full[packageID], nil
}

// PackageIndex returns the package→versions mapping, applying
// stale-while-revalidate against the cached value.
func (idx *Index) PackageIndex(ctx context.Context) (map[string][]string, error) {
	key := ecosystem.WinGetIndexKey(idx.repoKey())

	cached, fresh, err := idx.readCached(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var index map[string][]string
		if err := json.Unmarshal(cached, &index); err == nil {
			if !fresh {
				idx.Background.Go(func(ctx context.Context) {
					if _, err := idx.rebuild(ctx); err != nil {
						slog.Warn("winget: background rebuild failed", "repo", idx.Repo, "error", err)
					}
				})
			}
			return index, nil
		}
	}

	return idx.rebuild(ctx)
}

// rebuild does a synchronous, from-scratch rebuild of the full layered
// cache and writes the result, serialized so concurrent callers never
// walk the tree at the same time; a caller that waited on the lock still
// runs its own rebuild afterwards.
func (idx *Index) rebuild(ctx context.Context) (map[string][]string, error) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	letters, err := idx.letterSHAs(ctx)
	if err != nil {
		return nil, err
	}

	type letterResult struct {
		letter string
		paths  []string
		err    error
	}
	results := make(chan letterResult, len(letters))
	for letter, sha := range letters {
		go func(letter, sha string) {
			paths, err := idx.fetchLetterPaths(ctx, letter, sha)
			results <- letterResult{letter: letter, paths: paths, err: err}
		}(letter, sha)
	}

	index := map[string][]string{}
	for range letters {
		r := <-results
		if r.err != nil {
			// A single letter's failure drops that letter's packages
			// from this rebuild; a later fresh rebuild repairs the gap.
			slog.Warn("winget: letter fetch failed", "letter", r.letter, "error", r.err)
			continue
		}
		idx.cacheLetterPaths(ctx, r.letter, r.paths)
		accumulate(index, r.letter, r.paths)
	}

	raw, err := json.Marshal(index)
	if err != nil {
		return nil, err
	}
	idx.writeCached(ctx, ecosystem.WinGetIndexKey(idx.repoKey()), raw)

	return index, nil
}

// accumulate parses the "<letter>/"-prefixed paths fetchLetterPaths
// produces: with the letter stripped, each is
// "<publisher>/<name>/<version>/<file>.yaml", added to the
// package→versions map.
func accumulate(index map[string][]string, letter string, paths []string) {
	for _, p := range paths {
		p = strings.TrimPrefix(p, letter+"/")
		if !strings.HasSuffix(p, ".yaml") {
			continue
		}
		parts := strings.Split(p, "/")
		if len(parts) < 4 {
			continue
		}
		publisher, name, version := parts[0], parts[1], parts[2]
		id := publisher + "." + name
		if !containsString(index[id], version) {
			index[id] = append(index[id], version)
		}
	}
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// letterSHAs returns the cached (or freshly rebuilt) letter→SHA map,
// failing hard if an empty map would otherwise be returned — an empty
// manifests/ listing means the root-tree probe itself is broken.
func (idx *Index) letterSHAs(ctx context.Context) (map[string]string, error) {
	key := ecosystem.WinGetLetterKey(idx.repoKey(), "_root")

	cached, fresh, err := idx.readCached(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil && fresh {
		var m map[string]string
		if err := json.Unmarshal(cached, &m); err == nil && len(m) > 0 {
			return m, nil
		}
	}

	manifestsSHA, err := idx.manifestsTreeSHA(ctx)
	if err != nil {
		return nil, err
	}

	tree, _, err := idx.Git.GetTree(ctx, idx.Owner, idx.Repo, manifestsSHA, false)
	if err != nil {
		return nil, err
	}

	letters := map[string]string{}
	for _, e := range tree.Entries {
		name := e.GetPath()
		if isLetterDir(name) {
			letters[name] = e.GetSHA()
		}
	}
	if len(letters) == 0 {
		return nil, errors.New("winget: empty letter directory map under manifests/")
	}

	raw, err := json.Marshal(letters)
	if err == nil {
		idx.writeCached(ctx, key, raw)
	}
	return letters, nil
}

// manifestsTreeSHA locates the "manifests" entry in the repo root tree.
func (idx *Index) manifestsTreeSHA(ctx context.Context) (string, error) {
	key := ecosystem.WinGetRootSHAKey(idx.repoKey())

	cached, fresh, err := idx.readCached(ctx, key)
	if err == nil && cached != nil && fresh {
		return string(cached), nil
	}

	tree, _, err := idx.Git.GetTree(ctx, idx.Owner, idx.Repo, idx.Branch, false)
	if err != nil {
		return "", err
	}
	for _, e := range tree.Entries {
		if e.GetPath() == "manifests" {
			idx.writeCached(ctx, key, []byte(e.GetSHA()))
			return e.GetSHA(), nil
		}
	}
	return "", errors.New("winget: no \"manifests\" entry in repo root tree")
}

// fetchLetterPaths performs the recursive tree expansion for one letter
// and flattens it to relative paths prefixed with "<letter>/".
func (idx *Index) fetchLetterPaths(ctx context.Context, letter, sha string) ([]string, error) {
	tree, _, err := idx.Git.GetTree(ctx, idx.Owner, idx.Repo, sha, true)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		paths = append(paths, letter+"/"+e.GetPath())
	}
	return paths, nil
}

func (idx *Index) cacheLetterPaths(ctx context.Context, letter string, paths []string) {
	raw, err := json.Marshal(paths)
	if err != nil {
		return
	}
	idx.writeCached(ctx, ecosystem.WinGetLetterKey(idx.repoKey(), letter), raw)
}

func isLetterDir(name string) bool {
	if len(name) != 1 {
		return false
	}
	c := name[0]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func (idx *Index) repoKey() string {
	return idx.Owner + "/" + idx.Repo
}

// readCached returns the raw cached bytes at key and whether they're
// still within TTL. A nil slice with a nil error means "no cached
// value" (cold cache), distinct from a storage error.
func (idx *Index) readCached(ctx context.Context, key string) (data []byte, fresh bool, err error) {
	data, err = idx.Store.GetRaw(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, nil // StorageUnavailable: treat as cold cache
	}
	meta, err := idx.Store.GetMeta(ctx, key)
	if err != nil {
		return data, false, nil
	}
	mtime, _ := meta["mtime"].(float64)
	fresh = time.Since(time.Unix(int64(mtime), 0)) < TTL
	return data, fresh, nil
}

func (idx *Index) writeCached(ctx context.Context, key string, data []byte) {
	if err := idx.Store.PutRaw(ctx, key, data); err != nil {
		slog.Warn("winget: cache write failed", "key", key, "error", err)
		return
	}
	if err := idx.Store.SetMeta(ctx, key, map[string]any{"mtime": float64(time.Now().Unix())}); err != nil {
		slog.Warn("winget: cache meta write failed", "key", key, "error", err)
	}
}
