package winget

import (
	"context"
	"testing"

	"github.com/google/go-github/v66/github"

	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/store"
)

// fakeTreeGetter simulates the repo's tree shape:
//
//	root (sha "root"): "manifests" -> sha "manifests-sha"
//	manifests (sha "manifests-sha"): "m" -> sha "m-sha"
//	m (sha "m-sha", recursive): blobs under Microsoft/VisualStudioCode/1.0.0/*.yaml
type fakeTreeGetter struct {
	trees map[string]*github.Tree
	calls int
}

func (f *fakeTreeGetter) GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error) {
	f.calls++
	tree, ok := f.trees[sha]
	if !ok {
		return nil, nil, errNoSuchTree(sha)
	}
	return tree, nil, nil
}

type errNoSuchTree string

func (e errNoSuchTree) Error() string { return "no such tree: " + string(e) }

func newFakeRepo() *fakeTreeGetter {
	blobType := "blob"
	treeType := "tree"
	return &fakeTreeGetter{trees: map[string]*github.Tree{
		"main": {Entries: []*github.TreeEntry{
			{Path: github.String("manifests"), SHA: github.String("manifests-sha"), Type: &treeType},
		}},
		"manifests-sha": {Entries: []*github.TreeEntry{
			{Path: github.String("m"), SHA: github.String("m-sha"), Type: &treeType},
		}},
		"m-sha": {Entries: []*github.TreeEntry{
			{Path: github.String("Microsoft/VisualStudioCode/1.85.0/Microsoft.VisualStudioCode.yaml"), Type: &blobType},
			{Path: github.String("Microsoft/VisualStudioCode/1.86.0/Microsoft.VisualStudioCode.yaml"), Type: &blobType},
			{Path: github.String("Microsoft/VisualStudioCode"), Type: &treeType},
		}},
	}}
}

func newTestIndex(t *testing.T, g treeGetter) *Index {
	t.Helper()
	return &Index{
		Git:        g,
		Store:      store.NewMemory(),
		Background: background.New(),
		Owner:      "microsoft",
		Repo:       "winget-pkgs",
		Branch:     "main",
		RawBaseURL: defaultRawBaseURL,
	}
}

func TestPackageIndexBuildsFromLayeredTrees(t *testing.T) {
	repo := newFakeRepo()
	idx := newTestIndex(t, repo)

	index, err := idx.PackageIndex(context.Background())
	if err != nil {
		t.Fatalf("PackageIndex: %v", err)
	}
	versions := index["Microsoft.VisualStudioCode"]
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %v", versions)
	}
}

func TestPackageIndexCachesAcrossCalls(t *testing.T) {
	repo := newFakeRepo()
	idx := newTestIndex(t, repo)

	if _, err := idx.PackageIndex(context.Background()); err != nil {
		t.Fatalf("first PackageIndex: %v", err)
	}
	callsAfterFirst := repo.calls

	if _, err := idx.PackageIndex(context.Background()); err != nil {
		t.Fatalf("second PackageIndex: %v", err)
	}
	if repo.calls != callsAfterFirst {
		t.Errorf("expected no additional GetTree calls on a fresh cache hit, went from %d to %d", callsAfterFirst, repo.calls)
	}
}

func TestLetterSHAsFailsHardOnEmptyMap(t *testing.T) {
	treeType := "tree"
	repo := &fakeTreeGetter{trees: map[string]*github.Tree{
		"main": {Entries: []*github.TreeEntry{
			{Path: github.String("manifests"), SHA: github.String("manifests-sha"), Type: &treeType},
		}},
		"manifests-sha": {Entries: []*github.TreeEntry{
			{Path: github.String("README.md"), Type: github.String("blob")},
		}},
	}}
	idx := newTestIndex(t, repo)

	_, err := idx.letterSHAs(context.Background())
	if err == nil {
		t.Fatal("expected an error for an empty letter directory map")
	}
}
