package pkgcache

import (
	"context"
	"testing"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/store"
	"github.com/nexus-registry/nexus/internal/tarball"
)

type fakeUpstream struct {
	entries []tarball.Entry
	calls   int
	err     error
}

func (f *fakeUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func newTestCache(up Upstream) (*Cache, *store.Memory) {
	mem := store.NewMemory()
	return &Cache{
		Store:      mem,
		Upstreams:  map[ecosystem.Ecosystem]Upstream{ecosystem.NPM: up},
		Background: background.New(),
	}, mem
}

func TestGetFileMissPullsUpstreamAndReturnsRequested(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{
		{Path: "index.js", Data: []byte("console.log(1)")},
		{Path: "package.json", Data: []byte(`{}`)},
	}}
	c, _ := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "1.3.0"}

	data, immutable, err := c.GetFile(context.Background(), key, "index.js")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(data) != "console.log(1)" {
		t.Errorf("data = %q", data)
	}
	if !immutable {
		t.Errorf("expected 1.3.0 to be immutable")
	}
	if up.calls != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", up.calls)
	}
}

func TestGetFileHitAvoidsUpstream(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{{Path: "index.js", Data: []byte("v1")}}}
	c, mem := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "1.3.0"}

	if err := mem.PutRaw(context.Background(), ecosystem.RawKey(key, "index.js"), []byte("cached")); err != nil {
		t.Fatalf("PutRaw: %v", err)
	}

	data, _, err := c.GetFile(context.Background(), key, "index.js")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(data) != "cached" {
		t.Errorf("data = %q, want cached", data)
	}
	if up.calls != 0 {
		t.Errorf("expected no upstream call on hit, got %d", up.calls)
	}
}

func TestGetFileMissingPathReturnsFileNotFound(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{{Path: "index.js", Data: []byte("v1")}}}
	c, _ := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "1.3.0"}

	_, _, err := c.GetFile(context.Background(), key, "missing.js")
	if !apierr.Is(err, apierr.KindFileNotFound) {
		t.Fatalf("expected FileNotFound for missing path, got %v", err)
	}
}

func TestGetFileWarmsRemainingFilesInBackground(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{
		{Path: "index.js", Data: []byte("a")},
		{Path: "lib/other.js", Data: []byte("b")},
	}}
	c, mem := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "1.3.0"}

	if _, _, err := c.GetFile(context.Background(), key, "index.js"); err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	c.Background.Wait()

	got, err := mem.GetRaw(context.Background(), ecosystem.RawKey(key, "lib/other.js"))
	if err != nil {
		t.Fatalf("expected lib/other.js to be warmed, got error: %v", err)
	}
	if string(got) != "b" {
		t.Errorf("warmed data = %q", got)
	}

	manifest, err := c.List(context.Background(), key)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(manifest.Files) != 2 {
		t.Fatalf("expected 2 files in manifest, got %d: %+v", len(manifest.Files), manifest.Files)
	}
}

func TestListHydratesSynchronouslyOnMiss(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{
		{Path: "a.js", Data: []byte("a")},
	}}
	c, _ := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "1.3.0"}

	manifest, err := c.List(context.Background(), key)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(manifest.Files) != 1 || manifest.Files[0].Name != "a.js" {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	if manifest.Files[0].Integrity == "" {
		t.Errorf("expected integrity to be computed")
	}
}

func TestGetFileMutableKeyRemovesPrefixBeforeWarm(t *testing.T) {
	up := &fakeUpstream{entries: []tarball.Entry{{Path: "index.js", Data: []byte("new")}}}
	c, mem := newTestCache(up)
	key := ecosystem.PackageKey{Ecosystem: ecosystem.NPM, Name: "left-pad", Version: "latest"}

	if err := mem.PutRaw(context.Background(), ecosystem.RawKey(key, "stale.js"), []byte("old")); err != nil {
		t.Fatalf("PutRaw: %v", err)
	}

	if _, _, err := c.GetFile(context.Background(), key, "index.js"); err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	if _, err := mem.GetRaw(context.Background(), ecosystem.RawKey(key, "stale.js")); err == nil {
		t.Errorf("expected stale.js to be removed before warm for a mutable key")
	}
}
