package handlers

import (
	"context"

	"github.com/nexus-registry/nexus/internal/background"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/pkgcache"
	"github.com/nexus-registry/nexus/internal/store"
	"github.com/nexus-registry/nexus/internal/tarball"
)

// fakeUpstream serves a fixed file set for every key, regardless of
// name/version, which is all these tests need.
type fakeUpstream struct {
	entries []tarball.Entry
}

func (f *fakeUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	return f.entries, nil
}

// fakeResolver resolves an empty or "latest" spec to a fixed version and
// passes any other spec through as the version, so tests don't need a
// real upstream metadata endpoint.
type fakeResolver struct {
	eco     ecosystem.Ecosystem
	version string
}

func (f *fakeResolver) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	v := f.version
	if spec != "" && spec != "latest" {
		v = spec
	}
	return ecosystem.PackageKey{Ecosystem: f.eco, Name: name, Version: v}, nil
}

func newTestCache(eco ecosystem.Ecosystem, entries []tarball.Entry) *pkgcache.Cache {
	return &pkgcache.Cache{
		Store:      store.NewMemory(),
		Upstreams:  map[ecosystem.Ecosystem]pkgcache.Upstream{eco: &fakeUpstream{entries: entries}},
		Background: background.New(),
	}
}
