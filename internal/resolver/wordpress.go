package resolver

import (
	"context"
	"strings"

	"github.com/nexus-registry/nexus/internal/ecosystem"
)

// WordPress "resolves" SVN-style paths without any upstream metadata
// call: the path grammar (tags/<version> vs trunk) already carries
// everything the other resolvers had to fetch upstream to learn.
type WordPress struct{}

// NewWordPress returns a WordPress resolver.
func NewWordPress() *WordPress { return &WordPress{} }

// Resolve accepts spec already in its path form ("trunk" or a tag like
// "6.4.2") and passes it through unchanged; WordPress immutability is
// derived from this same string via ecosystem.IsWordPressImmutable
// rather than from Resolve's return value.
func (r *WordPress) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	version := strings.TrimSpace(spec)
	if version == "" {
		version = "trunk"
	}
	return ecosystem.PackageKey{Ecosystem: ecosystem.WP, Name: name, Version: version}, nil
}
