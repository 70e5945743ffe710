// Package store is the narrow Storage KV interface the core requires of
// whatever back-end is configured (memory, filesystem, S3), adapted from
// the teacher's OCI object-store abstraction to the five-operation
// contract the spec's core is built against: get/put raw bytes, remove a
// whole prefix, and get/set a merged metadata map.
package store

import (
	"context"
	"errors"

	"github.com/nexus-registry/nexus/internal/apierr"
)

// ErrNotFound is returned by GetRaw/GetMeta when the key is absent. It is
// not itself an apierr.Error — callers translate it to the right kind
// (FileNotFound, PackageNotFound, or a plain cache miss) depending on
// context, per the spec's "no cross-key invariant" design.
var ErrNotFound = errors.New("store: not found")

// Store is the dependency interface the core requires of a back-end.
// Implementations must be safe for concurrent use. Put is atomic with
// respect to concurrent Get on the same key. Transport failures must be
// reported wrapped as *apierr.Error with KindStorageUnavailable so
// callers can apply the "miss on read, best-effort drop on write" rule.
type Store interface {
	// GetRaw returns the bytes stored at key, or ErrNotFound.
	GetRaw(ctx context.Context, key string) ([]byte, error)
	// PutRaw writes bytes at key, overwriting any existing value.
	PutRaw(ctx context.Context, key string, data []byte) error
	// Remove deletes key and every key below prefix "key/".
	Remove(ctx context.Context, prefix string) error
	// GetMeta returns the metadata map for key, or ErrNotFound.
	GetMeta(ctx context.Context, key string) (map[string]any, error)
	// SetMeta merges fields into key's existing metadata map (creating it
	// if absent).
	SetMeta(ctx context.Context, key string, fields map[string]any) error
}

// wrapUnavailable is a small helper back-ends use to turn a transport
// error into the typed StorageUnavailable error the spec requires.
func wrapUnavailable(op, key string, cause error) error {
	return apierr.StorageUnavailable(cause, "store: %s %q", op, key)
}
