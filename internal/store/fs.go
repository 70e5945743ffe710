package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FS is a filesystem-backed Store, adapted from the teacher's FSStore:
// same atomic temp-file-then-rename write discipline, with metadata kept
// as "<key>.json" files under a separate meta/ tree, extended with a real
// Remove(prefix) — the OCI
// cache this was copied from never needed to invalidate a whole subtree,
// but mutable npm/GitHub tags do.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at root.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// Init ensures the root directory exists.
func (f *FS) Init() error {
	return os.MkdirAll(f.root, 0o755)
}

func (f *FS) dataPath(key string) string {
	return filepath.Join(f.root, "data", filepath.FromSlash(key))
}

func (f *FS) metaPath(key string) string {
	return filepath.Join(f.root, "meta", filepath.FromSlash(key)+".json")
}

func (f *FS) GetRaw(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.dataPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, wrapUnavailable("GetRaw", key, err)
	}
	return data, nil
}

func (f *FS) PutRaw(_ context.Context, key string, data []byte) error {
	dp := f.dataPath(key)
	if err := os.MkdirAll(filepath.Dir(dp), 0o755); err != nil {
		return wrapUnavailable("PutRaw", key, fmt.Errorf("creating directory: %w", err))
	}
	if err := atomicWrite(dp, data); err != nil {
		return wrapUnavailable("PutRaw", key, fmt.Errorf("writing data: %w", err))
	}
	return nil
}

func (f *FS) Remove(_ context.Context, prefix string) error {
	if err := removePath(f.dataPath(prefix)); err != nil {
		return wrapUnavailable("Remove", prefix, err)
	}
	if err := removePath(filepath.Join(f.root, "meta", filepath.FromSlash(prefix))); err != nil {
		return wrapUnavailable("Remove", prefix, err)
	}
	// Meta keys are stored as "<key>.json" files, not directories, so a
	// meta key equal to prefix itself needs an explicit file removal too.
	if err := os.Remove(f.metaPath(prefix)); err != nil && !os.IsNotExist(err) {
		return wrapUnavailable("Remove", prefix, err)
	}
	return nil
}

func removePath(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(p)
	}
	return os.Remove(p)
}

func (f *FS) GetMeta(_ context.Context, key string) (map[string]any, error) {
	data, err := os.ReadFile(f.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, wrapUnavailable("GetMeta", key, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, wrapUnavailable("GetMeta", key, fmt.Errorf("parsing meta: %w", err))
	}
	return fields, nil
}

func (f *FS) SetMeta(ctx context.Context, key string, fields map[string]any) error {
	existing, err := f.GetMeta(ctx, key)
	if err != nil && err != ErrNotFound {
		return err
	}
	if existing == nil {
		existing = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		existing[k] = v
	}
	mp := f.metaPath(key)
	if err := os.MkdirAll(filepath.Dir(mp), 0o755); err != nil {
		return wrapUnavailable("SetMeta", key, fmt.Errorf("creating directory: %w", err))
	}
	data, err := json.Marshal(existing)
	if err != nil {
		return wrapUnavailable("SetMeta", key, fmt.Errorf("marshalling meta: %w", err))
	}
	if err := atomicWrite(mp, data); err != nil {
		return wrapUnavailable("SetMeta", key, fmt.Errorf("writing meta: %w", err))
	}
	return nil
}

// atomicWrite writes data to dst via a temp file + rename, exactly the
// teacher's FSStore discipline.
func atomicWrite(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}
