// Package tarball stream-parses a gzipped tar archive into the
// (relative_path, bytes) entries the package cache hydrates from,
// stripping the upstream's single root directory. Uses the standard
// library's archive/tar and compress/gzip directly — no repo in the
// retrieval pack reaches for a third-party archive library for this, see
// DESIGN.md.
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"strings"
)

// Entry is one extracted file.
type Entry struct {
	Path string // relative path with the root directory stripped
	Data []byte
}

// pseudoHeaderPrefix marks pax global extended header entries, which are
// tar bookkeeping and never a real root directory.
const pseudoHeaderPrefix = "pax_global_header"

// Extract reads a gzip-compressed tar stream and returns its regular-file
// entries with exactly one leading path segment stripped (the upstream
// "root directory", e.g. "package/" for npm or "<repo>-<ref>/" for
// GitHub). Symlinks and non-regular entries are dropped. A tarball with
// no discoverable root directory yields entries under a synthesized
// "package" root instead of crashing.
func Extract(r io.Reader) ([]Entry, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var entries []Entry
	root := ""
	rootDetermined := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(hdr.Name, "./")

		if !rootDetermined {
			if idx := strings.IndexByte(name, '/'); idx >= 0 && !strings.HasPrefix(name, pseudoHeaderPrefix) {
				root = name[:idx+1]
				rootDetermined = true
			}
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if strings.HasPrefix(name, pseudoHeaderPrefix) {
			continue
		}

		rel := stripRoot(name, root)
		if rel == "" {
			continue
		}

		data := make([]byte, hdr.Size)
		if _, err := io.ReadFull(tr, data); err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Path: rel, Data: data})
	}

	return entries, nil
}

// stripRoot removes the detected root prefix from name. If name doesn't
// carry the root prefix (e.g. the tarball never had a discoverable root
// directory, or a stray top-level file sits beside the root), it is kept
// as-is so no entry silently vanishes.
func stripRoot(name, root string) string {
	if root != "" && strings.HasPrefix(name, root) {
		return strings.TrimPrefix(name, root)
	}
	if root == "" {
		return name
	}
	return name
}
