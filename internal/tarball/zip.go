package tarball

import (
	"archive/zip"
	"io"
	"strings"
)

// ExtractZip applies the same root-stripping, regular-files-only policy
// as Extract to a zip archive (WordPress's SVN export format), since zip
// central directories carry the same "one top-level directory" shape as
// npm/GitHub tarballs.
func ExtractZip(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	root := ""
	rootDetermined := false

	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")

		if !rootDetermined {
			if idx := strings.IndexByte(name, '/'); idx >= 0 {
				root = name[:idx+1]
				rootDetermined = true
			}
		}

		if !f.Mode().IsRegular() {
			continue
		}

		rel := stripRoot(name, root)
		if rel == "" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Path: rel, Data: data})
	}

	return entries, nil
}
