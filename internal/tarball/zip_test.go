package tarball

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractZipStripsRoot(t *testing.T) {
	data := buildZip(t, map[string]string{
		"akismet/readme.txt": "readme",
		"akismet/akismet.php": "<?php",
	})

	entries, err := ExtractZip(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	names := map[string]string{}
	for _, e := range entries {
		names[e.Path] = string(e.Data)
	}
	if names["readme.txt"] != "readme" || names["akismet.php"] != "<?php" {
		t.Fatalf("unexpected entries: %v", names)
	}
}
