package ecosystem

import "fmt"

// RawKey is the storage key for one file's raw bytes.
func RawKey(key PackageKey, relPath string) string {
	return fmt.Sprintf("cdn/%s/%s/%s/%s", key.Ecosystem, key.Name, key.Version, relPath)
}

// PackagePrefix is the storage prefix that owns a package's raw files and
// carries its PackageManifest in meta.
func PackagePrefix(key PackageKey) string {
	return fmt.Sprintf("cdn/%s/%s/%s", key.Ecosystem, key.Name, key.Version)
}

// WinGetRootSHAKey is the root-tree SHA cache key for a WinGet repo.
func WinGetRootSHAKey(repo string) string {
	return fmt.Sprintf("registry/winget/%s/manifests-sha", repo)
}

// WinGetLetterKey is the per-letter path-list cache key.
func WinGetLetterKey(repo, letter string) string {
	return fmt.Sprintf("registry/winget/%s/manifests-%s", repo, letter)
}

// WinGetIndexKey is the package->versions mapping cache key.
func WinGetIndexKey(repo string) string {
	return fmt.Sprintf("registry/winget/%s/index", repo)
}

// WinGetFileKey is the per-manifest-file raw-content cache key.
func WinGetFileKey(repo, path string) string {
	return fmt.Sprintf("registry/winget/%s/files/%s", repo, path)
}
