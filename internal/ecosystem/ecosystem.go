// Package ecosystem defines the data model shared by the resolver and the
// package cache: the Ecosystem tag, PackageKey, immutability rules, and the
// file/manifest records a hydrated package produces.
package ecosystem

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Ecosystem is one of the six upstream source kinds Nexus fronts.
type Ecosystem string

const (
	NPM    Ecosystem = "npm"
	JSR    Ecosystem = "jsr"
	GitHub Ecosystem = "gh"
	CDNJS  Ecosystem = "cdnjs"
	WP     Ecosystem = "wp"
	WinGet Ecosystem = "winget"
)

// PackageKey identifies one concrete version of one package.
type PackageKey struct {
	Ecosystem Ecosystem
	Name      string
	Version   string
}

func (k PackageKey) String() string {
	return fmt.Sprintf("%s/%s@%s", k.Ecosystem, k.Name, k.Version)
}

// completeSemver matches a version string after stripping an optional
// leading "v": "^\d+\.\d+\.\d+".
var completeSemver = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// IsCompleteSemver reports whether s (optionally "v"-prefixed) is a
// complete semantic version per the glossary definition.
func IsCompleteSemver(s string) bool {
	return completeSemver.MatchString(strings.TrimPrefix(s, "v"))
}

var hex40 = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsCommitSHA reports whether s looks like a 40-character hex commit SHA.
func IsCommitSHA(s string) bool {
	return hex40.MatchString(strings.ToLower(s))
}

// Immutable derives the immutability flag for a PackageKey per the rules
// in the data model: npm/JSR require a complete semver; GitHub accepts a
// commit SHA or complete semver; cdnjs requires complete semver; WordPress
// immutability is carried explicitly because the URL grammar (not the
// version string) determines it there, so WP callers should set
// Immutable's result aside and use IsWordPressImmutable instead.
func Immutable(key PackageKey) bool {
	switch key.Ecosystem {
	case NPM, JSR:
		return IsCompleteSemver(key.Version)
	case GitHub:
		return IsCommitSHA(key.Version) || IsCompleteSemver(key.Version)
	case CDNJS:
		return IsCompleteSemver(key.Version)
	default:
		return false
	}
}

// IsWordPressImmutable reports immutability for a WordPress request given
// the raw path form: true for "tags/<version>" or "themes/<name>/<version>",
// false for "trunk".
func IsWordPressImmutable(pathForm string) bool {
	return pathForm != "trunk"
}

// FileEntry is one file inside a hydrated package.
type FileEntry struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Integrity string `json:"integrity,omitempty"`
}

// PackageManifest is the meta object for a fully- or partially-hydrated
// package. The presence of this meta object under the package prefix is
// the cache's "this package has been hydrated" marker. pkgcache stores
// only Files; Fetched is neither written nor read back and stays zero.
type PackageManifest struct {
	Files   []FileEntry `json:"files"`
	Fetched time.Time   `json:"fetched"`
}

// NormalizeName canonicalizes a package name for the given ecosystem.
// Scoped npm/JSR names keep their "@scope/pkg" form; GitHub keeps
// "owner/repo"; cdnjs is a single slug; WordPress uses "plugins/<slug>"
// or "themes/<slug>".
func NormalizeName(eco Ecosystem, name string) string {
	return strings.TrimSuffix(name, "/")
}
