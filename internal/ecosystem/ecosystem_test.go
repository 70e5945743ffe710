package ecosystem

import "testing"

func TestImmutable(t *testing.T) {
	tests := []struct {
		name string
		key  PackageKey
		want bool
	}{
		{"npm exact semver", PackageKey{NPM, "uikit", "3.21.0"}, true},
		{"npm dist-tag", PackageKey{NPM, "react", "latest"}, false},
		{"npm range-shaped string is not a complete version", PackageKey{NPM, "react", "^18"}, false},
		{"gh commit sha", PackageKey{GitHub, "vuejs/core", "abcd1234abcd1234abcd1234abcd1234abcd1234"}, true},
		{"gh branch", PackageKey{GitHub, "vuejs/core", "main"}, false},
		{"gh v-prefixed semver", PackageKey{GitHub, "vuejs/core", "v3.4.0"}, true},
		{"cdnjs semver", PackageKey{CDNJS, "jquery", "3.7.1"}, true},
		{"cdnjs v-prefixed", PackageKey{CDNJS, "jquery", "v3.7.1"}, true},
		{"cdnjs partial", PackageKey{CDNJS, "jquery", "3.7"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Immutable(tt.key); got != tt.want {
				t.Errorf("Immutable(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestIsWordPressImmutable(t *testing.T) {
	if !IsWordPressImmutable("tags/1.2.3") {
		t.Error("tags/<version> should be immutable")
	}
	if IsWordPressImmutable("trunk") {
		t.Error("trunk should be mutable")
	}
}

func TestIsCommitSHA(t *testing.T) {
	if !IsCommitSHA("abcd1234abcd1234abcd1234abcd1234abcd1234") {
		t.Error("expected valid 40-hex sha")
	}
	if IsCommitSHA("main") {
		t.Error("branch name should not match")
	}
	if IsCommitSHA("abcd1234") {
		t.Error("short hex should not match")
	}
}

func TestRawKeyAndPackagePrefix(t *testing.T) {
	k := PackageKey{NPM, "@scope/pkg", "1.0.0"}
	if got, want := PackagePrefix(k), "cdn/npm/@scope/pkg/1.0.0"; got != want {
		t.Errorf("PackagePrefix = %q, want %q", got, want)
	}
	if got, want := RawKey(k, "dist/index.js"), "cdn/npm/@scope/pkg/1.0.0/dist/index.js"; got != want {
		t.Errorf("RawKey = %q, want %q", got, want)
	}
}
