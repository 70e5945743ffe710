package winget

import "testing"

func TestMatchExact(t *testing.T) {
	if !Match(MatchExact, "Microsoft.VisualStudioCode", "microsoft.visualstudiocode") {
		t.Error("expected case-insensitive exact match")
	}
	if Match(MatchExact, "Microsoft.VisualStudioCode", "VisualStudioCode") {
		t.Error("expected exact match to fail on substring")
	}
}

func TestMatchSubstringAndCaseInsensitive(t *testing.T) {
	if !Match(MatchSubstring, "Microsoft.VisualStudioCode", "studio") {
		t.Error("expected substring match")
	}
	if !Match(MatchCaseInsensitive, "Microsoft.VisualStudioCode", "STUDIO") {
		t.Error("expected case-insensitive substring match")
	}
}

func TestMatchStartsWith(t *testing.T) {
	if !Match(MatchStartsWith, "Microsoft.VisualStudioCode", "microsoft.") {
		t.Error("expected prefix match")
	}
	if Match(MatchStartsWith, "Microsoft.VisualStudioCode", "studio") {
		t.Error("expected prefix match to fail mid-string")
	}
}

func TestMatchWildcard(t *testing.T) {
	if !Match(MatchWildcard, "Microsoft.VisualStudioCode", "Microsoft.*Code") {
		t.Error("expected wildcard match")
	}
	if Match(MatchWildcard, "Microsoft.VisualStudioCode", "Microsoft.*Codex") {
		t.Error("expected anchored wildcard to reject extra suffix")
	}
}

func TestMatchFuzzy(t *testing.T) {
	if !Match(MatchFuzzy, "Microsoft.VisualStudioCode", "mvsc") {
		t.Error("expected fuzzy subsequence match")
	}
	if Match(MatchFuzzy, "Microsoft.VisualStudioCode", "zzz") {
		t.Error("expected fuzzy match to fail for absent subsequence")
	}
}

func TestMatchFuzzySubstringPerWord(t *testing.T) {
	// "cde" is a subsequence of the single word "code".
	if !Match(MatchFuzzySubstring, "Visual Studio Code", "cde") {
		t.Error("expected fuzzy-substring to match within a single word")
	}
	if Match(MatchFuzzySubstring, "Visual Studio Code", "xyz") {
		t.Error("expected fuzzy-substring to fail with no matching word")
	}
}
