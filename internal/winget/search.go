package winget

import (
	"regexp"
	"strings"
)

// MatchType is one of manifestSearch's seven matching strategies.
type MatchType string

const (
	MatchExact           MatchType = "Exact"
	MatchCaseInsensitive MatchType = "CaseInsensitive"
	MatchSubstring       MatchType = "Substring"
	MatchStartsWith      MatchType = "StartsWith"
	MatchWildcard        MatchType = "Wildcard"
	MatchFuzzy           MatchType = "Fuzzy"
	MatchFuzzySubstring  MatchType = "FuzzySubstring"
)

// Match reports whether candidate satisfies keyword under matchType.
// candidate is typically a PackageIdentifier; manifestSearch matches
// over that string only.
func Match(matchType MatchType, candidate, keyword string) bool {
	lc, lk := strings.ToLower(candidate), strings.ToLower(keyword)
	switch matchType {
	case MatchExact:
		return lc == lk
	case MatchCaseInsensitive, MatchSubstring:
		return strings.Contains(lc, lk)
	case MatchStartsWith:
		return strings.HasPrefix(lc, lk)
	case MatchWildcard:
		return matchWildcard(lc, lk)
	case MatchFuzzy:
		return isSubsequence(lk, lc)
	case MatchFuzzySubstring:
		for _, word := range strings.Fields(lc) {
			if isSubsequence(lk, word) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(lc, lk)
	}
}

// matchWildcard treats "*" in the pattern as ".*" and anchors the regex
// with "^...$", matching case-insensitively.
func matchWildcard(candidate, pattern string) bool {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	re, err := regexp.Compile("^(?i)" + escaped + "$")
	if err != nil {
		return false
	}
	return re.MatchString(candidate)
}

// isSubsequence reports whether every character of needle appears in
// haystack in order, not necessarily contiguously.
func isSubsequence(needle, haystack string) bool {
	if needle == "" {
		return true
	}
	i := 0
	for _, c := range haystack {
		if byte(c) == needle[i] {
			i++
			if i == len(needle) {
				return true
			}
		}
	}
	return false
}
