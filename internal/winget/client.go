// Package winget is a layered, read-through cache over GitHub's
// recursive Git-tree API, rebuilding the WinGet community manifest
// repository's package→versions index without ever cloning it.
package winget

import (
	"context"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// NewClient returns a go-github client, authenticated with token if one
// is supplied (raises GitHub's anonymous rate limit considerably; the
// WinGet manifest repository is large enough that anonymous access
// throttles quickly under real traffic).
func NewClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}
