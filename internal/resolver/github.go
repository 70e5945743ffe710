package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
)

type jsdelivrGitHubVersions struct {
	Versions []string `json:"versions"`
}

// GitHub resolves "owner/repo" specs against jsDelivr's GitHub package
// metadata endpoint, which lists tags jsDelivr treats as published
// versions. Commit SHAs never appear in that list, so they bypass the
// fetch entirely; a spec that is neither a listed tag, a semver range nor
// "latest" is taken as a branch name and passes through unresolved.
type GitHub struct {
	Client  *http.Client
	BaseURL string // default https://data.jsdelivr.com/v1/packages/gh
}

// NewGitHub returns a GitHub resolver pointed at jsDelivr.
func NewGitHub() *GitHub {
	return &GitHub{Client: newHTTPClient(), BaseURL: "https://data.jsdelivr.com/v1/packages/gh"}
}

func (r *GitHub) Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error) {
	owner, repo, ok := strings.Cut(name, "/")
	if !ok {
		return ecosystem.PackageKey{}, apierr.BadRequest("github package name must be \"owner/repo\", got %q", name)
	}

	// A commit SHA is a concrete, immutable reference: never a member of
	// a "published versions" list, so there is nothing to resolve.
	if ecosystem.IsCommitSHA(spec) {
		return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: strings.ToLower(spec)}, nil
	}

	reqURL := fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(r.baseURL(), "/"), owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ecosystem.PackageKey{}, fmt.Errorf("building jsdelivr request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return ecosystem.PackageKey{}, apierr.UpstreamUnavailable(err, "fetching tags for %q", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ecosystem.PackageKey{}, apierr.PackageNotFound("github repo %q not found upstream", name)
	default:
		return ecosystem.PackageKey{}, apierr.UpstreamUnavailable(nil, "jsdelivr returned %d for %q", resp.StatusCode, name)
	}

	var meta jsdelivrGitHubVersions
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return ecosystem.PackageKey{}, apierr.UpstreamUnavailable(err, "decoding jsdelivr metadata for %q", name)
	}

	// A spec that isn't a published tag, a semver range or "latest" is a
	// branch name: branches are never "published versions" and pass
	// through unresolved, same as a SHA.
	if spec != "" {
		for _, v := range meta.Versions {
			if v == spec {
				return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: v}, nil
			}
		}
		if _, err := semver.NewConstraint(spec); err != nil && spec != "latest" {
			return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: spec}, nil
		}
		if resolved, ok := maxSatisfying(meta.Versions, spec, ""); ok {
			return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: resolved}, nil
		}
		return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: spec}, nil
	}

	resolved, ok := highestVersion(meta.Versions)
	if !ok {
		return ecosystem.PackageKey{}, apierr.VersionNotFound("no published versions for %q", name)
	}
	return ecosystem.PackageKey{Ecosystem: ecosystem.GitHub, Name: name, Version: resolved}, nil
}

func (r *GitHub) baseURL() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return "https://data.jsdelivr.com/v1/packages/gh"
}
