// Package resolver turns a package name plus a loose version spec (a
// range, a dist-tag, "latest", or nothing) into a concrete, cacheable
// version per ecosystem. Each implementation fetches upstream metadata
// once and applies the same max-satisfying algorithm; only the metadata
// source and the shape of "no spec given" differ.
package resolver

import (
	"context"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/nexus-registry/nexus/internal/ecosystem"
)

// Resolver resolves a loose version spec against one package's published
// versions and returns the concrete PackageKey, with Version set to the
// chosen string and immutability derivable via ecosystem.Immutable.
type Resolver interface {
	Resolve(ctx context.Context, name, spec string) (ecosystem.PackageKey, error)
}

// newHTTPClient builds the shared upstream client used by every
// metadata-fetching resolver: bounded dial/handshake/response timeouts,
// no retries (the caller decides PackageNotFound vs UpstreamUnavailable
// from the status code).
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}

// maxSatisfying implements the resolver algorithm's steps 3-6 against an
// already-fetched version set V: an exact match short-circuits, then the
// highest semver-range match, then falls back to a named "latest" tag
// resolved by the caller, then the highest version by descending semver.
func maxSatisfying(versions []string, spec string, latestTag string) (string, bool) {
	if spec != "" {
		for _, v := range versions {
			if v == spec {
				return v, true
			}
		}
	}

	if spec != "" {
		if constraint, err := semver.NewConstraint(spec); err == nil {
			if best, ok := bestSatisfying(versions, constraint); ok {
				return best, true
			}
		}
	}

	if latestTag != "" {
		return latestTag, true
	}

	return highestVersion(versions)
}

func bestSatisfying(versions []string, constraint *semver.Constraints) (string, bool) {
	var best *semver.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	if best == nil {
		return "", false
	}
	return bestRaw, true
}

func highestVersion(versions []string) (string, bool) {
	type parsed struct {
		raw string
		v   *semver.Version
	}
	var parsedVersions []parsed
	for _, raw := range versions {
		if v, err := semver.NewVersion(raw); err == nil {
			parsedVersions = append(parsedVersions, parsed{raw, v})
		}
	}
	if len(parsedVersions) == 0 {
		return "", false
	}
	sort.Slice(parsedVersions, func(i, j int) bool {
		return parsedVersions[i].v.GreaterThan(parsedVersions[j].v)
	})
	return parsedVersions[0].raw, true
}
