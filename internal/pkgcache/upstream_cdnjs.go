package pkgcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nexus-registry/nexus/internal/apierr"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/tarball"
)

type cdnjsFileList struct {
	Files []string `json:"files"`
}

// CDNJSUpstream has no single archive to pull: it lists the version's
// files from the library API, then fetches each one individually from
// cdnjs's CDN host, concurrently.
type CDNJSUpstream struct {
	Client      *http.Client
	APIBaseURL  string // default https://api.cdnjs.com/libraries
	FileBaseURL string // default https://cdnjs.cloudflare.com/ajax/libs
}

// NewCDNJSUpstream returns an Upstream for the public cdnjs CDN.
func NewCDNJSUpstream() *CDNJSUpstream {
	return &CDNJSUpstream{
		Client:      newUpstreamHTTPClient(),
		APIBaseURL:  "https://api.cdnjs.com/libraries",
		FileBaseURL: "https://cdnjs.cloudflare.com/ajax/libs",
	}
}

func (u *CDNJSUpstream) Fetch(ctx context.Context, key ecosystem.PackageKey) ([]tarball.Entry, error) {
	listURL := fmt.Sprintf("%s/%s/%s?fields=files", strings.TrimSuffix(u.apiBaseURL(), "/"), key.Name, key.Version)
	raw, err := fetchBytes(ctx, u.Client, listURL)
	if err != nil {
		return nil, err
	}
	var list cdnjsFileList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, apierr.InvalidManifest(err, "decoding cdnjs file list for %s", key)
	}
	if len(list.Files) == 0 {
		return nil, apierr.PackageNotFound("no files listed for %s", key)
	}

	type result struct {
		entry tarball.Entry
		err   error
	}
	results := make([]result, len(list.Files))
	var wg sync.WaitGroup
	for i, name := range list.Files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			fileURL := fmt.Sprintf("%s/%s/%s/%s", strings.TrimSuffix(u.fileBaseURL(), "/"), key.Name, key.Version, name)
			data, err := fetchBytes(ctx, u.Client, fileURL)
			if err != nil {
				results[i] = result{err: err}
				return
			}
			results[i] = result{entry: tarball.Entry{Path: name, Data: data}}
		}(i, name)
	}
	wg.Wait()

	entries := make([]tarball.Entry, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			continue
		}
		entries = append(entries, r.entry)
	}
	if len(entries) == 0 {
		return nil, apierr.UpstreamUnavailable(nil, "all file fetches failed for %s", key)
	}
	return entries, nil
}

func (u *CDNJSUpstream) apiBaseURL() string {
	if u.APIBaseURL != "" {
		return u.APIBaseURL
	}
	return "https://api.cdnjs.com/libraries"
}

func (u *CDNJSUpstream) fileBaseURL() string {
	if u.FileBaseURL != "" {
		return u.FileBaseURL
	}
	return "https://cdnjs.cloudflare.com/ajax/libs"
}
