package rubygems

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "rubygems"
	// DefaultRegistryURL is rubygems.org.
	DefaultRegistryURL = "https://rubygems.org"
)

// Client provides access to RubyGems-compatible registries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a RubyGems client. Version lists are kept in the
// response cache configured in opts.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "rubygems:", nil)}
}

// Descriptor returns the datasource descriptor for c.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "semver-coerced",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyHunt,
		Caching:             true,
	}
}

// GetReleases lists the versions of a gem. Platform-specific builds of the
// same version collapse into one release, preferring the "ruby" platform.
// Returns nil, nil if the gem does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	gem := strings.ToLower(strings.TrimSpace(q.PackageName))
	registry := registryOf(q.RegistryURL)

	versions, err := c.versions(ctx, registry, gem)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	res := &datasource.ReleaseResult{Releases: make([]datasource.Release, 0, len(versions))}
	for _, v := range collapsePlatforms(versions) {
		rel := datasource.Release{Version: v.Number, Digest: v.SHA}
		if ts, err := time.Parse(time.RFC3339, v.CreatedAt); err == nil {
			rel.ReleaseTimestamp = &ts
		}
		if v.RubyVersion != "" {
			rel.Constraints = map[string][]string{"ruby": {v.RubyVersion}}
		}
		res.Releases = append(res.Releases, rel)
	}

	var info gemResponse
	if err := c.Get(ctx, integrations.JoinURL(registry, "api/v1/gems", gem+".json"), &info); err == nil {
		res.Homepage = info.HomepageURI
		res.SourceURL = info.SourceCodeURI
		res.ChangelogURL = info.ChangelogURI
	}
	return res, nil
}

// Digest returns the SHA-256 checksum of the gem file for newValue, or for
// the current value when newValue is empty.
func (c *Client) Digest(ctx context.Context, q datasource.DigestQuery, newValue string) (string, error) {
	version := newValue
	if version == "" {
		version = q.CurrentValue
	}
	gem := strings.ToLower(strings.TrimSpace(q.PackageName))
	versions, err := c.versions(ctx, registryOf(q.RegistryURL), gem)
	if err != nil {
		return "", err
	}
	for _, v := range collapsePlatforms(versions) {
		if v.Number == version {
			return v.SHA, nil
		}
	}
	return "", integrations.ErrNotFound
}

func (c *Client) versions(ctx context.Context, registry, gem string) ([]gemVersion, error) {
	var versions []gemVersion
	err := c.Cached(ctx, registry+"|"+gem, false, &versions, func() error {
		return c.Get(ctx, integrations.JoinURL(registry, "api/v1/versions", gem+".json"), &versions)
	})
	return versions, err
}

func registryOf(u string) string {
	if u == "" {
		return DefaultRegistryURL
	}
	return u
}

func collapsePlatforms(versions []gemVersion) []gemVersion {
	idx := make(map[string]int, len(versions))
	var out []gemVersion
	for _, v := range versions {
		i, seen := idx[v.Number]
		if !seen {
			idx[v.Number] = len(out)
			out = append(out, v)
			continue
		}
		if v.Platform == "ruby" && out[i].Platform != "ruby" {
			out[i] = v
		}
	}
	return out
}

type gemVersion struct {
	Number      string `json:"number"`
	Platform    string `json:"platform"`
	CreatedAt   string `json:"created_at"`
	RubyVersion string `json:"ruby_version"`
	SHA         string `json:"sha"`
}

type gemResponse struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	SourceCodeURI string `json:"source_code_uri"`
	HomepageURI   string `json:"homepage_uri"`
	ChangelogURI  string `json:"changelog_uri"`
}
