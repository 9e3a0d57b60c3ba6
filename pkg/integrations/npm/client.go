package npm

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "npm"
	// DefaultRegistryURL is the public npm registry.
	DefaultRegistryURL = "https://registry.npmjs.org"
)

// Client provides access to npm registries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates an npm client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "npm:", map[string]string{
		"Accept": "application/json",
	})}
}

// Descriptor returns the datasource descriptor for c.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "npm",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyHunt,
		Caching:             true,
	}
}

// GetReleases lists the published versions of an npm package.
// Returns nil, nil if the package does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	data, err := c.packument(ctx, q.RegistryURL, q.PackageName)
	if err != nil || data == nil {
		return nil, err
	}

	res := &datasource.ReleaseResult{
		Releases: make([]datasource.Release, 0, len(data.Versions)),
		Tags:     data.DistTags,
		Homepage: data.HomePage,
	}
	repo := data.Repository
	if latest, ok := data.Versions[data.DistTags["latest"]]; ok {
		if latest.Repository != nil {
			repo = latest.Repository
		}
		if latest.HomePage != "" {
			res.Homepage = latest.HomePage
		}
		res.DeprecationMessage = deprecation(latest.Deprecated)
	}
	res.SourceURL = integrations.NormalizeRepoURL(extractField(repo, "url"))
	if m, ok := repo.(map[string]any); ok {
		res.SourceDirectory, _ = m["directory"].(string)
	}

	for _, v := range slices.Sorted(maps.Keys(data.Versions)) {
		details := data.Versions[v]
		rel := datasource.Release{
			Version:      v,
			IsDeprecated: deprecation(details.Deprecated) != "",
		}
		if ts, err := time.Parse(time.RFC3339, data.Time[v]); err == nil {
			rel.ReleaseTimestamp = &ts
		}
		if node := extractField(details.Engines, "node"); node != "" {
			rel.Constraints = map[string][]string{"node": {node}}
		}
		res.Releases = append(res.Releases, rel)
	}
	return res, nil
}

// Digest returns the dist integrity of newValue, or of the current value
// when newValue is empty. Returns "" if the version does not exist.
func (c *Client) Digest(ctx context.Context, q datasource.DigestQuery, newValue string) (string, error) {
	data, err := c.packument(ctx, q.RegistryURL, q.PackageName)
	if err != nil || data == nil {
		return "", err
	}
	version := newValue
	if version == "" {
		version = q.CurrentValue
	}
	if tagged, ok := data.DistTags[version]; ok {
		version = tagged
	}
	details, ok := data.Versions[version]
	if !ok {
		return "", nil
	}
	if details.Dist.Integrity != "" {
		return details.Dist.Integrity, nil
	}
	if details.Dist.Shasum != "" {
		return "sha1:" + details.Dist.Shasum, nil
	}
	return "", nil
}

func (c *Client) packument(ctx context.Context, registry, pkg string) (*registryResponse, error) {
	if rterrors.ValidateNpmPackageName(pkg) != nil {
		return nil, nil
	}
	if registry == "" {
		registry = DefaultRegistryURL
	}
	var data registryResponse
	if err := c.Get(ctx, integrations.JoinURL(registry, escapeName(pkg)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

// escapeName encodes the slash of scoped package names ("@types/node").
func escapeName(pkg string) string {
	pkg = strings.TrimSpace(pkg)
	if strings.HasPrefix(pkg, "@") {
		return strings.Replace(pkg, "/", "%2F", 1)
	}
	return pkg
}

// deprecation normalizes the "deprecated" field, which registries send
// as a message string or a boolean.
func deprecation(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "deprecated"
		}
	}
	return ""
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name       string                    `json:"name"`
	DistTags   map[string]string         `json:"dist-tags"`
	Time       map[string]string         `json:"time"`
	Versions   map[string]versionDetails `json:"versions"`
	Repository any                       `json:"repository"`
	HomePage   string                    `json:"homepage"`
}

type versionDetails struct {
	Repository any    `json:"repository"`
	HomePage   string `json:"homepage"`
	Deprecated any    `json:"deprecated"`
	Engines    any    `json:"engines"`
	Dist       dist   `json:"dist"`
}

type dist struct {
	Integrity string `json:"integrity"`
	Shasum    string `json:"shasum"`
}
