package crates

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "crate"
	// DefaultRegistryURL is the crates.io web API.
	DefaultRegistryURL = "https://crates.io/api/v1"

	userAgent = "releasetower/1.0 (https://github.com/matzehuels/releasetower)"
)

// Client provides access to the crates.io package registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
}

// NewClient creates a crates.io client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "crates:", map[string]string{
		"User-Agent": userAgent,
	})}
}

// Descriptor returns the datasource descriptor for c.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "semver",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyFirst,
		Caching:             true,
	}
}

// GetReleases lists the published versions of a crate. Crate names are
// case-sensitive. Returns nil, nil if the crate does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	data, err := c.crate(ctx, q.RegistryURL, q.PackageName)
	if err != nil || data == nil {
		return nil, err
	}

	res := &datasource.ReleaseResult{
		Releases:  make([]datasource.Release, 0, len(data.Versions)),
		SourceURL: data.Crate.Repository,
		Homepage:  data.Crate.HomePage,
	}
	for _, v := range data.Versions {
		rel := datasource.Release{
			Version:      v.Num,
			IsDeprecated: v.Yanked,
			Digest:       v.Checksum,
		}
		if ts, err := time.Parse(time.RFC3339, v.CreatedAt); err == nil {
			rel.ReleaseTimestamp = &ts
		}
		if v.RustVersion != "" {
			rel.Constraints = map[string][]string{"rust": {v.RustVersion}}
		}
		res.Releases = append(res.Releases, rel)
	}
	return res, nil
}

// Digest returns the sha256 checksum of the crate archive for newValue,
// or for the current value when newValue is empty.
func (c *Client) Digest(ctx context.Context, q datasource.DigestQuery, newValue string) (string, error) {
	data, err := c.crate(ctx, q.RegistryURL, q.PackageName)
	if err != nil || data == nil {
		return "", err
	}
	version := newValue
	if version == "" {
		version = q.CurrentValue
	}
	for _, v := range data.Versions {
		if v.Num == version {
			return v.Checksum, nil
		}
	}
	return "", nil
}

func (c *Client) crate(ctx context.Context, registry, name string) (*crateResponse, error) {
	if rterrors.ValidateCratesPackageName(name) != nil {
		return nil, nil
	}
	if registry == "" {
		registry = DefaultRegistryURL
	}
	var data crateResponse
	if err := c.Get(ctx, integrations.JoinURL(registry, "crates", name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

type crateResponse struct {
	Crate struct {
		Name       string `json:"name"`
		MaxVersion string `json:"max_version"`
		Repository string `json:"repository"`
		HomePage   string `json:"homepage"`
	} `json:"crate"`
	Versions []crateVersion `json:"versions"`
}

type crateVersion struct {
	Num         string `json:"num"`
	CreatedAt   string `json:"created_at"`
	Yanked      bool   `json:"yanked"`
	Checksum    string `json:"checksum"`
	RustVersion string `json:"rust_version"`
}
