package packagist

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "packagist"
	// DefaultRegistryURL is the Packagist metadata repository.
	DefaultRegistryURL = "https://repo.packagist.org"

	minifiedV2 = "composer/2.0"
	unset      = "__unset"
)

// Client provides access to Composer v2 repositories.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a Packagist client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "packagist:", nil)}
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

// GetReleases lists the tagged versions of a "vendor/package" from
// p2/{name}.json, expanding the minified format. The PHP requirement of
// each version becomes the "php" constraint.
// Returns nil, nil if the package does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	pkg := strings.ToLower(strings.TrimSpace(q.PackageName))
	registry := q.RegistryURL
	if registry == "" {
		registry = DefaultRegistryURL
	}

	var data p2Response
	if err := c.Get(ctx, integrations.JoinURL(registry, "p2", pkg+".json"), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	raw, ok := data.Packages[pkg]
	if !ok {
		return nil, nil
	}
	if data.Minified == minifiedV2 {
		raw = expand(raw)
	}

	res := &datasource.ReleaseResult{Releases: make([]datasource.Release, 0, len(raw))}
	for i, entry := range raw {
		v, err := decodeVersion(entry)
		if err != nil || v.Version == "" {
			continue
		}
		res.Releases = append(res.Releases, v.release())
		if i == 0 {
			res.Homepage = v.Homepage
			res.SourceURL = v.Source.URL
			applyAbandoned(res, v.Abandoned)
		}
	}
	return res, nil
}

// expand undoes Composer's minification: every entry inherits the keys of
// the previous one, and the value "__unset" removes an inherited key.
func expand(entries []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	var prev map[string]any
	for _, entry := range entries {
		cur := make(map[string]any, len(prev)+len(entry))
		for k, v := range prev {
			cur[k] = v
		}
		for k, v := range entry {
			if s, ok := v.(string); ok && s == unset {
				delete(cur, k)
				continue
			}
			cur[k] = v
		}
		out = append(out, cur)
		prev = cur
	}
	return out
}

func decodeVersion(entry map[string]any) (*p2Version, error) {
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var v p2Version
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *p2Version) release() datasource.Release {
	rel := datasource.Release{Version: v.Version}
	if ts, err := time.Parse(time.RFC3339, v.Time); err == nil {
		rel.ReleaseTimestamp = &ts
	}
	if php := v.Require["php"]; php != "" {
		rel.Constraints = map[string][]string{"php": {php}}
	}
	return rel
}

// applyAbandoned maps the "abandoned" flag, which is either true or the
// name of the suggested replacement package.
func applyAbandoned(res *datasource.ReleaseResult, abandoned json.RawMessage) {
	if len(abandoned) == 0 {
		return
	}
	var flag bool
	if json.Unmarshal(abandoned, &flag) == nil {
		if flag {
			res.DeprecationMessage = "This package is abandoned."
		}
		return
	}
	var replacement string
	if json.Unmarshal(abandoned, &replacement) == nil && replacement != "" {
		res.DeprecationMessage = "This package is abandoned, use " + replacement + " instead."
		res.ReplacementName = replacement
	}
}

type p2Response struct {
	Minified string                      `json:"minified"`
	Packages map[string][]map[string]any `json:"packages"`
}

type p2Version struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Time      string            `json:"time"`
	Homepage  string            `json:"homepage"`
	Require   map[string]string `json:"-"`
	Abandoned json.RawMessage   `json:"abandoned"`
	Source    struct {
		URL string `json:"url"`
	} `json:"source"`
}

// UnmarshalJSON tolerates "require" being an empty list or holding
// non-string values, both of which occur in the wild.
func (v *p2Version) UnmarshalJSON(b []byte) error {
	type plain p2Version
	var r struct {
		plain
		Require json.RawMessage `json:"require"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*v = p2Version(r.plain)

	if len(r.Require) > 0 && string(r.Require) != "null" {
		var anyObj map[string]any
		if json.Unmarshal(r.Require, &anyObj) == nil {
			v.Require = make(map[string]string, len(anyObj))
			for k, val := range anyObj {
				if s, ok := val.(string); ok {
					v.Require[k] = s
				}
			}
		}
	}
	return nil
}
