package goproxy

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "go"
	// DefaultRegistryURL is the public Go module proxy.
	DefaultRegistryURL = "https://proxy.golang.org"
)

var repoRE = regexp.MustCompile(`^(github\.com|gitlab\.com|bitbucket\.org)/([^/]+)/([^/]+)`)

// Client provides access to the Go module proxy protocol.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a Go module proxy client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "goproxy:", nil)}
}

// Descriptor returns the datasource descriptor for c. The default
// registries are read from GOPROXY at lookup time.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "semver",
		DefaultRegistryURLs: datasource.DynamicURLs(ProxyURLs),
		RegistryStrategy:    datasource.StrategyHunt,
		Caching:             true,
	}
}

// ProxyURLs parses the GOPROXY environment variable. "direct" entries are
// skipped and "off" ends the list. An unset GOPROXY yields the public proxy.
func ProxyURLs() []string {
	return parseGoProxy(os.Getenv("GOPROXY"))
}

func parseGoProxy(env string) []string {
	if strings.TrimSpace(env) == "" {
		return []string{DefaultRegistryURL}
	}
	var urls []string
	for _, p := range strings.FieldsFunc(env, func(r rune) bool { return r == ',' || r == '|' }) {
		switch p = strings.TrimSpace(p); p {
		case "", "direct":
			continue
		case "off":
			return urls
		}
		urls = append(urls, strings.TrimRight(p, "/"))
	}
	return urls
}

// GetReleases lists the versions of a module from the @v/list endpoint.
// The version reported by @latest becomes the "latest" tag, and the go.mod
// of that version supplies the deprecation notice and retracted versions.
// Returns nil, nil if the module does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	mod := strings.TrimSpace(q.PackageName)
	if rterrors.ValidateGoModulePath(mod) != nil {
		return nil, nil
	}
	proxy := q.RegistryURL
	if proxy == "" {
		proxy = DefaultRegistryURL
	}
	base := integrations.JoinURL(proxy, escapePath(mod), "@v")

	list, err := c.GetText(ctx, base+"/list")
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	res := &datasource.ReleaseResult{
		Releases:  []datasource.Release{},
		SourceURL: sourceURL(mod),
	}
	for _, line := range strings.Split(list, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			res.Releases = append(res.Releases, datasource.Release{Version: v})
		}
	}

	latest, err := c.latest(ctx, proxy, mod)
	if err != nil {
		if len(res.Releases) == 0 {
			if errors.Is(err, integrations.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return res, nil
	}
	res.Tags = map[string]string{"latest": latest.Version}
	applyLatest(res, latest)

	if body, err := c.GetText(ctx, base+"/"+latest.Version+".mod"); err == nil {
		if info, err := parseGoMod(strings.NewReader(body)); err == nil {
			res.DeprecationMessage = info.Deprecated
			markRetracted(res.Releases, info.Retract)
		}
	}
	return res, nil
}

func (c *Client) latest(ctx context.Context, proxy, mod string) (*latestResponse, error) {
	var data latestResponse
	if err := c.Get(ctx, integrations.JoinURL(proxy, escapePath(mod), "@latest"), &data); err != nil {
		return nil, err
	}
	if data.Version == "" {
		return nil, integrations.ErrNotFound
	}
	return &data, nil
}

// applyLatest stamps the @latest time on its release, adding the release
// when @v/list did not contain it (pseudo-versions).
func applyLatest(res *datasource.ReleaseResult, latest *latestResponse) {
	var ts *time.Time
	if t, err := time.Parse(time.RFC3339, latest.Time); err == nil {
		ts = &t
	}
	for i := range res.Releases {
		if res.Releases[i].Version == latest.Version {
			res.Releases[i].ReleaseTimestamp = ts
			return
		}
	}
	res.Releases = append(res.Releases, datasource.Release{Version: latest.Version, ReleaseTimestamp: ts})
}

func sourceURL(mod string) string {
	m := repoRE.FindStringSubmatch(mod)
	if m == nil {
		return ""
	}
	return "https://" + m[1] + "/" + m[2] + "/" + m[3]
}

// escapePath applies the module proxy case encoding ("Azure" -> "!azure").
func escapePath(path string) string {
	var b strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('!')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type latestResponse struct {
	Version string `json:"Version"`
	Time    string `json:"Time"`
}
