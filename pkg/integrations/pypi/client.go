package pypi

import (
	"context"
	"errors"
	"html"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "pypi"
	// DefaultRegistryURL is the JSON API of pypi.org.
	DefaultRegistryURL = "https://pypi.org/pypi"
)

var (
	sourceKeyRE    = regexp.MustCompile(`(?i)^(source|repository|code|github|gitlab)`)
	changelogKeyRE = regexp.MustCompile(`(?i)^(changelog|change log|changes|release notes|news|history)`)
	repoHostRE     = regexp.MustCompile(`^https?://(www\.)?(github\.com|gitlab\.com|bitbucket\.org)/`)
	anchorRE       = regexp.MustCompile(`(?is)<a\s+([^>]*)>([^<]+)</a>`)
	attrRE         = regexp.MustCompile(`(?i)(data-requires-python|data-yanked)(?:="([^"]*)")?`)
	archiveRE      = regexp.MustCompile(`(?i)\.(tar\.gz|tar\.bz2|tar\.xz|zip|whl|egg)$`)
)

// Client provides access to PyPI-compatible registries.
// Registries whose path ends in "/simple" are read through the PEP 503
// simple index; all others through the JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a PyPI client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "pypi:", nil)}
}

// Descriptor returns the datasource descriptor for c.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "pep440",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyHunt,
		Caching:             true,
	}
}

// GetReleases lists the releases of a Python package. The package name is
// normalized following PEP 503. Returns nil, nil if the package does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	if rterrors.ValidatePythonPackageName(q.PackageName) != nil {
		return nil, nil
	}
	pkg := integrations.NormalizePkgName(q.PackageName)
	registry := q.RegistryURL
	if registry == "" {
		registry = DefaultRegistryURL
	}

	var (
		res *datasource.ReleaseResult
		err error
	)
	if isSimpleIndex(registry) {
		res, err = c.simple(ctx, registry, pkg)
	} else {
		res, err = c.json(ctx, registry, pkg)
	}
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	return res, err
}

func isSimpleIndex(registry string) bool {
	return strings.HasSuffix(strings.TrimRight(registry, "/"), "/simple")
}

func (c *Client) json(ctx context.Context, registry, pkg string) (*datasource.ReleaseResult, error) {
	var data apiResponse
	if err := c.Get(ctx, integrations.JoinURL(registry, pkg, "json"), &data); err != nil {
		return nil, err
	}

	res := &datasource.ReleaseResult{Releases: []datasource.Release{}}
	urls := projectURLs(data.Info.ProjectURLs)
	res.Homepage = data.Info.HomePage
	if res.Homepage == "" {
		res.Homepage = urls["Homepage"]
	}
	res.SourceURL = sourceURL(urls, res.Homepage)
	res.ChangelogURL = matchingURL(urls, changelogKeyRE)

	for _, version := range slices.Sorted(maps.Keys(data.Releases)) {
		res.Releases = append(res.Releases, toRelease(version, data.Releases[version]))
	}
	return res, nil
}

func toRelease(version string, files []apiFile) datasource.Release {
	rel := datasource.Release{Version: version}
	yanked := len(files) > 0
	for _, f := range files {
		if ts, err := time.Parse(time.RFC3339, f.UploadTime); err == nil {
			if rel.ReleaseTimestamp == nil || ts.Before(*rel.ReleaseTimestamp) {
				rel.ReleaseTimestamp = &ts
			}
		}
		if f.RequiresPython != "" && rel.Constraints == nil {
			rel.Constraints = map[string][]string{"python": {f.RequiresPython}}
		}
		yanked = yanked && f.Yanked
	}
	rel.IsDeprecated = yanked
	return rel
}

// simple reads a PEP 503 project page and derives versions from file names.
func (c *Client) simple(ctx context.Context, registry, pkg string) (*datasource.ReleaseResult, error) {
	body, err := c.GetText(ctx, integrations.JoinURL(registry, pkg)+"/")
	if err != nil {
		return nil, err
	}

	releases := map[string]*datasource.Release{}
	var order []string
	for _, m := range anchorRE.FindAllStringSubmatch(body, -1) {
		version := versionFromFile(pkg, strings.TrimSpace(html.UnescapeString(m[2])))
		if version == "" {
			continue
		}
		rel, ok := releases[version]
		if !ok {
			rel = &datasource.Release{Version: version, IsDeprecated: true}
			releases[version] = rel
			order = append(order, version)
		}
		yanked := false
		for _, a := range attrRE.FindAllStringSubmatch(m[1], -1) {
			switch strings.ToLower(a[1]) {
			case "data-requires-python":
				if v := html.UnescapeString(a[2]); v != "" && rel.Constraints == nil {
					rel.Constraints = map[string][]string{"python": {v}}
				}
			case "data-yanked":
				yanked = true
			}
		}
		rel.IsDeprecated = rel.IsDeprecated && yanked
	}

	res := &datasource.ReleaseResult{Releases: make([]datasource.Release, 0, len(order))}
	for _, v := range order {
		res.Releases = append(res.Releases, *releases[v])
	}
	return res, nil
}

// versionFromFile extracts the version from an sdist or wheel file name.
func versionFromFile(pkg, file string) string {
	if !archiveRE.MatchString(file) {
		return ""
	}
	stem := archiveRE.ReplaceAllString(file, "")
	parts := strings.Split(pkg, "-")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile(`(?i)^` + strings.Join(parts, "[-_.]") + `-([^-]+)`)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(stem)
	if m == nil {
		return ""
	}
	return m[1]
}

func projectURLs(raw map[string]any) map[string]string {
	urls := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}
	return urls
}

func sourceURL(urls map[string]string, homepage string) string {
	if u := matchingURL(urls, sourceKeyRE); u != "" {
		return u
	}
	if repoHostRE.MatchString(homepage) {
		return homepage
	}
	return ""
}

func matchingURL(urls map[string]string, re *regexp.Regexp) string {
	for _, k := range slices.Sorted(maps.Keys(urls)) {
		if re.MatchString(k) && urls[k] != "" {
			return urls[k]
		}
	}
	return ""
}

type apiResponse struct {
	Info     apiInfo              `json:"info"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiInfo struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	ProjectURLs map[string]any `json:"project_urls"`
	HomePage    string         `json:"home_page"`
}

type apiFile struct {
	UploadTime     string `json:"upload_time_iso_8601"`
	RequiresPython string `json:"requires_python"`
	Yanked         bool   `json:"yanked"`
}
