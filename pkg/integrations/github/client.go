package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "github-tags"
	// DefaultRegistryURL is the public GitHub API.
	DefaultRegistryURL = "https://api.github.com"

	perPage  = 100
	maxPages = 10
)

var repoURLPattern = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// Client lists the tags of GitHub repositories. Tokens are supplied by
// host rules for the API host.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a GitHub tags client.
func NewClient(opts integrations.Options) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	return &Client{Client: integrations.NewClient(opts, "github:", headers)}
}

// Descriptor returns the datasource descriptor for c.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "semver-coerced",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyFirst,
		Caching:             true,
	}
}

// GetReleases lists the tags of "owner/repo" (a full repository URL is
// also accepted). Release publication dates become timestamps and
// prereleases are flagged in Extra. Returns nil, nil if the repository
// does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	owner, repo, err := ParseRepo(q.PackageName)
	if err != nil {
		return nil, err
	}
	api := apiBase(q.RegistryURL)

	var info repoResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/repos/%s/%s", api, owner, repo), &info); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	tags, err := c.tags(ctx, api, owner, repo)
	if err != nil {
		return nil, err
	}
	published := c.releaseDates(ctx, api, owner, repo)

	res := &datasource.ReleaseResult{
		Releases:  make([]datasource.Release, 0, len(tags)),
		SourceURL: info.HTMLURL,
		Homepage:  info.Homepage,
		IsPrivate: info.Private,
	}
	if res.SourceURL == "" {
		res.SourceURL = "https://github.com/" + owner + "/" + repo
	}
	if info.Archived {
		res.DeprecationMessage = "The repository is archived."
	}
	for _, t := range tags {
		rel := datasource.Release{Version: t.Name, Digest: t.Commit.SHA}
		if r, ok := published[t.Name]; ok {
			rel.ReleaseTimestamp = r.PublishedAt
			if r.Prerelease {
				rel.Extra = map[string]any{"prerelease": true}
			}
		}
		res.Releases = append(res.Releases, rel)
	}
	return res, nil
}

// Digest returns the commit SHA of the tag newValue (or the current value).
// With neither set, it returns the head commit of the default branch.
func (c *Client) Digest(ctx context.Context, q datasource.DigestQuery, newValue string) (string, error) {
	owner, repo, err := ParseRepo(q.PackageName)
	if err != nil {
		return "", err
	}
	api := apiBase(q.RegistryURL)

	tag := newValue
	if tag == "" {
		tag = q.CurrentValue
	}
	if tag == "" {
		var commits []commitRef
		if err := c.Get(ctx, fmt.Sprintf("%s/repos/%s/%s/commits?per_page=1", api, owner, repo), &commits); err != nil {
			return "", err
		}
		if len(commits) == 0 {
			return "", integrations.ErrNotFound
		}
		return commits[0].SHA, nil
	}

	tags, err := c.tags(ctx, api, owner, repo)
	if err != nil {
		return "", err
	}
	for _, t := range tags {
		if t.Name == tag {
			return t.Commit.SHA, nil
		}
	}
	return "", integrations.ErrNotFound
}

func (c *Client) tags(ctx context.Context, api, owner, repo string) ([]tagResponse, error) {
	var all []tagResponse
	for page := 1; page <= maxPages; page++ {
		var batch []tagResponse
		u := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=%d&page=%d", api, owner, repo, perPage, page)
		if err := c.Get(ctx, u, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return all, nil
}

// releaseDates maps tag names to their GitHub release. Failures are
// ignored since tags without releases are common.
func (c *Client) releaseDates(ctx context.Context, api, owner, repo string) map[string]releaseResponse {
	var data []releaseResponse
	u := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", api, owner, repo, perPage)
	if err := c.Get(ctx, u, &data); err != nil {
		return nil
	}
	out := make(map[string]releaseResponse, len(data))
	for _, r := range data {
		out[r.TagName] = r
	}
	return out
}

// apiBase maps a registry URL to its REST API root. GitHub Enterprise
// hosts serve the API under /api/v3.
func apiBase(registry string) string {
	if registry == "" {
		return DefaultRegistryURL
	}
	registry = strings.TrimRight(registry, "/")
	u, err := url.Parse(registry)
	if err != nil || u.Host == "api.github.com" || strings.HasSuffix(u.Path, "/api/v3") {
		return registry
	}
	if u.Host == "github.com" {
		return DefaultRegistryURL
	}
	return registry + "/api/v3"
}

// ParseRepo splits "owner/repo" or a repository URL into its parts.
func ParseRepo(name string) (owner, repo string, err error) {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "://") {
		if o, r, ok := integrations.ExtractRepoURL(repoURLPattern, nil, name); ok {
			return o, r, nil
		}
	} else if o, r, ok := strings.Cut(strings.TrimSuffix(name, ".git"), "/"); ok && o != "" && r != "" && !strings.Contains(r, "/") {
		return o, r, nil
	}
	return "", "", rterrors.New(rterrors.ErrCodeInvalidInput, "invalid repository %q (expected owner/repo)", name)
}

type repoResponse struct {
	Private  bool   `json:"private"`
	Archived bool   `json:"archived"`
	HTMLURL  string `json:"html_url"`
	Homepage string `json:"homepage"`
}

type tagResponse struct {
	Name   string    `json:"name"`
	Commit commitRef `json:"commit"`
}

type commitRef struct {
	SHA string `json:"sha"`
}

type releaseResponse struct {
	TagName     string     `json:"tag_name"`
	PublishedAt *time.Time `json:"published_at"`
	Prerelease  bool       `json:"prerelease"`
}
