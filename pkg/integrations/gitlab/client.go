package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "gitlab-tags"
	// DefaultRegistryURL is gitlab.com.
	DefaultRegistryURL = "https://gitlab.com"

	perPage = 100
)

// Client lists the tags of GitLab projects. Tokens come from host rules;
// use AuthType "PRIVATE-TOKEN" for personal access tokens.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a GitLab tags client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "gitlab:", nil)}
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

// GetReleases lists the tags of a project given as its full path
// ("group/subgroup/project"). Returns nil, nil if the project does not exist.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	project, err := projectPath(q.PackageName)
	if err != nil {
		return nil, err
	}
	api := apiBase(q.RegistryURL, project)

	var info projectResponse
	if err := c.Get(ctx, api, &info); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var tags []tagResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/repository/tags?per_page=%d", api, perPage), &tags); err != nil {
		return nil, err
	}

	res := &datasource.ReleaseResult{
		Releases:  make([]datasource.Release, 0, len(tags)),
		SourceURL: info.WebURL,
		IsPrivate: info.Visibility == "private",
	}
	if info.Archived {
		res.DeprecationMessage = "The repository is archived."
	}
	for _, t := range tags {
		res.Releases = append(res.Releases, datasource.Release{
			Version:          t.Name,
			Digest:           t.Commit.ID,
			ReleaseTimestamp: t.Commit.CreatedAt,
		})
	}
	return res, nil
}

// Digest returns the commit id of the tag newValue (or the current value).
// With neither set, it returns the head commit of the default branch.
func (c *Client) Digest(ctx context.Context, q datasource.DigestQuery, newValue string) (string, error) {
	project, err := projectPath(q.PackageName)
	if err != nil {
		return "", err
	}
	api := apiBase(q.RegistryURL, project)

	tag := newValue
	if tag == "" {
		tag = q.CurrentValue
	}
	if tag == "" {
		var commits []commitRef
		if err := c.Get(ctx, api+"/repository/commits?per_page=1", &commits); err != nil {
			return "", err
		}
		if len(commits) == 0 {
			return "", integrations.ErrNotFound
		}
		return commits[0].ID, nil
	}

	var t tagResponse
	if err := c.Get(ctx, api+"/repository/tags/"+url.PathEscape(tag), &t); err != nil {
		return "", err
	}
	return t.Commit.ID, nil
}

// apiBase returns the project endpoint of the v4 API on registry.
func apiBase(registry, project string) string {
	if registry == "" {
		registry = DefaultRegistryURL
	}
	registry = strings.TrimSuffix(strings.TrimRight(registry, "/"), "/api/v4")
	return registry + "/api/v4/projects/" + url.PathEscape(project)
}

func projectPath(name string) (string, error) {
	name = strings.Trim(strings.TrimSuffix(strings.TrimSpace(name), ".git"), "/")
	if strings.Contains(name, "://") {
		if u, err := url.Parse(name); err == nil {
			name = strings.Trim(strings.TrimSuffix(u.Path, ".git"), "/")
		}
	}
	if !strings.Contains(name, "/") {
		return "", rterrors.New(rterrors.ErrCodeInvalidInput, "invalid project %q (expected group/project)", name)
	}
	return name, nil
}

type projectResponse struct {
	WebURL     string `json:"web_url"`
	Visibility string `json:"visibility"`
	Archived   bool   `json:"archived"`
}

type tagResponse struct {
	Name   string    `json:"name"`
	Commit commitRef `json:"commit"`
}

type commitRef struct {
	ID        string     `json:"id"`
	CreatedAt *time.Time `json:"created_at"`
}
