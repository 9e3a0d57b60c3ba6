package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	// ID is the datasource id.
	ID = "maven"
	// DefaultRegistryURL is Maven Central.
	DefaultRegistryURL = "https://repo1.maven.org/maven2"
)

// Client provides access to Maven repositories laid out in the standard
// directory format.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a Maven repository client.
func NewClient(opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(opts, "maven:", nil)}
}

// Descriptor returns the datasource descriptor for c. Artifacts are often
// spread over several repositories, so results are merged by default.
func (c *Client) Descriptor() datasource.Descriptor {
	return datasource.Descriptor{
		ID:                  ID,
		Source:              c,
		DefaultVersioning:   "loose",
		DefaultRegistryURLs: datasource.StaticURLs(DefaultRegistryURL),
		RegistryStrategy:    datasource.StrategyMerge,
		Caching:             true,
	}
}

// GetReleases lists the versions of the artifact "groupId:artifactId" from
// its maven-metadata.xml. The POM of the latest release supplies the
// homepage, SCM URL and relocation target.
// Returns nil, nil if the artifact does not exist in the repository.
func (c *Client) GetReleases(ctx context.Context, q datasource.ReleasesQuery) (*datasource.ReleaseResult, error) {
	groupID, artifactID, err := parseCoordinate(q.PackageName)
	if err != nil {
		return nil, err
	}
	registry := q.RegistryURL
	if registry == "" {
		registry = DefaultRegistryURL
	}
	base := integrations.JoinURL(registry, strings.ReplaceAll(groupID, ".", "/"), artifactID)

	var meta mavenMetadata
	if err := c.getXML(ctx, base+"/maven-metadata.xml", &meta); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	res := &datasource.ReleaseResult{Releases: make([]datasource.Release, 0, len(meta.Versioning.Versions))}
	for _, v := range meta.Versioning.Versions {
		if v = strings.TrimSpace(v); v != "" {
			res.Releases = append(res.Releases, datasource.Release{Version: v})
		}
	}
	tags := map[string]string{}
	if v := strings.TrimSpace(meta.Versioning.Latest); v != "" {
		tags["latest"] = v
	}
	if v := strings.TrimSpace(meta.Versioning.Release); v != "" {
		tags["release"] = v
	}
	if len(tags) > 0 {
		res.Tags = tags
	}

	version := tags["release"]
	if version == "" && len(res.Releases) > 0 {
		version = res.Releases[len(res.Releases)-1].Version
	}
	if version != "" {
		var pom pomProject
		if err := c.getXML(ctx, base+"/"+version+"/"+artifactID+"-"+version+".pom", &pom); err == nil {
			applyPOM(res, &pom, groupID, artifactID)
		}
	}
	return res, nil
}

func (c *Client) getXML(ctx context.Context, url string, v any) error {
	body, err := c.GetText(ctx, url)
	if err != nil {
		return err
	}
	return xml.Unmarshal([]byte(body), v)
}

func applyPOM(res *datasource.ReleaseResult, pom *pomProject, groupID, artifactID string) {
	res.Homepage = strings.TrimSpace(pom.URL)
	res.SourceURL = strings.TrimSpace(pom.SCM.URL)
	if res.SourceURL == "" {
		res.SourceURL = strings.TrimSpace(pom.SCM.Connection)
	}
	if r := pom.Relocation; r != nil {
		g, a := orDefault(r.GroupID, groupID), orDefault(r.ArtifactID, artifactID)
		if g != groupID || a != artifactID {
			res.ReplacementName = g + ":" + a
		}
		res.ReplacementVersion = strings.TrimSpace(r.Version)
		res.DeprecationMessage = strings.TrimSpace(r.Message)
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(strings.TrimSpace(coord), ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", rterrors.New(rterrors.ErrCodeInvalidInput,
			"invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	return parts[0], parts[1], nil
}

type mavenMetadata struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Versioning struct {
		Latest      string   `xml:"latest"`
		Release     string   `xml:"release"`
		Versions    []string `xml:"versions>version"`
		LastUpdated string   `xml:"lastUpdated"`
	} `xml:"versioning"`
}

type pomProject struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	URL        string `xml:"url"`
	SCM        struct {
		URL        string `xml:"url"`
		Connection string `xml:"connection"`
	} `xml:"scm"`
	Relocation *pomRelocation `xml:"distributionManagement>relocation"`
}

type pomRelocation struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Message    string `xml:"message"`
}
