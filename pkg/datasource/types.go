package datasource

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/releasetower/pkg/errors"
)

// Strategy selects how multiple candidate registries are queried.
type Strategy string

const (
	StrategyFirst Strategy = "first"
	StrategyHunt  Strategy = "hunt"
	StrategyMerge Strategy = "merge"
)

// ParseStrategy validates s. The empty string parses as the zero Strategy,
// meaning "use the datasource default".
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StrategyFirst, StrategyHunt, StrategyMerge:
		return st, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidStrategy, "unknown registry strategy %q (want first, hunt or merge)", s)
	}
}

// ConstraintsFiltering controls whether releases are filtered by the
// constraints they declare.
type ConstraintsFiltering string

const (
	FilterNone   ConstraintsFiltering = "none"
	FilterStrict ConstraintsFiltering = "strict"
)

// ParseConstraintsFiltering validates s; empty means [FilterNone].
func ParseConstraintsFiltering(s string) (ConstraintsFiltering, error) {
	switch f := ConstraintsFiltering(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterNone:
		return FilterNone, nil
	case FilterStrict:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown constraints filtering %q (want none or strict)", s)
	}
}

// Release is one published version of a package.
type Release struct {
	Version          string              `json:"version" yaml:"version"`
	ReleaseTimestamp *time.Time          `json:"releaseTimestamp,omitempty" yaml:"releaseTimestamp,omitempty"`
	Constraints      map[string][]string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	IsDeprecated     bool                `json:"isDeprecated,omitempty" yaml:"isDeprecated,omitempty"`
	RegistryURL      string              `json:"registryUrl,omitempty" yaml:"registryUrl,omitempty"`
	Digest           string              `json:"digest,omitempty" yaml:"digest,omitempty"`
	Extra            map[string]any      `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ReleaseResult is the outcome of a lookup. Releases keep registry order
// until post-processing sorts them.
type ReleaseResult struct {
	Releases           []Release         `json:"releases" yaml:"releases"`
	RegistryURL        string            `json:"registryUrl,omitempty" yaml:"registryUrl,omitempty"`
	SourceURL          string            `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	SourceDirectory    string            `json:"sourceDirectory,omitempty" yaml:"sourceDirectory,omitempty"`
	ChangelogURL       string            `json:"changelogUrl,omitempty" yaml:"changelogUrl,omitempty"`
	Homepage           string            `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Tags               map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsPrivate          bool              `json:"isPrivate,omitempty" yaml:"isPrivate,omitempty"`
	DeprecationMessage string            `json:"deprecationMessage,omitempty" yaml:"deprecationMessage,omitempty"`
	ReplacementName    string            `json:"replacementName,omitempty" yaml:"replacementName,omitempty"`
	ReplacementVersion string            `json:"replacementVersion,omitempty" yaml:"replacementVersion,omitempty"`
}

// Clone returns a deep copy of r. Extra maps are copied one level deep.
func (r *ReleaseResult) Clone() *ReleaseResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Tags = maps.Clone(r.Tags)
	if r.Releases != nil {
		out.Releases = make([]Release, len(r.Releases))
		for i, rel := range r.Releases {
			out.Releases[i] = rel.clone()
		}
	}
	return &out
}

func (r Release) clone() Release {
	if r.ReleaseTimestamp != nil {
		ts := *r.ReleaseTimestamp
		r.ReleaseTimestamp = &ts
	}
	if r.Constraints != nil {
		c := make(map[string][]string, len(r.Constraints))
		for k, v := range r.Constraints {
			c[k] = slices.Clone(v)
		}
		r.Constraints = c
	}
	r.Extra = maps.Clone(r.Extra)
	return r
}

// Versions returns the release versions in result order.
func (r *ReleaseResult) Versions() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Releases))
	for i, rel := range r.Releases {
		out[i] = rel.Version
	}
	return out
}

// LookupRequest describes one release lookup.
type LookupRequest struct {
	Datasource           string
	PackageName          string
	RegistryURLs         []string
	DefaultRegistryURLs  []string
	RegistryStrategy     Strategy
	ExtractVersion       string
	Versioning           string
	Constraints          map[string]string
	ConstraintsFiltering ConstraintsFiltering
	ReplacementName      string
	ReplacementVersion   string
}

// ReleasesQuery is what a datasource receives for one candidate registry.
type ReleasesQuery struct {
	PackageName string
	RegistryURL string
	Constraints map[string]string
}

// DigestRequest describes a digest lookup.
type DigestRequest struct {
	Datasource          string
	PackageName         string
	RegistryURLs        []string
	DefaultRegistryURLs []string
	ReplacementName     string
	CurrentValue        string
	CurrentDigest       string
}

// DigestQuery is what a [Digester] receives.
type DigestQuery struct {
	PackageName   string
	RegistryURL   string
	CurrentValue  string
	CurrentDigest string
}

func (q ReleasesQuery) String() string {
	return fmt.Sprintf("%s@%s", q.PackageName, q.RegistryURL)
}
