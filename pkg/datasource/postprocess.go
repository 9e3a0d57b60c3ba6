package datasource

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
	"github.com/matzehuels/releasetower/pkg/versioning"
)

const defaultVersioning = versioning.Default

// lookupScheme returns the versioning scheme of a lookup. ok is false when
// the requested scheme is unknown and the default was used instead.
func lookupScheme(d Descriptor, req LookupRequest) (scheme versioning.Scheme, id string, ok bool) {
	id = req.Versioning
	if id == "" {
		id = d.versioning()
	}
	if scheme, ok = versioning.Get(id); ok {
		return scheme, id, true
	}
	scheme, _ = versioning.Get(defaultVersioning)
	return scheme, id, false
}

func (s *Service) schemeFor(d Descriptor, req LookupRequest) versioning.Scheme {
	scheme, _, _ := lookupScheme(d, req)
	return scheme
}

// enrich applies manual metadata overrides and normalizes the source URL.
// It is idempotent.
func (s *Service) enrich(datasourceID, packageName string, res *ReleaseResult) {
	if e, ok := s.overrides.Lookup(datasourceID, packageName); ok {
		if e.ChangelogURL != "" {
			res.ChangelogURL = e.ChangelogURL
		}
		if e.SourceURL != "" {
			res.SourceURL = e.SourceURL
		}
	}
	if res.SourceURL != "" {
		res.SourceURL = integrations.NormalizeRepoURL(res.SourceURL)
	}
	res.Homepage = strings.TrimSpace(res.Homepage)
}

// postprocess turns the strategy outcome into the value returned to the
// caller. It returns nil when filtering removed every release.
func (s *Service) postprocess(d Descriptor, req LookupRequest, scheme versioning.Scheme, res *ReleaseResult) (*ReleaseResult, error) {
	if res == nil {
		return nil, nil
	}
	s.enrich(d.ID, req.PackageName, res)
	hadReleases := len(res.Releases) > 0

	releases, err := extractVersions(req.ExtractVersion, res.Releases)
	if err != nil {
		return nil, err
	}
	releases = sortReleases(scheme, releases)
	if req.ConstraintsFiltering == FilterStrict {
		releases = filterConstraints(scheme, req.Constraints, releases)
	}
	res.Releases = releases

	if req.ReplacementName != "" {
		res.ReplacementName = req.ReplacementName
	}
	if req.ReplacementVersion != "" {
		res.ReplacementVersion = req.ReplacementVersion
	}

	if hadReleases && len(res.Releases) == 0 {
		return nil, nil
	}
	return res, nil
}

// extractVersions replaces each version with the "version" group of
// pattern, dropping releases that do not match.
func extractVersions(pattern string, releases []Release) ([]Release, error) {
	if pattern == "" {
		return releases, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid extractVersion %q", pattern)
	}
	group := re.SubexpIndex("version")

	out := make([]Release, 0, len(releases))
	for _, rel := range releases {
		if group < 0 {
			break
		}
		m := re.FindStringSubmatch(rel.Version)
		if m == nil || m[group] == "" {
			continue
		}
		rel.Version = m[group]
		out = append(out, rel)
	}
	return out, nil
}

// sortReleases drops invalid and duplicate versions and sorts the rest
// in ascending order. Among duplicates the first release wins.
func sortReleases(scheme versioning.Scheme, releases []Release) []Release {
	seen := make(map[string]bool, len(releases))
	out := make([]Release, 0, len(releases))
	for _, rel := range releases {
		if seen[rel.Version] || !scheme.IsVersion(rel.Version) {
			continue
		}
		seen[rel.Version] = true
		out = append(out, rel)
	}
	slices.SortStableFunc(out, func(a, b Release) int {
		return scheme.Compare(a.Version, b.Version)
	})
	return out
}

// filterConstraints keeps releases whose declared constraints admit every
// requested range. Invalid requested ranges are ignored.
func filterConstraints(scheme versioning.Scheme, constraints map[string]string, releases []Release) []Release {
	for _, name := range slices.Sorted(maps.Keys(constraints)) {
		want := constraints[name]
		if !scheme.IsValid(want) {
			continue
		}
		releases = slices.DeleteFunc(releases, func(rel Release) bool {
			return !admits(scheme, want, rel.Constraints[name])
		})
	}
	return releases
}

func admits(scheme versioning.Scheme, want string, declared []string) bool {
	if len(declared) == 0 {
		return true
	}
	for _, c := range declared {
		if c == "" {
			return true
		}
		if ok, err := scheme.Subset(want, c); err == nil && ok {
			return true
		}
	}
	return false
}
