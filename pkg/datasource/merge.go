package datasource

import "github.com/matzehuels/releasetower/pkg/versioning"

// mergeResults combines per-registry results in candidate order.
//
// Releases are stamped with their registry and de-duplicated by version
// string, keeping the earliest. Scalar metadata comes from the earliest
// result that has it. A tag present in several results resolves to the
// highest version under scheme; ties and unparseable values keep the
// earliest. The merged result has no top-level registry URL.
func mergeResults(scheme versioning.Scheme, results []*ReleaseResult) *ReleaseResult {
	out := &ReleaseResult{Releases: []Release{}}
	seen := make(map[string]bool)

	for _, res := range results {
		for _, rel := range res.Releases {
			if seen[rel.Version] {
				continue
			}
			seen[rel.Version] = true
			rel = rel.clone()
			if rel.RegistryURL == "" {
				rel.RegistryURL = res.RegistryURL
			}
			out.Releases = append(out.Releases, rel)
		}

		fillString(&out.SourceURL, res.SourceURL)
		fillString(&out.SourceDirectory, res.SourceDirectory)
		fillString(&out.ChangelogURL, res.ChangelogURL)
		fillString(&out.Homepage, res.Homepage)
		fillString(&out.DeprecationMessage, res.DeprecationMessage)
		fillString(&out.ReplacementName, res.ReplacementName)
		fillString(&out.ReplacementVersion, res.ReplacementVersion)
		out.IsPrivate = out.IsPrivate || res.IsPrivate

		for tag, v := range res.Tags {
			if out.Tags == nil {
				out.Tags = make(map[string]string)
			}
			prev, ok := out.Tags[tag]
			if !ok {
				out.Tags[tag] = v
				continue
			}
			out.Tags[tag] = mergeTag(scheme, prev, v)
		}
	}
	return out
}

func mergeTag(scheme versioning.Scheme, prev, next string) string {
	if !scheme.IsVersion(prev) || !scheme.IsVersion(next) {
		return prev
	}
	if scheme.Compare(next, prev) > 0 {
		return next
	}
	return prev
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
