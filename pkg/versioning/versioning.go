// Package versioning implements the version schemes used to validate, order
// and match release versions.
//
// # Schemes
//
// A [Scheme] answers four questions about strings it understands:
//   - is this a single version? ([Scheme.IsVersion])
//   - is this a version or a range? ([Scheme.IsValid])
//   - how do two versions order? ([Scheme.Compare])
//   - does a version satisfy a range, and is one range inside another?
//     ([Scheme.Matches], [Scheme.Subset])
//
// Built-in schemes:
//
//   - semver: strict MAJOR.MINOR.PATCH with an optional leading "v"
//   - semver-coerced: like semver but partial versions ("1", "1.2") are coerced
//   - loose: any dotted numeric version with an optional suffix ("v4.3", "1.2.3.4", "32.1.3-jre")
//   - pep440: Python package versions and specifiers
//
// The aliases "npm" (semver) and "python" (pep440) are also registered.
//
// # Ranges
//
// Ranges are parsed into unions of intervals. Clauses are separated by commas
// or whitespace and intersected; semver-like schemes also accept "||" unions
// and "a - b" hyphen ranges. Supported operators are =, ==, ===, !=, <, <=,
// >, >=, ^, ~ and ~=, plus "*" / "x" wildcards.
//
// # Usage
//
//	s, _ := versioning.Get("pep440")
//	s.Compare("1.0rc1", "1.0")            // -1
//	s.Matches("2.7.3", ">=2.7,<3")        // true
//	s.Subset(">=2.7,<3.0", ">=2.7,<4.0")  // true, nil
package versioning

import (
	"slices"
	"sort"
)

// Default is the scheme used when neither the request nor the datasource names one.
const Default = "semver-coerced"

// Scheme is a versioning scheme.
type Scheme interface {
	// ID returns the scheme identifier.
	ID() string
	// IsVersion reports whether v is a single valid version.
	IsVersion(v string) bool
	// IsValid reports whether s is a valid version or range.
	IsValid(s string) bool
	// Compare orders two versions. Invalid versions sort before valid ones.
	Compare(a, b string) int
	// Matches reports whether version v satisfies range r.
	Matches(v, r string) bool
	// Subset reports whether every version matched by sub is matched by super.
	Subset(sub, super string) (bool, error)
}

var schemes = map[string]Scheme{}

func register(id string, s Scheme) {
	schemes[id] = s
}

func init() {
	semverStrict := newSemver("semver", false)
	register("semver", semverStrict)
	register("npm", semverStrict)
	register("semver-coerced", newSemver("semver-coerced", true))
	register("loose", newLoose())
	pep := newPEP440()
	register("pep440", pep)
	register("python", pep)
}

// Get returns the scheme registered under id.
func Get(id string) (Scheme, bool) {
	s, ok := schemes[id]
	return s, ok
}

// List returns all registered scheme ids, sorted.
func List() []string {
	ids := make([]string, 0, len(schemes))
	for id := range schemes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Sort orders versions ascending under s. The sort is stable so equal
// versions keep their input order.
func Sort(s Scheme, versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return s.Compare(versions[i], versions[j]) < 0
	})
}

// Max returns the highest version under s, or "" if versions is empty.
// Earlier entries win ties.
func Max(s Scheme, versions ...string) string {
	var best string
	for i, v := range versions {
		if i == 0 || s.Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}
