package versioning

import (
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/releasetower/pkg/errors"
)

var strictSemverRE = regexp.MustCompile(`^[vV=]?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

// semverScheme wraps Masterminds/semver. When coerce is set, partial
// versions such as "1" or "v1.2" are accepted as single versions.
type semverScheme struct {
	id      string
	coerce  bool
	grammar grammar
}

func newSemver(id string, coerce bool) *semverScheme {
	return &semverScheme{
		id:     id,
		coerce: coerce,
		grammar: grammar{
			compare:           compareSemver,
			valid:             func(s string) bool { _, err := semver.NewVersion(s); return err == nil },
			partialIsWildcard: true,
			semverish:         true,
		},
	}
}

func (s *semverScheme) ID() string { return s.id }

func (s *semverScheme) IsVersion(v string) bool {
	if _, err := semver.NewVersion(v); err != nil {
		return false
	}
	return s.coerce || strictSemverRE.MatchString(v)
}

func (s *semverScheme) IsValid(r string) bool {
	if s.IsVersion(r) {
		return true
	}
	_, ok := s.grammar.parse(r)
	return ok
}

func (s *semverScheme) Compare(a, b string) int {
	return compareSemver(a, b)
}

func (s *semverScheme) Matches(v, r string) bool {
	if !s.IsVersion(v) {
		return false
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	if c, err := semver.NewConstraint(r); err == nil {
		return c.Check(ver)
	}
	set, ok := s.grammar.parse(r)
	return ok && s.grammar.contains(set, v)
}

func (s *semverScheme) Subset(sub, super string) (bool, error) {
	return subsetOf(s.grammar, s.id, sub, super)
}

func compareSemver(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

func subsetOf(g grammar, id, sub, super string) (bool, error) {
	subSet, ok := g.parse(sub)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidVersioning, "invalid %s range %q", id, sub)
	}
	superSet, ok := g.parse(super)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidVersioning, "invalid %s range %q", id, super)
	}
	return g.subset(subSet, superSet), nil
}
