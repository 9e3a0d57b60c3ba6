package versioning

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
)

var looseRE = regexp.MustCompile(`^[vV]?(\d+(?:\.\d+)*)(?:[-+._]?([0-9A-Za-z][0-9A-Za-z.+_-]*))?$`)

type looseVersion struct {
	release []int
	suffix  string
}

func parseLoose(v string) (looseVersion, bool) {
	m := looseRE.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return looseVersion{}, false
	}
	fields := strings.Split(m[1], ".")
	lv := looseVersion{release: make([]int, len(fields)), suffix: m[2]}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return looseVersion{}, false
		}
		lv.release[i] = n
	}
	return lv, true
}

// looseScheme orders dotted numeric versions part by part. A version with a
// suffix sorts before the same release without one.
type looseScheme struct {
	grammar grammar
}

func newLoose() *looseScheme {
	s := &looseScheme{}
	s.grammar = grammar{
		compare: s.Compare,
		valid:   func(v string) bool { _, ok := parseLoose(v); return ok },
	}
	return s
}

func (s *looseScheme) ID() string { return "loose" }

func (s *looseScheme) IsVersion(v string) bool {
	_, ok := parseLoose(v)
	return ok
}

func (s *looseScheme) IsValid(r string) bool {
	if s.IsVersion(r) {
		return true
	}
	_, ok := s.grammar.parse(r)
	return ok
}

func (s *looseScheme) Compare(a, b string) int {
	va, okA := parseLoose(a)
	vb, okB := parseLoose(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	}
	if c := compareRelease(va.release, vb.release); c != 0 {
		return c
	}
	switch {
	case va.suffix == vb.suffix:
		return 0
	case va.suffix == "":
		return 1
	case vb.suffix == "":
		return -1
	}
	return compareNatural(va.suffix, vb.suffix)
}

func (s *looseScheme) Matches(v, r string) bool {
	if !s.IsVersion(v) {
		return false
	}
	set, ok := s.grammar.parse(r)
	return ok && s.grammar.contains(set, v)
}

func (s *looseScheme) Subset(sub, super string) (bool, error) {
	return subsetOf(s.grammar, "loose", sub, super)
}

// compareRelease compares numeric release segments, padding the shorter with zeros.
func compareRelease(a, b []int) int {
	for i := range max(len(a), len(b)) {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// compareNatural compares strings treating runs of digits as numbers.
func compareNatural(a, b string) int {
	for a != "" && b != "" {
		da, ra := leadingDigits(a)
		db, rb := leadingDigits(b)
		if da != "" && db != "" {
			x, _ := strconv.Atoi(da)
			y, _ := strconv.Atoi(db)
			if c := cmp.Compare(x, y); c != 0 {
				return c
			}
			a, b = ra, rb
			continue
		}
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		a, b = a[1:], b[1:]
	}
	return cmp.Compare(len(a), len(b))
}

func leadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
