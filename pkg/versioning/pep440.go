package versioning

import (
	"cmp"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pep440RE = regexp.MustCompile(`(?i)^\s*v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d+)?)?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d+)?)?` +
	`(?:[-_.]?(dev)[-_.]?(\d+)?)?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

type pepVersion struct {
	epoch   int
	release []int
	// pre is (phase, number); phase -1 means a dev-only release that sorts
	// before any pre-release, math.MaxInt means no pre-release.
	prePhase int
	preNum   int
	post     int // -1 when absent
	dev      int // math.MaxInt when absent
	local    string
}

func parsePEP440(v string) (pepVersion, bool) {
	m := pep440RE.FindStringSubmatch(v)
	if m == nil {
		return pepVersion{}, false
	}
	pv := pepVersion{prePhase: math.MaxInt, post: -1, dev: math.MaxInt, local: strings.ToLower(m[10])}
	pv.epoch = atoiOr(m[1], 0)
	for _, f := range strings.Split(m[2], ".") {
		pv.release = append(pv.release, atoiOr(f, 0))
	}
	if m[3] != "" {
		switch strings.ToLower(m[3]) {
		case "a", "alpha":
			pv.prePhase = 0
		case "b", "beta":
			pv.prePhase = 1
		default:
			pv.prePhase = 2
		}
		pv.preNum = atoiOr(m[4], 0)
	}
	switch {
	case m[5] != "":
		pv.post = atoiOr(m[5], 0)
	case m[6] != "":
		pv.post = atoiOr(m[7], 0)
	}
	if m[8] != "" {
		pv.dev = atoiOr(m[9], 0)
		if m[3] == "" && pv.post < 0 {
			pv.prePhase = -1
		}
	}
	return pv, true
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func comparePEP440(a, b pepVersion) int {
	if c := cmp.Compare(a.epoch, b.epoch); c != 0 {
		return c
	}
	if c := compareRelease(a.release, b.release); c != 0 {
		return c
	}
	if c := cmp.Compare(a.prePhase, b.prePhase); c != 0 {
		return c
	}
	if c := cmp.Compare(a.preNum, b.preNum); c != 0 {
		return c
	}
	if c := cmp.Compare(a.post, b.post); c != 0 {
		return c
	}
	if c := cmp.Compare(a.dev, b.dev); c != 0 {
		return c
	}
	return compareNatural(a.local, b.local)
}

type pep440Scheme struct {
	grammar grammar
}

func newPEP440() *pep440Scheme {
	s := &pep440Scheme{}
	s.grammar = grammar{
		compare: s.Compare,
		valid:   func(v string) bool { _, ok := parsePEP440(v); return ok },
	}
	return s
}

func (s *pep440Scheme) ID() string { return "pep440" }

func (s *pep440Scheme) IsVersion(v string) bool {
	_, ok := parsePEP440(v)
	return ok
}

func (s *pep440Scheme) IsValid(r string) bool {
	if s.IsVersion(r) {
		return true
	}
	_, ok := s.grammar.parse(r)
	return ok
}

func (s *pep440Scheme) Compare(a, b string) int {
	va, okA := parsePEP440(a)
	vb, okB := parsePEP440(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return comparePEP440(va, vb)
}

func (s *pep440Scheme) Matches(v, r string) bool {
	if !s.IsVersion(v) {
		return false
	}
	set, ok := s.grammar.parse(r)
	return ok && s.grammar.contains(set, v)
}

func (s *pep440Scheme) Subset(sub, super string) (bool, error) {
	return subsetOf(s.grammar, "pep440", sub, super)
}
