package versioning

import (
	"regexp"
	"strconv"
	"strings"
)

type bound struct {
	v         string
	inclusive bool
	set       bool
}

type interval struct{ lo, hi bound }

// rangeSet is a union of intervals. A set holding one unbounded interval
// matches everything; an empty set matches nothing.
type rangeSet []interval

var everything = rangeSet{{}}

// grammar parses range strings for one scheme.
type grammar struct {
	// compare orders bound values; it must accept partial versions.
	compare func(a, b string) int
	// valid reports whether s can be used as a bound.
	valid func(s string) bool
	// partialIsWildcard makes bare "1.2" mean "1.2.*".
	partialIsWildcard bool
	// semverish enables "||" unions and hyphen ranges.
	semverish bool
}

var (
	clauseRE   = regexp.MustCompile(`(===|~=|==|!=|<=|>=|<|>|=|\^|~)?\s*([0-9A-Za-z*][0-9A-Za-z.*+!_-]*)`)
	hyphenRE   = regexp.MustCompile(`^\s*(\S+)\s+-\s+(\S+)\s*$`)
	numericRE  = regexp.MustCompile(`^[vV=]?(\d+(?:\.\d+)*)`)
	wildcardRE = regexp.MustCompile(`^[vV]?(?:\d+\.)*[*xX](?:\.[*xX])*$`)
)

func (g grammar) parse(r string) (rangeSet, bool) {
	r = strings.TrimSpace(r)
	if r == "" || r == "*" || r == "x" || r == "X" {
		return everything, true
	}
	parts := []string{r}
	if g.semverish {
		parts = strings.Split(r, "||")
	}
	var out rangeSet
	for _, p := range parts {
		set, ok := g.parseConjunction(strings.TrimSpace(p))
		if !ok {
			return nil, false
		}
		out = append(out, set...)
	}
	return out, true
}

func (g grammar) parseConjunction(s string) (rangeSet, bool) {
	if s == "" {
		return nil, false
	}
	if s == "*" || s == "x" || s == "X" {
		return everything, true
	}
	if g.semverish {
		if m := hyphenRE.FindStringSubmatch(s); m != nil {
			if !g.valid(m[1]) || !g.valid(m[2]) {
				return nil, false
			}
			return rangeSet{{
				lo: bound{v: m[1], inclusive: true, set: true},
				hi: bound{v: m[2], inclusive: true, set: true},
			}}, true
		}
	}

	matches := clauseRE.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil, false
	}
	var rest strings.Builder
	prev := 0
	for _, m := range matches {
		rest.WriteString(s[prev:m[0]])
		prev = m[1]
	}
	rest.WriteString(s[prev:])
	if strings.Trim(rest.String(), " ,\t") != "" {
		return nil, false
	}

	cur := everything
	for _, m := range matches {
		op := ""
		if m[2] >= 0 {
			op = s[m[2]:m[3]]
		}
		set, ok := g.clause(op, s[m[4]:m[5]])
		if !ok {
			return nil, false
		}
		cur = g.intersect(cur, set)
	}
	return cur, true
}

func (g grammar) clause(op, v string) (rangeSet, bool) {
	wild := wildcardRE.MatchString(v)
	if !wild && !g.valid(v) {
		return nil, false
	}
	if wild && op != "" && op != "=" && op != "==" && op != "!=" {
		return nil, false
	}

	exact := func() (rangeSet, bool) {
		if wild || (g.partialIsWildcard && isPartial(v)) {
			lo, hi, ok := wildcardBounds(v)
			if !ok {
				return nil, false
			}
			if lo == "" {
				return everything, true
			}
			return rangeSet{halfOpen(lo, hi)}, true
		}
		return rangeSet{{
			lo: bound{v: v, inclusive: true, set: true},
			hi: bound{v: v, inclusive: true, set: true},
		}}, true
	}

	switch op {
	case "", "=", "==":
		return exact()
	case "===":
		return rangeSet{{lo: bound{v: v, inclusive: true, set: true}, hi: bound{v: v, inclusive: true, set: true}}}, true
	case "!=":
		set, ok := exact()
		if !ok {
			return nil, false
		}
		return g.complement(set), true
	case ">":
		return rangeSet{{lo: bound{v: v, set: true}}}, true
	case ">=":
		return rangeSet{{lo: bound{v: v, inclusive: true, set: true}}}, true
	case "<":
		return rangeSet{{hi: bound{v: v, set: true}}}, true
	case "<=":
		return rangeSet{{hi: bound{v: v, inclusive: true, set: true}}}, true
	case "^":
		hi, ok := caretUpper(v)
		return rangeSet{halfOpen(v, hi)}, ok
	case "~":
		hi, ok := tildeUpper(v)
		return rangeSet{halfOpen(v, hi)}, ok
	case "~=":
		hi, ok := compatibleUpper(v)
		return rangeSet{halfOpen(v, hi)}, ok
	}
	return nil, false
}

func halfOpen(lo, hi string) interval {
	return interval{
		lo: bound{v: lo, inclusive: true, set: true},
		hi: bound{v: hi, set: true},
	}
}

// complement only handles the single-interval sets produced by clause.
func (g grammar) complement(set rangeSet) rangeSet {
	if len(set) != 1 {
		return nil
	}
	iv := set[0]
	var out rangeSet
	if iv.lo.set {
		out = append(out, interval{hi: bound{v: iv.lo.v, inclusive: !iv.lo.inclusive, set: true}})
	}
	if iv.hi.set {
		out = append(out, interval{lo: bound{v: iv.hi.v, inclusive: !iv.hi.inclusive, set: true}})
	}
	return out
}

func (g grammar) intersect(a, b rangeSet) rangeSet {
	var out rangeSet
	for _, x := range a {
		for _, y := range b {
			iv := interval{lo: g.maxLower(x.lo, y.lo), hi: g.minUpper(x.hi, y.hi)}
			if !g.empty(iv) {
				out = append(out, iv)
			}
		}
	}
	return out
}

func (g grammar) maxLower(a, b bound) bound {
	if !a.set {
		return b
	}
	if !b.set {
		return a
	}
	switch c := g.compare(a.v, b.v); {
	case c > 0:
		return a
	case c < 0:
		return b
	}
	if !a.inclusive {
		return a
	}
	return b
}

func (g grammar) minUpper(a, b bound) bound {
	if !a.set {
		return b
	}
	if !b.set {
		return a
	}
	switch c := g.compare(a.v, b.v); {
	case c < 0:
		return a
	case c > 0:
		return b
	}
	if !a.inclusive {
		return a
	}
	return b
}

func (g grammar) empty(iv interval) bool {
	if !iv.lo.set || !iv.hi.set {
		return false
	}
	c := g.compare(iv.lo.v, iv.hi.v)
	return c > 0 || (c == 0 && !(iv.lo.inclusive && iv.hi.inclusive))
}

func (g grammar) contains(set rangeSet, v string) bool {
	for _, iv := range set {
		if iv.lo.set {
			c := g.compare(v, iv.lo.v)
			if c < 0 || (c == 0 && !iv.lo.inclusive) {
				continue
			}
		}
		if iv.hi.set {
			c := g.compare(v, iv.hi.v)
			if c > 0 || (c == 0 && !iv.hi.inclusive) {
				continue
			}
		}
		return true
	}
	return false
}

// subset reports whether every interval of sub lies inside one interval of super.
func (g grammar) subset(sub, super rangeSet) bool {
	for _, x := range sub {
		inside := false
		for _, y := range super {
			if g.within(x, y) {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

func (g grammar) within(x, y interval) bool {
	if y.lo.set {
		if !x.lo.set {
			return false
		}
		c := g.compare(x.lo.v, y.lo.v)
		if c < 0 || (c == 0 && x.lo.inclusive && !y.lo.inclusive) {
			return false
		}
	}
	if y.hi.set {
		if !x.hi.set {
			return false
		}
		c := g.compare(x.hi.v, y.hi.v)
		if c > 0 || (c == 0 && x.hi.inclusive && !y.hi.inclusive) {
			return false
		}
	}
	return true
}

// numericParts returns the leading dotted numeric release of v and whether
// anything follows it.
func numericParts(v string) ([]int, bool) {
	m := numericRE.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return nil, false
	}
	fields := strings.Split(m[1], ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		parts[i] = n
	}
	return parts, len(m[0]) < len(strings.TrimSpace(v))
}

func isPartial(v string) bool {
	parts, suffix := numericParts(v)
	return parts != nil && !suffix && len(parts) < 3
}

func joinParts(parts []int) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, ".")
}

// bump increments parts[i] and truncates everything after it.
func bump(parts []int, i int) string {
	out := append([]int(nil), parts[:i+1]...)
	out[i]++
	return joinParts(out)
}

func caretUpper(v string) (string, bool) {
	parts, _ := numericParts(v)
	if len(parts) == 0 {
		return "", false
	}
	idx := len(parts) - 1
	for i, p := range parts {
		if p != 0 {
			idx = i
			break
		}
	}
	return bump(parts, idx), true
}

func tildeUpper(v string) (string, bool) {
	parts, _ := numericParts(v)
	if len(parts) == 0 {
		return "", false
	}
	return bump(parts, min(1, len(parts)-1)), true
}

func compatibleUpper(v string) (string, bool) {
	parts, _ := numericParts(v)
	if len(parts) < 2 {
		return "", false
	}
	return bump(parts, len(parts)-2), true
}

// wildcardBounds turns "1.2.*", "1.x" or a partial "1.2" into [lo, hi).
// A bare wildcard returns empty bounds.
func wildcardBounds(v string) (lo, hi string, ok bool) {
	v = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(v), "v"), "=")
	var parts []int
	for _, f := range strings.Split(v, ".") {
		if f == "*" || f == "x" || f == "X" {
			break
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return "", "", false
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return "", "", true
	}
	return joinParts(parts), bump(parts, len(parts)-1), true
}
