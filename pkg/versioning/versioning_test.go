package versioning

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func mustGet(t *testing.T, id string) Scheme {
	t.Helper()
	s, ok := Get(id)
	if !ok {
		t.Fatalf("scheme %q not registered", id)
	}
	return s
}

func TestIsVersion(t *testing.T) {
	tests := []struct {
		scheme string
		input  string
		want   bool
	}{
		{"semver", "1.2.3", true},
		{"semver", "v1.2.3", true},
		{"semver", "1.2.3-beta.1", true},
		{"semver", "1.2", false},
		{"semver", "^1.2.3", false},
		{"semver-coerced", "1.2", true},
		{"semver-coerced", "v4", true},
		{"semver-coerced", "not-a-version", false},
		{"loose", "v4.3", true},
		{"loose", "1.2.3.4", true},
		{"loose", "32.1.3-jre", true},
		{"loose", "latest", false},
		{"pep440", "1.0rc1", true},
		{"pep440", "2!1.0.post2.dev3", true},
		{"pep440", "1.0+ubuntu.1", true},
		{"pep440", "1.0-foo-bar", false},
		{"python", "3.12.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme+"/"+tt.input, func(t *testing.T) {
			if got := mustGet(t, tt.scheme).IsVersion(tt.input); got != tt.want {
				t.Errorf("IsVersion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		scheme string
		a, b   string
		want   int
	}{
		{"semver", "1.2.3", "1.10.0", -1},
		{"semver", "1.0.0-rc.1", "1.0.0", -1},
		{"semver-coerced", "v2", "1.9.9", 1},
		{"loose", "v4.3", "v4.3.0", 0},
		{"loose", "1.2.3-jre", "1.2.3", -1},
		{"loose", "1.2.10", "1.2.9", 1},
		{"loose", "1.0-rc10", "1.0-rc9", 1},
		{"pep440", "1.0.dev1", "1.0a1", -1},
		{"pep440", "1.0a1", "1.0b1", -1},
		{"pep440", "1.0rc1", "1.0", -1},
		{"pep440", "1.0", "1.0.post1", -1},
		{"pep440", "1.0", "1.0.0", 0},
		{"pep440", "1!0.1", "2.0", 1},
		{"pep440", "garbage", "0.0.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.scheme+"/"+tt.a+"_"+tt.b, func(t *testing.T) {
			if got := mustGet(t, tt.scheme).Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		scheme string
		v, r   string
		want   bool
	}{
		{"semver", "1.4.0", "^1.2.3", true},
		{"semver", "2.0.0", "^1.2.3", false},
		{"semver", "1.2.9", "~1.2.0", true},
		{"semver", "1.5.0", ">=1.0.0 <2.0.0 || >=3.0.0", true},
		{"semver", "2.5.0", ">=1.0.0 <2.0.0 || >=3.0.0", false},
		{"semver-coerced", "1.2.7", "1.2.x", true},
		{"loose", "4.3.143", ">=4.3, <5", true},
		{"loose", "5.0", ">=4.3, <5", false},
		{"pep440", "2.7.18", ">=2.7,<3.0", true},
		{"pep440", "3.0", ">=2.7,<3.0", false},
		{"pep440", "1.4.9", "~=1.4.5", true},
		{"pep440", "1.5.0", "~=1.4.5", false},
		{"pep440", "1.2.3", "==1.2.*", true},
		{"pep440", "1.2.3", "!=1.2.*", false},
		{"pep440", "3.7", "!=3.6", true},
		{"pep440", "not", ">=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.scheme+"/"+tt.v+"_"+tt.r, func(t *testing.T) {
			if got := mustGet(t, tt.scheme).Matches(tt.v, tt.r); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.v, tt.r, got, tt.want)
			}
		})
	}
}

func TestSubset(t *testing.T) {
	pep := mustGet(t, "pep440")
	request := ">= 2.7, < 3.0"
	tests := []struct {
		super string
		want  bool
	}{
		{">=2.7,<4.0", true},
		{">=2.7,<3.0", true},
		{">=2.6", true},
		{"2.7", false},
		{"1.0", false},
		{">=3.0.0,<4.0", false},
		{">2.7,<3.0", false},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.super, func(t *testing.T) {
			got, err := pep.Subset(request, tt.super)
			if err != nil {
				t.Fatalf("Subset() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Subset(%q, %q) = %v, want %v", request, tt.super, got, tt.want)
			}
		})
	}

	if _, err := pep.Subset("<<<", ">=1"); err == nil {
		t.Error("Subset() with invalid range should fail")
	}

	semver := mustGet(t, "semver")
	if ok, _ := semver.Subset("^1.2.0", ">=1.0.0 <2.0.0"); !ok {
		t.Error("^1.2.0 should be a subset of >=1.0.0 <2.0.0")
	}
	if ok, _ := semver.Subset("^1.2.0 || ^3.0.0", ">=1.0.0 <2.0.0"); ok {
		t.Error("union reaching 3.x should not be a subset of <2.0.0")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		scheme string
		input  string
		want   bool
	}{
		{"pep440", ">= 2.7, < 3.0", true},
		{"pep440", "~=3.8", true},
		{"pep440", ">=", false},
		{"pep440", ">=1.0 garbage!", false},
		{"semver", "1.2.3 - 2.0.0", true},
		{"semver", "^1.2 || ~3", true},
		{"semver", ">=1.2.3 <", false},
		{"loose", "v4.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme+"/"+tt.input, func(t *testing.T) {
			if got := mustGet(t, tt.scheme).IsValid(tt.input); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSortAndMax(t *testing.T) {
	s := mustGet(t, "semver-coerced")
	versions := []string{"2.0.0", "1.0.0", "1.10.0", "1.2.0"}
	Sort(s, versions)
	want := []string{"1.0.0", "1.2.0", "1.10.0", "2.0.0"}
	if !slices.Equal(versions, want) {
		t.Errorf("Sort() = %v, want %v", versions, want)
	}
	if got := Max(s, "1.1.0", "2.1.0", "2.0.0"); got != "2.1.0" {
		t.Errorf("Max() = %q, want 2.1.0", got)
	}
	if got := Max(s); got != "" {
		t.Errorf("Max() of nothing = %q, want empty", got)
	}
}

func TestListIncludesAliases(t *testing.T) {
	ids := List()
	for _, want := range []string{"loose", "npm", "pep440", "python", "semver", "semver-coerced"} {
		if !slices.Contains(ids, want) {
			t.Errorf("List() missing %q", want)
		}
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.SampledFrom([]string{"semver-coerced", "loose", "pep440"}).Draw(t, "scheme")
		s, _ := Get(id)
		gen := rapid.Custom(func(t *rapid.T) string {
			parts := rapid.SliceOfN(rapid.IntRange(0, 20), 1, 4).Draw(t, "parts")
			return joinParts(parts)
		})
		a := gen.Draw(t, "a")
		b := gen.Draw(t, "b")
		if s.Compare(a, b) != -s.Compare(b, a) {
			t.Fatalf("%s: Compare(%q, %q) = %d but Compare(%q, %q) = %d",
				id, a, b, s.Compare(a, b), b, a, s.Compare(b, a))
		}
	})
}
