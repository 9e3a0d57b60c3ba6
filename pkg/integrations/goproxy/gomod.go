package goproxy

import (
	"bufio"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/releasetower/pkg/datasource"
)

// goMod holds the parts of a go.mod file that affect release metadata.
type goMod struct {
	Deprecated string
	Retract    []retraction
}

// retraction is a single version (Low == High) or a closed interval.
type retraction struct {
	Low, High string
}

func (r retraction) contains(version string) bool {
	if version == r.Low || version == r.High {
		return true
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	lo, err := semver.NewVersion(r.Low)
	if err != nil {
		return false
	}
	hi, err := semver.NewVersion(r.High)
	if err != nil {
		return false
	}
	return !v.LessThan(lo) && !v.GreaterThan(hi)
}

func parseGoMod(r io.Reader) (*goMod, error) {
	mod := &goMod{}
	var comments []string
	inRetract := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "//") {
			comments = append(comments, strings.TrimSpace(strings.TrimPrefix(line, "//")))
			continue
		}
		if line == "" {
			comments = nil
			continue
		}

		if strings.HasPrefix(line, "module ") || strings.HasPrefix(line, "module\t") {
			if _, trailing, ok := strings.Cut(line, "//"); ok {
				comments = append(comments, strings.TrimSpace(trailing))
			}
			mod.Deprecated = deprecation(comments)
			comments = nil
			continue
		}
		comments = nil

		if strings.HasPrefix(line, "retract (") || line == "retract(" {
			inRetract = true
			continue
		}
		if inRetract && line == ")" {
			inRetract = false
			continue
		}

		if strings.HasPrefix(line, "retract ") && !strings.HasPrefix(line, "retract (") {
			line = strings.TrimPrefix(line, "retract ")
		} else if !inRetract {
			continue
		}

		if r, ok := parseRetractLine(line); ok {
			mod.Retract = append(mod.Retract, r)
		}
	}
	return mod, scanner.Err()
}

// deprecation returns the text of the paragraph starting with "Deprecated:".
func deprecation(comments []string) string {
	for i, c := range comments {
		msg, ok := strings.CutPrefix(c, "Deprecated:")
		if !ok {
			continue
		}
		parts := []string{strings.TrimSpace(msg)}
		for _, next := range comments[i+1:] {
			if next == "" {
				break
			}
			parts = append(parts, next)
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return ""
}

// parseRetractLine parses "v1.0.0" or "[v1.0.0, v1.2.0]", ignoring the rationale comment.
func parseRetractLine(line string) (retraction, bool) {
	if idx := strings.Index(line, "//"); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return retraction{}, false
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		lo, hi, ok := strings.Cut(strings.Trim(line, "[]"), ",")
		if !ok {
			return retraction{}, false
		}
		lo, hi = strings.Trim(strings.TrimSpace(lo), `"`), strings.Trim(strings.TrimSpace(hi), `"`)
		if lo == "" || hi == "" {
			return retraction{}, false
		}
		return retraction{Low: lo, High: hi}, true
	}
	v := strings.Trim(strings.Fields(line)[0], `"`)
	return retraction{Low: v, High: v}, true
}

func markRetracted(releases []datasource.Release, retracted []retraction) {
	for i := range releases {
		for _, r := range retracted {
			if r.contains(releases[i].Version) {
				releases[i].IsDeprecated = true
				break
			}
		}
	}
}
