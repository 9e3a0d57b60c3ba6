package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/releasetower/pkg/datasource"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var formats = []string{FormatTable, FormatJSON, FormatYAML}

func validateFormat(f string) error {
	if !slices.Contains(formats, f) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", f, strings.Join(formats, ", "))
	}
	return nil
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode values", format)
	}
}

// =============================================================================
// Releases
// =============================================================================

// printResult renders a lookup result as a summary followed by a table.
func printResult(w io.Writer, pkg string, res *datasource.ReleaseResult) {
	fmt.Fprintln(w, StyleTitle.Render(pkg))
	printKeyValue(w, "Registry", res.RegistryURL)
	printLink(w, "Homepage", res.Homepage)
	printLink(w, "Source", res.SourceURL)
	printKeyValue(w, "Directory", res.SourceDirectory)
	printLink(w, "Changelog", res.ChangelogURL)
	if len(res.Tags) > 0 {
		var tags []string
		for _, k := range slices.Sorted(maps.Keys(res.Tags)) {
			tags = append(tags, k+"="+res.Tags[k])
		}
		printKeyValue(w, "Tags", strings.Join(tags, ", "))
	}
	if res.IsPrivate {
		printKeyValue(w, "Visibility", "private")
	}
	if res.DeprecationMessage != "" {
		printWarning(w, "%s", res.DeprecationMessage)
	}
	if res.ReplacementName != "" {
		replacement := res.ReplacementName
		if res.ReplacementVersion != "" {
			replacement += "@" + res.ReplacementVersion
		}
		printKeyValue(w, "Replaced by", replacement)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, releaseTable(res.Releases).Render())
	printDetail(w, "%d releases", len(res.Releases))
}

func releaseTable(releases []datasource.Release) *table.Table {
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		rows = append(rows, releaseRow(r))
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Version", "Released", "Constraints", "Digest", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row < len(releases) && releases[row].IsDeprecated {
				return StyleDim
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
}

func releaseRow(r datasource.Release) []string {
	released := "—"
	if r.ReleaseTimestamp != nil {
		released = r.ReleaseTimestamp.UTC().Format("2006-01-02")
	}
	var constraints []string
	for _, name := range slices.Sorted(maps.Keys(r.Constraints)) {
		constraints = append(constraints, name+" "+strings.Join(r.Constraints[name], " || "))
	}
	status := ""
	if r.IsDeprecated {
		status = "deprecated"
	}
	return []string{r.Version, released, strings.Join(constraints, "; "), shortDigest(r.Digest), status}
}

// shortDigest trims long hashes to twelve characters, keeping any
// algorithm prefix.
func shortDigest(d string) string {
	algo, hash, ok := strings.Cut(d, ":")
	if !ok {
		algo, hash = "", d
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	if algo != "" {
		return algo + ":" + hash
	}
	return hash
}

// =============================================================================
// Datasources
// =============================================================================

func datasourceTable(infos []datasource.Info) *table.Table {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.ID,
			info.DefaultVersioning,
			string(info.RegistryStrategy),
			yesNo(info.SupportsDigests),
			yesNo(info.CustomRegistrySupport),
			strings.Join(info.DefaultRegistryURLs, "\n"),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Datasource", "Versioning", "Strategy", "Digests", "Custom", "Default registries").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleHighlight
			case col == 5:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
}

func yesNo(b bool) string {
	if b {
		return iconSuccess
	}
	return ""
}
