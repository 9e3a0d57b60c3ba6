package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/releasetower/pkg/datasource"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ReleaseListModel - Interactive release selection
// =============================================================================

// ReleaseListModel is the bubbletea model for browsing the releases of a
// package, newest first.
type ReleaseListModel struct {
	Package  string
	Releases []datasource.Release
	Cursor   int
	Selected *datasource.Release
	Height   int
	Offset   int
	now      func() time.Time
}

// NewReleaseListModel creates a release list. Releases are shown in
// reverse order so the newest is on top.
func NewReleaseListModel(pkg string, releases []datasource.Release) ReleaseListModel {
	reversed := slices.Clone(releases)
	slices.Reverse(reversed)
	return ReleaseListModel{
		Package:  pkg,
		Releases: reversed,
		Height:   15,
		now:      time.Now,
	}
}

func (m ReleaseListModel) Init() tea.Cmd {
	return nil
}

func (m ReleaseListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Releases)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Releases)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		case "enter":
			if len(m.Releases) == 0 {
				return m, nil
			}
			rel := m.Releases[m.Cursor]
			m.Selected = &rel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ReleaseListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Package))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Releases))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Releases[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		released := "—"
		if r.ReleaseTimestamp != nil {
			released = formatRelativeTime(*r.ReleaseTimestamp, m.now())
		}
		status := ""
		if r.IsDeprecated {
			status = "deprecated"
		}
		rows = append(rows, []string{cursor, r.Version, released, shortDigest(r.Digest), status})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Version", "Released", "Digest", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Releases) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.Releases[idx].IsDeprecated {
				base = base.Foreground(colorDim)
			}
			if idx == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Releases)), len(m.Releases))))

	return b.String()
}

// printReleaseDetail prints every field of a single release.
func printReleaseDetail(w io.Writer, r datasource.Release) {
	if r.ReleaseTimestamp != nil {
		printKeyValue(w, "Released", r.ReleaseTimestamp.UTC().Format(time.RFC3339))
	}
	printKeyValue(w, "Registry", r.RegistryURL)
	printKeyValue(w, "Digest", r.Digest)
	for _, name := range slices.Sorted(maps.Keys(r.Constraints)) {
		printKeyValue(w, name, strings.Join(r.Constraints[name], " || "))
	}
	if r.IsDeprecated {
		printWarning(w, "This release is deprecated")
	}
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
