// Package metadata holds manual changelog and source URL overrides for
// packages whose registry metadata is missing or wrong.
package metadata

import (
	_ "embed"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/releasetower/pkg/errors"
)

//go:embed manual.toml
var manualTOML []byte

// Entry is the override for one package. Empty fields are not applied.
type Entry struct {
	ChangelogURL string
	SourceURL    string
}

// Table maps datasource id and package name to overrides.
type Table struct {
	Changelog map[string]map[string]string `toml:"changelog"`
	Source    map[string]map[string]string `toml:"source"`
}

// Lookup returns the overrides for a package.
func (t *Table) Lookup(datasource, pkg string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e := Entry{
		ChangelogURL: t.Changelog[datasource][pkg],
		SourceURL:    t.Source[datasource][pkg],
	}
	return e, e.ChangelogURL != "" || e.SourceURL != ""
}

// Parse decodes a TOML override table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if _, err := toml.Decode(string(data), &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse metadata table")
	}
	return &t, nil
}

// Empty returns a table without entries.
func Empty() *Table { return &Table{} }

var (
	manualOnce  sync.Once
	manualTable *Table
)

// Manual returns the embedded override table.
func Manual() *Table {
	manualOnce.Do(func() {
		t, err := Parse(manualTOML)
		if err != nil {
			panic(err)
		}
		manualTable = t
	})
	return manualTable
}
