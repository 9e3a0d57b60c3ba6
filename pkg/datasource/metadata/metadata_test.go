package metadata

import "testing"

func TestManual(t *testing.T) {
	tbl := Manual()

	e, ok := tbl.Lookup("pypi", "django")
	if !ok {
		t.Fatal("expected override for pypi/django")
	}
	if e.ChangelogURL == "" || e.SourceURL != "" {
		t.Errorf("Lookup(pypi, django) = %+v", e)
	}

	if _, ok := tbl.Lookup("pypi", "requests"); ok {
		t.Error("unexpected override for pypi/requests")
	}
}

func TestParse(t *testing.T) {
	tbl, err := Parse([]byte(`
[changelog.dummy]
package = "https://foo.bar/package/CHANGELOG.md"

[source.dummy]
package = "https://foo.bar/package"
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	e, ok := tbl.Lookup("dummy", "package")
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	if e.ChangelogURL != "https://foo.bar/package/CHANGELOG.md" || e.SourceURL != "https://foo.bar/package" {
		t.Errorf("Lookup() = %+v", e)
	}

	if _, err := Parse([]byte("[changelog")); err == nil {
		t.Error("Parse() should fail on invalid TOML")
	}
}

func TestNilAndEmptyTable(t *testing.T) {
	var nilTable *Table
	if _, ok := nilTable.Lookup("npm", "vue"); ok {
		t.Error("nil table should have no entries")
	}
	if _, ok := Empty().Lookup("npm", "vue"); ok {
		t.Error("empty table should have no entries")
	}
}
