package packagist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const minifiedBody = `{
  "minified": "composer/2.0",
  "packages": {
    "monolog/monolog": [
      {
        "name": "monolog/monolog",
        "version": "3.5.0",
        "time": "2023-10-27T15:32:31+00:00",
        "homepage": "https://github.com/Seldaek/monolog",
        "source": {"type": "git", "url": "https://github.com/Seldaek/monolog.git"},
        "require": {"php": ">=8.1", "psr/log": "^2.0 || ^3.0"},
        "abandoned": "acme/logger"
      },
      {
        "version": "3.4.0",
        "time": "2023-06-21T08:46:11+00:00",
        "abandoned": "__unset"
      },
      {
        "version": "2.9.2",
        "time": "2023-10-27T15:25:26+00:00",
        "require": {"php": ">=7.2"}
      },
      {
        "version": "1.0.0",
        "require": "__unset"
      }
    ]
  }
}`

func TestExpand(t *testing.T) {
	got := expand([]map[string]any{
		{"name": "a/b", "version": "2.0.0", "homepage": "h"},
		{"version": "1.0.0", "homepage": unset},
	})
	if got[1]["name"] != "a/b" {
		t.Errorf("name not inherited: %v", got[1])
	}
	if _, ok := got[1]["homepage"]; ok {
		t.Errorf("homepage not unset: %v", got[1])
	}
	if got[0]["homepage"] != "h" {
		t.Errorf("first entry modified: %v", got[0])
	}
}

func TestClient_GetReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p2/monolog/monolog.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, minifiedBody)
	}))
	defer server.Close()

	res, err := testClient(t, server).GetReleases(context.Background(), datasource.ReleasesQuery{
		PackageName: "Monolog/Monolog",
		RegistryURL: server.URL,
	})
	if err != nil {
		t.Fatalf("GetReleases failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}

	if got := fmt.Sprint(res.Versions()); got != "[3.5.0 3.4.0 2.9.2 1.0.0]" {
		t.Errorf("versions = %s", got)
	}
	php := func(i int) string {
		if c := res.Releases[i].Constraints["php"]; len(c) == 1 {
			return c[0]
		}
		return ""
	}
	if php(0) != ">=8.1" || php(1) != ">=8.1" || php(2) != ">=7.2" || php(3) != "" {
		t.Errorf("php constraints = %q %q %q %q", php(0), php(1), php(2), php(3))
	}
	if res.Releases[0].ReleaseTimestamp == nil {
		t.Error("expected release timestamp")
	}
	if res.SourceURL != "https://github.com/Seldaek/monolog.git" {
		t.Errorf("SourceURL = %q", res.SourceURL)
	}
	if res.ReplacementName != "acme/logger" {
		t.Errorf("ReplacementName = %q", res.ReplacementName)
	}
	if res.DeprecationMessage == "" {
		t.Error("expected deprecation message")
	}
}

func TestClient_GetReleasesNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	res, err := testClient(t, server).GetReleases(context.Background(), datasource.ReleasesQuery{
		PackageName: "acme/missing",
		RegistryURL: server.URL,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestP2VersionUnmarshalLooseRequire(t *testing.T) {
	v, err := decodeVersion(map[string]any{"version": "1.0.0", "require": []any{}})
	if err != nil {
		t.Fatalf("decodeVersion failed: %v", err)
	}
	if len(v.Require) != 0 {
		t.Errorf("Require = %v, want empty", v.Require)
	}
}

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c := NewClient(integrations.Options{Retries: 1})
	c.SetHTTPClient(server.Client())
	return c
}
