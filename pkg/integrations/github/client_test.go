package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		name      string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"spf13/cobra", "spf13", "cobra", false},
		{"spf13/cobra.git", "spf13", "cobra", false},
		{"https://github.com/spf13/cobra", "spf13", "cobra", false},
		{"https://github.com/spf13/cobra.git", "spf13", "cobra", false},
		{"https://github.com/spf13/cobra/tree/main", "spf13", "cobra", false},
		{"cobra", "", "", true},
		{"a/b/c", "", "", true},
		{"/cobra", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepo(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepo(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !rterrors.Is(err, rterrors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseRepo(%q) = %s, %s; want %s, %s", tt.name, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestAPIBase(t *testing.T) {
	tests := []struct {
		registry string
		want     string
	}{
		{"", DefaultRegistryURL},
		{"https://api.github.com/", "https://api.github.com"},
		{"https://github.com", DefaultRegistryURL},
		{"https://ghe.example.com", "https://ghe.example.com/api/v3"},
		{"https://ghe.example.com/api/v3/", "https://ghe.example.com/api/v3"},
	}
	for _, tt := range tests {
		if got := apiBase(tt.registry); got != tt.want {
			t.Errorf("apiBase(%q) = %q, want %q", tt.registry, got, tt.want)
		}
	}
}

func repoServer(t *testing.T, private bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v3/repos/owner/repo":
			json.NewEncoder(w).Encode(repoResponse{
				Private:  private,
				HTMLURL:  "https://ghe.example.com/owner/repo",
				Homepage: "https://repo.example.com",
			})
		case "/api/v3/repos/owner/repo/tags":
			json.NewEncoder(w).Encode([]tagResponse{
				{Name: "v2.0.0-rc.1", Commit: commitRef{SHA: "ccc"}},
				{Name: "v1.1.0", Commit: commitRef{SHA: "bbb"}},
				{Name: "v1.0.0", Commit: commitRef{SHA: "aaa"}},
			})
		case "/api/v3/repos/owner/repo/releases":
			published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			json.NewEncoder(w).Encode([]releaseResponse{
				{TagName: "v2.0.0-rc.1", PublishedAt: &published, Prerelease: true},
				{TagName: "v1.1.0", PublishedAt: &published},
			})
		case "/api/v3/repos/owner/repo/commits":
			json.NewEncoder(w).Encode([]commitRef{{SHA: "head"}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClient_GetReleases(t *testing.T) {
	server := repoServer(t, true)
	defer server.Close()

	res, err := testClient(t, server).GetReleases(context.Background(), datasource.ReleasesQuery{
		PackageName: "owner/repo",
		RegistryURL: server.URL,
	})
	if err != nil {
		t.Fatalf("GetReleases failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}

	if got := fmt.Sprint(res.Versions()); got != "[v2.0.0-rc.1 v1.1.0 v1.0.0]" {
		t.Errorf("versions = %s", got)
	}
	if !res.IsPrivate {
		t.Error("expected private result")
	}
	if res.SourceURL != "https://ghe.example.com/owner/repo" {
		t.Errorf("SourceURL = %q", res.SourceURL)
	}
	if res.Releases[0].Extra["prerelease"] != true {
		t.Errorf("expected prerelease flag on %s", res.Releases[0].Version)
	}
	if res.Releases[1].ReleaseTimestamp == nil || res.Releases[2].ReleaseTimestamp != nil {
		t.Errorf("unexpected timestamps: %v, %v", res.Releases[1].ReleaseTimestamp, res.Releases[2].ReleaseTimestamp)
	}
	if res.Releases[2].Digest != "aaa" {
		t.Errorf("digest = %q", res.Releases[2].Digest)
	}
}

func TestClient_GetReleasesNotFound(t *testing.T) {
	server := repoServer(t, false)
	defer server.Close()

	res, err := testClient(t, server).GetReleases(context.Background(), datasource.ReleasesQuery{
		PackageName: "owner/missing",
		RegistryURL: server.URL,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestClient_Digest(t *testing.T) {
	server := repoServer(t, false)
	defer server.Close()
	c := testClient(t, server)
	ctx := context.Background()

	tests := []struct {
		current  string
		newValue string
		want     string
	}{
		{"v1.0.0", "", "aaa"},
		{"v1.0.0", "v1.1.0", "bbb"},
		{"", "", "head"},
	}
	for _, tt := range tests {
		got, err := c.Digest(ctx, datasource.DigestQuery{
			PackageName:  "owner/repo",
			RegistryURL:  server.URL,
			CurrentValue: tt.current,
		}, tt.newValue)
		if err != nil {
			t.Fatalf("Digest(%q, %q) failed: %v", tt.current, tt.newValue, err)
		}
		if got != tt.want {
			t.Errorf("Digest(%q, %q) = %q, want %q", tt.current, tt.newValue, got, tt.want)
		}
	}

	_, err := c.Digest(ctx, datasource.DigestQuery{PackageName: "owner/repo", RegistryURL: server.URL}, "v9.9.9")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c := NewClient(integrations.Options{
		Retries: 1,
		Hosts:   integrations.NewHostRules(integrations.HostRule{MatchHost: "127.0.0.1", Token: "secret"}),
	})
	c.SetHTTPClient(server.Client())
	return c
}
