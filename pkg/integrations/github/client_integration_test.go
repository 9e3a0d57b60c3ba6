//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

func TestGetReleases_Integration(t *testing.T) {
	opts := integrations.Options{}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts.Hosts = integrations.NewHostRules(integrations.HostRule{MatchHost: "api.github.com", Token: token})
	}
	client := NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name    string
		pkg     string
		wantNil bool
	}{
		{"cobra", "spf13/cobra", false},
		{"nonexistent", "nonexistent-owner-12345/nonexistent-repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := client.GetReleases(ctx, datasource.ReleasesQuery{PackageName: tt.pkg})
			if err != nil {
				t.Fatalf("GetReleases(%q) error = %v", tt.pkg, err)
			}
			if (res == nil) != tt.wantNil {
				t.Fatalf("GetReleases(%q) = %v, wantNil %v", tt.pkg, res, tt.wantNil)
			}
			if res != nil && len(res.Releases) == 0 {
				t.Errorf("expected tags for %s", tt.pkg)
			}
		})
	}
}
