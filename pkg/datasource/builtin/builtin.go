// Package builtin registers the datasources shipped with releasetower.
package builtin

import (
	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
	"github.com/matzehuels/releasetower/pkg/integrations/crates"
	"github.com/matzehuels/releasetower/pkg/integrations/github"
	"github.com/matzehuels/releasetower/pkg/integrations/gitlab"
	"github.com/matzehuels/releasetower/pkg/integrations/goproxy"
	"github.com/matzehuels/releasetower/pkg/integrations/maven"
	"github.com/matzehuels/releasetower/pkg/integrations/npm"
	"github.com/matzehuels/releasetower/pkg/integrations/packagist"
	"github.com/matzehuels/releasetower/pkg/integrations/pypi"
	"github.com/matzehuels/releasetower/pkg/integrations/rubygems"
)

// Descriptors returns the descriptors of every built-in datasource. All
// registry clients share opts.
func Descriptors(opts integrations.Options) []datasource.Descriptor {
	return []datasource.Descriptor{
		crates.NewClient(opts).Descriptor(),
		github.NewClient(opts).Descriptor(),
		gitlab.NewClient(opts).Descriptor(),
		goproxy.NewClient(opts).Descriptor(),
		maven.NewClient(opts).Descriptor(),
		npm.NewClient(opts).Descriptor(),
		packagist.NewClient(opts).Descriptor(),
		pypi.NewClient(opts).Descriptor(),
		rubygems.NewClient(opts).Descriptor(),
	}
}

// NewRegistry returns a registry holding every built-in datasource.
func NewRegistry(opts integrations.Options) *datasource.Registry {
	r := datasource.NewRegistry()
	for _, d := range Descriptors(opts) {
		r.MustRegister(d)
	}
	return r
}
