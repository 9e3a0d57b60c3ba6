// Package pkg provides the core libraries for Releasetower release lookups.
//
// # Overview
//
// Releasetower answers one question for many package ecosystems: which
// versions of a package exist, where did they come from, and what metadata
// goes with them. The pkg directory is organized into four main areas:
//
//  1. [datasource] - The release engine (registry selection, strategies,
//     merging, post-processing, caching, digests)
//  2. [integrations] - Registry clients (npm, PyPI, Go proxy, crates.io,
//     RubyGems, Maven, Packagist, GitHub, GitLab)
//  3. [versioning] - Version schemes used to sort, compare and filter
//  4. [cache] - Cache backends shared by registry responses and results
//
// # Architecture
//
// The typical data flow of a lookup:
//
//	LookupRequest
//	     ↓
//	[datasource] registry URL resolution (custom, defaults, overrides)
//	     ↓
//	strategy: first / hunt / merge  ←→  [cache] per-registry results
//	     ↓
//	[integrations] registry client  ←→  [cache] raw HTTP responses
//	     ↓
//	post-processing (extract, filter, sort, replacement)
//	     ↓
//	ReleaseResult
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/releasetower/pkg/datasource"
//	    "github.com/matzehuels/releasetower/pkg/datasource/builtin"
//	    "github.com/matzehuels/releasetower/pkg/integrations"
//	)
//
//	svc := datasource.New(datasource.Options{
//	    Registry: builtin.NewRegistry(integrations.Options{}),
//	})
//	res, err := svc.GetPkgReleases(context.Background(), datasource.LookupRequest{
//	    Datasource:  "npm",
//	    PackageName: "left-pad",
//	})
//
// # Main Packages
//
// [datasource] - The [datasource.Service] entry points GetPkgReleases and
// GetDigest, the datasource [datasource.Registry], and the lookup types.
//
// [datasource/builtin] - Registers every registry client under its id.
//
// [datasource/metadata] - Manual source URL and changelog overrides loaded
// from an embedded TOML table.
//
// [integrations] - The shared HTTP client with host rules, retries, response
// caching and failure classification, plus one subpackage per registry.
//
// [versioning] - semver, npm, semver-coerced, loose, pep440 and python
// schemes behind a single [versioning.Scheme] interface.
//
// [cache] - File, memory, Redis and MongoDB backends plus the JSON package
// cache used by the engine.
//
// [errors] - Coded errors and the host failure classification that decides
// whether a lookup aborts.
//
// [observability] - Hooks for lookups, caches and HTTP calls; the metrics
// collector installs itself here.
//
// [httputil] - Retry with exponential backoff.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include live registry tests
//
// [datasource]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/datasource
// [datasource/builtin]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/datasource/builtin
// [datasource/metadata]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/datasource/metadata
// [integrations]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/integrations
// [versioning]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/versioning
// [cache]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/releasetower/pkg/buildinfo
package pkg
