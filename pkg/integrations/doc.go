// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// Each registry has its own subpackage implementing a release datasource:
//
//   - [pypi]: Python Package Index
//   - [npm]: npm registry
//   - [crates]: Rust crates.io
//   - [rubygems]: Ruby gems
//   - [packagist]: PHP Composer packages
//   - [maven]: Maven repositories (Maven Central by default)
//   - [goproxy]: Go module proxy
//   - [github]: GitHub repository tags
//   - [gitlab]: GitLab repository tags
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := pypi.NewClient(integrations.Options{Hosts: rules})
//	res, err := client.GetReleases(ctx, datasource.ReleasesQuery{
//	    PackageName: "fastapi",
//	    RegistryURL: "https://pypi.org/pypi",
//	})
//
// The registry URL is chosen by the release engine, never by the client.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all registry
// clients:
//   - host rules ([HostRules]): enable or disable hosts, inject tokens and
//     headers, and mark hosts whose failures must abort a lookup
//   - retry with backoff for 429 and 5xx responses
//   - an optional raw response cache via [cache.Cache]
//
// Failures are classified for the engine: a disabled host yields
// [errors.HostDisabled], a persistent network failure on a host with
// AbortOnError yields [errors.ExternalHost], and everything else is an
// ordinary error treated as a soft failure. [ErrNotFound] is never hard.
//
// # Adding a New Registry
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement GetReleases (and optionally Digest) on a Client
//  4. Use [NewClient] for HTTP with host rules and retries
//  5. Register a descriptor in pkg/datasource/builtin
//
// [pypi]: github.com/matzehuels/releasetower/pkg/integrations/pypi
// [npm]: github.com/matzehuels/releasetower/pkg/integrations/npm
// [crates]: github.com/matzehuels/releasetower/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/releasetower/pkg/integrations/rubygems
// [packagist]: github.com/matzehuels/releasetower/pkg/integrations/packagist
// [maven]: github.com/matzehuels/releasetower/pkg/integrations/maven
// [goproxy]: github.com/matzehuels/releasetower/pkg/integrations/goproxy
// [github]: github.com/matzehuels/releasetower/pkg/integrations/github
// [gitlab]: github.com/matzehuels/releasetower/pkg/integrations/gitlab
// [cache.Cache]: github.com/matzehuels/releasetower/pkg/cache.Cache
// [errors.HostDisabled]: github.com/matzehuels/releasetower/pkg/errors.HostDisabled
// [errors.ExternalHost]: github.com/matzehuels/releasetower/pkg/errors.ExternalHost
package integrations
