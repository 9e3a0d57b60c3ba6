// Package datasource resolves the published releases of a package across one
// or more package registries.
//
// # Overview
//
// A datasource is a plugin that lists releases for one registry family
// (PyPI, npm, Maven, ...). Datasources are installed in a [Registry] under a
// unique id and looked up by a [Service]:
//
//	reg := builtin.NewRegistry(integrations.Options{})
//	svc := datasource.New(datasource.Options{Registry: reg, Cache: pkgCache})
//	res, err := svc.GetPkgReleases(ctx, datasource.LookupRequest{
//	    Datasource:  "pypi",
//	    PackageName: "requests",
//	})
//
// A nil result with a nil error means the package was not found anywhere.
// Unknown datasources and empty package names also yield nil, nil.
//
// # Registry URLs
//
// Candidate registry URLs come from the request (RegistryURLs), then the
// request's DefaultRegistryURLs, then the descriptor's [RegistryURLs]. A
// datasource with NoCustomRegistries ignores caller URLs with a warning.
//
// # Strategies
//
// The candidates are queried sequentially according to a [Strategy]:
//
//   - [StrategyFirst]: only the first candidate is queried
//   - [StrategyHunt]: candidates are tried in order until one has releases
//   - [StrategyMerge]: every candidate is queried and the results are merged
//
// Each failed query is classified with [errors.HostFailureOf]. Hard host
// failures abort the lookup and are returned to the caller. Soft failures
// are logged and the candidate is treated as "not found".
//
// # Post-processing
//
// The surviving result is enriched from the manual metadata table, its
// source URL is normalized, versions are extracted and validated under the
// versioning scheme, releases are optionally filtered by constraints and
// sorted, and replacement fields are copied from the request.
//
// # Caching
//
// Datasources with Caching enabled store each per-registry result under
// namespace "datasource-releases-{id}" and key "{registryUrl}:{packageName}".
// Private results are only cached when [Config].CachePrivatePackages is set.
//
// [errors.HostFailureOf]: github.com/matzehuels/releasetower/pkg/errors.HostFailureOf
package datasource
