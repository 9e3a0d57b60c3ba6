// Package pypi provides the PyPI release datasource.
//
// # Overview
//
// This package lists the releases of Python packages from PyPI
// (https://pypi.org) or any PyPI-compatible registry.
//
// # Usage
//
//	client := pypi.NewClient(integrations.Options{})
//	res, err := client.GetReleases(ctx, datasource.ReleasesQuery{
//	    PackageName: "fastapi",
//	    RegistryURL: pypi.DefaultRegistryURL,
//	})
//
// # Registry Formats
//
// Registry URLs ending in "/simple" are read through the PEP 503 simple
// index; versions are derived from the sdist and wheel file names. All other
// registries are read through the JSON API ({registry}/{package}/json).
//
// # Release Mapping
//
//   - the earliest file upload time becomes the release timestamp
//   - requires_python becomes the "python" constraint
//   - a release whose files are all yanked is deprecated
//   - project URLs named Source, Repository or Code become the source URL
//   - project URLs named Changelog, Changes or History become the changelog URL
//
// Package names are normalized following PEP 503.
package pypi
