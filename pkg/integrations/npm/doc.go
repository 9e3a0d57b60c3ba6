// Package npm provides the npm release datasource.
//
// # Overview
//
// This package lists the versions of JavaScript packages from the npm
// registry (https://registry.npmjs.org) or any compatible registry.
//
// # Usage
//
//	client := npm.NewClient(integrations.Options{})
//	res, err := client.GetReleases(ctx, datasource.ReleasesQuery{
//	    PackageName: "express",
//	    RegistryURL: npm.DefaultRegistryURL,
//	})
//
// # Release Mapping
//
//   - dist-tags become result tags ("latest", "next", ...)
//   - the "time" map provides release timestamps
//   - engines.node becomes the "node" constraint
//   - a "deprecated" message marks the release deprecated
//   - the repository of the latest version becomes the source URL and directory
//
// # Digests
//
// [Client.Digest] returns the dist integrity (or "sha1:" + shasum for old
// packages) of a version or dist-tag.
//
// Scoped package names ("@types/node") are escaped as the registry expects.
package npm
