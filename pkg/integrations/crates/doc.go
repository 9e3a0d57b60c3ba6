// Package crates provides the crates.io release datasource.
//
// # Overview
//
// This package lists the published versions of Rust crates from crates.io
// (https://crates.io), the Rust community's package registry.
//
// # Usage
//
//	client := crates.NewClient(integrations.Options{})
//	res, err := client.GetReleases(ctx, datasource.ReleasesQuery{
//	    PackageName: "serde",
//	    RegistryURL: crates.DefaultRegistryURL,
//	})
//
// # Release Mapping
//
//   - yanked versions are deprecated
//   - rust_version becomes the "rust" constraint
//   - the archive checksum is kept on each release and returned by [Client.Digest]
//
// The datasource id is "crate". Only the first configured registry is
// queried.
//
// # API Requirements
//
// crates.io requires a descriptive User-Agent header; the client sets one
// automatically.
package crates
