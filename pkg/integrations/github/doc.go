// Package github implements the "github-tags" datasource.
//
// # Overview
//
// Package names are repositories in "owner/repo" form or full repository
// URLs. Every tag becomes a release whose digest is the tagged commit SHA.
// Tags that have a GitHub release get its publication date as timestamp,
// and prereleases carry "prerelease": true in Release.Extra.
//
// # Registries
//
// The registry URL is the API root. Enterprise hosts given as
// "https://ghe.example.com" are queried under /api/v3. The datasource uses
// the first strategy, so only one registry is consulted.
//
// # Authentication
//
// Tokens come from host rules matching the API host. Unauthenticated
// requests are limited to 60 per hour. A private repository marks the
// result private, which keeps it out of the release cache unless private
// caching is enabled.
package github
