// Package goproxy implements the "go" datasource on top of the Go module
// proxy protocol.
//
// # Overview
//
// Releases come from three proxy endpoints:
//
//  1. @v/list for the published versions
//  2. @latest for the latest version and its timestamp
//  3. @v/{latest}.mod for deprecation and retractions
//
// The latest version is reported as the "latest" tag and is added to the
// release list when it is a pseudo-version that @v/list does not contain.
//
// # Registries
//
// The default registries come from GOPROXY, evaluated on every lookup.
// "direct" entries are skipped and "off" ends the list. The datasource
// uses the hunt strategy, matching how the go command walks GOPROXY.
//
// # Deprecation and Retraction
//
// A "// Deprecated:" comment on the module directive of the latest go.mod
// becomes the deprecation message. Versions named by retract directives,
// single or as a [low, high] interval, are marked deprecated.
//
// # Path Escaping
//
// Module paths with uppercase letters are escaped per the proxy protocol:
// "github.com/Azure/sdk" becomes "github.com/!azure/sdk".
package goproxy
