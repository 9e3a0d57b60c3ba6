// Package rubygems implements the "rubygems" datasource for rubygems.org
// and compatible gem servers.
//
// Versions come from /api/v1/versions/{gem}.json. Each entry carries the
// gem file checksum, which is reported as the release digest and served
// by [Client.Digest]. The required Ruby version becomes the "ruby"
// constraint. Gem metadata (/api/v1/gems/{gem}.json) supplies the
// homepage, source and changelog URLs.
//
// Version lists pass through the response cache of the shared client, so a
// lookup followed by a digest request costs one registry call.
package rubygems
