// Package packagist implements the "packagist" datasource for Composer v2
// repositories such as repo.packagist.org.
//
// # Metadata Format
//
// Versions are read from p2/{vendor}/{package}.json. Packagist serves this
// file minified ("minified": "composer/2.0"): each version entry lists only
// the keys that changed from the previous entry, and "__unset" removes a
// key. The client expands entries before decoding them.
//
// # Mapping
//
//   - "time" becomes the release timestamp
//   - require.php becomes the "php" constraint
//   - homepage and source.url of the newest entry become the result URLs
//   - "abandoned" becomes the deprecation message, and a named successor
//     becomes the replacement name
package packagist
