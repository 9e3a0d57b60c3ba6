// Package maven implements the "maven" datasource for repositories using
// the standard Maven 2 layout, Maven Central included.
//
// Package names are coordinates of the form "groupId:artifactId". The
// version list and the latest/release tags come from maven-metadata.xml.
// The POM of the release version supplies:
//
//   - the project URL as homepage
//   - the SCM url or connection as source URL
//   - a distributionManagement relocation as replacement name and version
//
// The datasource merges results across all configured repositories.
package maven
