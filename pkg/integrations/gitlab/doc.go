// Package gitlab implements the "gitlab-tags" datasource for gitlab.com and
// self-managed GitLab instances.
//
// Package names are project paths such as "gitlab-org/gitlab-runner",
// including nested groups. The registry URL is the instance root; requests
// go to its /api/v4 endpoints. Each tag becomes a release whose digest is
// the tagged commit id and whose timestamp is the commit time. Projects
// with private visibility produce private results.
package gitlab
