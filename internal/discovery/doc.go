// Package discovery enumerates candidate plugin repositories.
//
// Repositories are found either remotely through the GitHub CLI organization
// listing or locally by scanning a directory for checkouts whose name carries
// the plugin prefix. Both paths produce RepositoryRef values consumed by the
// batch runner.
package discovery
