// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for cloning, branching, committing, and pushing
// through the shell executor, along with remote URL parsing utilities consumed
// by services that need structured Git operations.
package gitrepo
