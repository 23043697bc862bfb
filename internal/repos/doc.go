// Package repos batch-edits package manifests across an organization's plugin
// repositories, publishing each change as a branch and pull request.
package repos
