// Package release prepares plugin checkouts for publishing: version bump,
// lockfile removal, and release workflow verification.
package release
