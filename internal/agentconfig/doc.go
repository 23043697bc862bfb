// Package agentconfig maintains the manifest section that enumerates the
// environment variables a plugin consumes, pairing scanned names with
// model-written or TODO descriptions.
package agentconfig
