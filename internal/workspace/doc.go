// Package workspace manages temporary clone directories for batch runs.
package workspace
