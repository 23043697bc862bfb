// Package envscan discovers environment variable names referenced by plugin
// sources.
//
// Discovery is regular-expression matching over four call-site shapes: direct
// process environment access, settings property access, and the two
// getSetting call forms. The scan is best-effort text matching, not parsing;
// dynamically built names are invisible to it.
package envscan
