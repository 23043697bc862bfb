// Package plugininfo recovers plugin structure from heterogeneous source
// files without a real parser.
//
// Extraction is a sequence of regular-expression passes: import statements
// build an alias table, array-literal assignment sites yield component name
// references, and conventional subdirectories are probed for defining files.
// The output feeds documentation generation and is explicitly tolerant of
// false positives and negatives; a missing pattern yields an empty list, not
// an error.
package plugininfo
