// Package manifest loads, mutates, and saves package.json documents.
//
// Documents are held as generic field maps so fields the automation does not
// understand survive a load/mutate/save round trip. Mutations report whether
// they changed anything, letting callers skip commits for no-op runs.
package manifest
