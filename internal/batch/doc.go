// Package batch runs per-repository work items sequentially.
//
// Items are processed one at a time with a fixed delay between remote calls.
// A failing item is logged with its repository name and recorded in the run
// summary; processing always continues to the next item.
package batch
