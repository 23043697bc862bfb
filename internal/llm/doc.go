// Package llm wraps the hosted chat-completion API behind a small interface
// so generators can be tested without network access.
package llm
