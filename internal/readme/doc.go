// Package readme synthesizes plugin README documents.
//
// Generation prefers the chat-completion model with an instruction to
// preserve existing section headings, validates the response heuristically
// (advisory warnings, plus a hard character floor below which the response is
// discarded), and falls back to deterministic template substitution whenever
// the model path fails. A guard refuses writes aimed at the automation
// repository's own tree.
package readme
