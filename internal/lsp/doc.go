// Package lsp provides the Language Server Protocol value types used by the
// embedded-language service.
//
// It contains no transport. The types here are the coordinates and payloads
// exchanged between the dispatch engine, its feature providers and callers:
// positions and ranges (UTF-16 columns, zero-based lines), locations, hovers,
// completions, diagnostics, colors, symbols and linked editing ranges.
//
// # Documents
//
// TextDocument is an immutable snapshot of a buffer at a version. It converts
// between byte offsets and LSP positions:
//
//	doc := lsp.NewTextDocument("file:///a.vue", "vue", 3, text)
//	off := doc.OffsetAt(lsp.Position{Line: 2, Character: 4})
//	pos := doc.PositionAt(off)
//
// A new version of a buffer is a new TextDocument; source maps computed
// against one version are never applied to another.
//
// # Errors
//
// ResponseError is the protocol error value. Some providers return it as a
// result rather than failing the call, so it can be cloned without losing
// its code, message, name or stack.
package lsp
