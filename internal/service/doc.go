// Package service dispatches editor feature requests over composite
// documents.
//
// A request names a document and, for most features, a position. The
// document is resolved through the vfile store: a plain document is handled
// directly, a composite one is traversed virtual file by virtual file. At each
// virtual file the position is mapped into the file's coordinates through its
// source map, every registered plugin is asked in registration order, and
// each answer is mapped back to the source document.
//
// Two policies combine the answers. Without a combiner the first usable
// answer wins and ends the dispatch. With one, every answer is collected and
// the combined value is reported through an optional progress callback as it
// grows:
//
//	locs, err := svc.References(ctx, uri, pos, func(partial []lsp.Location) {
//	    // partial holds every location found so far
//	})
//
// Features are thin wrappers around three generic engines: LanguageFeature
// for position features, DocumentFeature for whole-document features and
// RuleFeature for lint rule passes. Rule passes build a fresh
// lint.RuleContext per document, let RulePipeline plugins prepare it, then
// run the configured rules in order, each stage receiving the context the
// previous one returned.
//
// Plugin failures abort the dispatch and are returned as *PluginError or
// *RuleError. A document that is not open, or a position no virtual file
// maps, simply yields no result.
package service
