package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// generatedPositions maps a source position into a virtual file through
// segments satisfying mask.
func generatedPositions(mask sourcemap.Capabilities) func(lsp.Position, *sourcemap.SourceMap, *vfile.VirtualFile) []lsp.Position {
	return func(pos lsp.Position, m *sourcemap.SourceMap, _ *vfile.VirtualFile) []lsp.Position {
		return m.ToGeneratedPositions(pos, mask)
	}
}

func hasFileCapability(mask vfile.FileCapabilities) func(*vfile.VirtualFile, *sourcemap.SourceMap) bool {
	return func(file *vfile.VirtualFile, _ *sourcemap.SourceMap) bool {
		return file.Capabilities.Has(mask)
	}
}

func toSourceEdit(edit lsp.TextEdit, m *sourcemap.SourceMap, mask sourcemap.Capabilities) (lsp.TextEdit, bool) {
	rng, ok := m.ToSourceRange(edit.Range, mask)
	if !ok {
		return lsp.TextEdit{}, false
	}
	return lsp.TextEdit{Range: rng, NewText: edit.NewText}, true
}

// Hover returns the first hover any plugin produces at pos, or nil.
func (s *Service) Hover(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position) (*lsp.Hover, error) {
	hover, _, err := LanguageFeature(ctx, s, FeatureRequest[*lsp.Hover, lsp.Position]{
		Feature:      "hover",
		URI:          uri,
		Arg:          pos,
		TransformArg: generatedPositions(sourcemap.CapHover),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, pos lsp.Position, _ *sourcemap.SourceMap) (*lsp.Hover, error) {
			hp, ok := p.(HoverProvider)
			if !ok {
				return nil, nil
			}
			return hp.Hover(ctx, doc, pos)
		},
		Transform: func(h *lsp.Hover, m *sourcemap.SourceMap) (*lsp.Hover, bool) {
			if h.Range == nil {
				return h, true
			}
			rng, ok := m.ToSourceRange(*h.Range, sourcemap.CapNone)
			if !ok {
				return nil, false
			}
			return &lsp.Hover{Contents: h.Contents, Range: &rng}, true
		},
	})
	return hover, err
}

// Complete merges the completion lists of every plugin at pos. progress, if
// set, receives the merged list as plugins answer.
func (s *Service) Complete(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position, progress func(*lsp.CompletionList)) (*lsp.CompletionList, error) {
	list, _, err := LanguageFeature(ctx, s, FeatureRequest[*lsp.CompletionList, lsp.Position]{
		Feature:      "completion",
		URI:          uri,
		Arg:          pos,
		TransformArg: generatedPositions(sourcemap.CapCompletion),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, pos lsp.Position, _ *sourcemap.SourceMap) (*lsp.CompletionList, error) {
			cp, ok := p.(CompletionProvider)
			if !ok {
				return nil, nil
			}
			return cp.Complete(ctx, doc, pos)
		},
		Transform: transformCompletionList,
		Combine:   MergeCompletionLists,
		Progress:  progress,
	})
	return list, err
}

// transformCompletionList drops items whose edit cannot be mapped back.
func transformCompletionList(list *lsp.CompletionList, m *sourcemap.SourceMap) (*lsp.CompletionList, bool) {
	items := lo.FilterMap(list.Items, func(item lsp.CompletionItem, _ int) (lsp.CompletionItem, bool) {
		if item.TextEdit != nil {
			edit, ok := toSourceEdit(*item.TextEdit, m, sourcemap.CapCompletion)
			if !ok {
				return item, false
			}
			item.TextEdit = &edit
		}
		if len(item.AdditionalTextEdits) > 0 {
			item.AdditionalTextEdits = lo.FilterMap(item.AdditionalTextEdits, func(e lsp.TextEdit, _ int) (lsp.TextEdit, bool) {
				return toSourceEdit(e, m, sourcemap.CapNone)
			})
		}
		return item, true
	})
	return &lsp.CompletionList{IsIncomplete: list.IsIncomplete, Items: items}, true
}

// PrepareRename returns the range to rename at pos. If no plugin offers a
// range but some refused, the first refusal is returned as a
// *lsp.ResponseError. Nil and no error means nothing answered.
func (s *Service) PrepareRename(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position) (*lsp.Range, error) {
	res, ok, err := LanguageFeature(ctx, s, FeatureRequest[*PrepareRenameResult, lsp.Position]{
		Feature:      "prepareRename",
		URI:          uri,
		Arg:          pos,
		TransformArg: generatedPositions(sourcemap.CapRename),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, pos lsp.Position, _ *sourcemap.SourceMap) (*PrepareRenameResult, error) {
			rp, ok := p.(RenamePreparer)
			if !ok {
				return nil, nil
			}
			return rp.PrepareRename(ctx, doc, pos)
		},
		Transform: func(r *PrepareRenameResult, m *sourcemap.SourceMap) (*PrepareRenameResult, bool) {
			if r.Range == nil {
				return r, r.Err != nil
			}
			rng, ok := m.ToSourceRange(*r.Range, sourcemap.CapNone)
			if !ok {
				return nil, false
			}
			return &PrepareRenameResult{Range: &rng}, true
		},
		Combine: CombinePrepareRename,
	})
	if err != nil || !ok || res == nil {
		return nil, err
	}
	if res.Range != nil {
		return res.Range, nil
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return nil, nil
}

// LinkedEditingRanges returns the first set of linked ranges at pos.
func (s *Service) LinkedEditingRanges(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position) (*lsp.LinkedEditingRanges, error) {
	ranges, _, err := LanguageFeature(ctx, s, FeatureRequest[*lsp.LinkedEditingRanges, lsp.Position]{
		Feature:      "linkedEditingRange",
		URI:          uri,
		Arg:          pos,
		TransformArg: generatedPositions(sourcemap.CapCompletion),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, pos lsp.Position, _ *sourcemap.SourceMap) (*lsp.LinkedEditingRanges, error) {
			lp, ok := p.(LinkedEditingRangeProvider)
			if !ok {
				return nil, nil
			}
			return lp.LinkedEditingRanges(ctx, doc, pos)
		},
		Transform: func(r *lsp.LinkedEditingRanges, m *sourcemap.SourceMap) (*lsp.LinkedEditingRanges, bool) {
			mapped := lo.FilterMap(r.Ranges, func(rng lsp.Range, _ int) (lsp.Range, bool) {
				return m.ToSourceRange(rng, sourcemap.CapNone)
			})
			if len(mapped) == 0 {
				return nil, false
			}
			return &lsp.LinkedEditingRanges{Ranges: mapped, WordPattern: r.WordPattern}, true
		},
	})
	return ranges, err
}

// References returns the locations every plugin finds for the symbol at pos.
// Locations inside virtual files are reported in their source documents.
func (s *Service) References(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position, progress func([]lsp.Location)) ([]lsp.Location, error) {
	locs, _, err := LanguageFeature(ctx, s, FeatureRequest[[]lsp.Location, lsp.Position]{
		Feature:      "references",
		URI:          uri,
		Arg:          pos,
		TransformArg: generatedPositions(sourcemap.CapReferences),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, pos lsp.Position, _ *sourcemap.SourceMap) ([]lsp.Location, error) {
			rp, ok := p.(ReferencesProvider)
			if !ok {
				return nil, nil
			}
			return rp.References(ctx, doc, pos)
		},
		Transform: func(locs []lsp.Location, _ *sourcemap.SourceMap) ([]lsp.Location, bool) {
			return lo.FilterMap(locs, func(loc lsp.Location, _ int) (lsp.Location, bool) {
				return s.toSourceLocation(loc, sourcemap.CapReferences)
			}), true
		},
		Combine:  Flatten[lsp.Location],
		Progress: progress,
	})
	return locs, err
}

// DocumentColors returns the colors of a document.
func (s *Service) DocumentColors(ctx context.Context, uri lsp.DocumentURI) ([]lsp.ColorInformation, error) {
	colors, _, err := DocumentFeature(ctx, s, DocumentRequest[[]lsp.ColorInformation]{
		Feature: "documentColor",
		URI:     uri,
		IsValid: hasFileCapability(vfile.FileCapDocumentSymbol),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, _ *sourcemap.SourceMap) ([]lsp.ColorInformation, error) {
			cp, ok := p.(DocumentColorProvider)
			if !ok {
				return nil, nil
			}
			return cp.DocumentColors(ctx, doc)
		},
		Transform: func(colors []lsp.ColorInformation, m *sourcemap.SourceMap) ([]lsp.ColorInformation, bool) {
			return lo.FilterMap(colors, func(c lsp.ColorInformation, _ int) (lsp.ColorInformation, bool) {
				rng, ok := m.ToSourceRange(c.Range, sourcemap.CapNone)
				return lsp.ColorInformation{Range: rng, Color: c.Color}, ok
			}), true
		},
		Combine: Flatten[lsp.ColorInformation],
	})
	return colors, err
}

// DocumentSymbols returns the symbols of a document.
func (s *Service) DocumentSymbols(ctx context.Context, uri lsp.DocumentURI) ([]lsp.SymbolInformation, error) {
	symbols, _, err := DocumentFeature(ctx, s, DocumentRequest[[]lsp.SymbolInformation]{
		Feature: "documentSymbol",
		URI:     uri,
		IsValid: hasFileCapability(vfile.FileCapDocumentSymbol),
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, _ *sourcemap.SourceMap) ([]lsp.SymbolInformation, error) {
			sp, ok := p.(DocumentSymbolProvider)
			if !ok {
				return nil, nil
			}
			return sp.DocumentSymbols(ctx, doc)
		},
		Transform: func(symbols []lsp.SymbolInformation, _ *sourcemap.SourceMap) ([]lsp.SymbolInformation, bool) {
			return lo.FilterMap(symbols, func(sym lsp.SymbolInformation, _ int) (lsp.SymbolInformation, bool) {
				loc, ok := s.toSourceLocation(sym.Location, sourcemap.CapNone)
				sym.Location = loc
				return sym, ok
			}), true
		},
		Combine: Flatten[lsp.SymbolInformation],
	})
	return symbols, err
}

// WorkspaceSymbols asks every plugin for workspace symbols matching query.
// Locations in virtual files are reported in their source documents; symbols
// in documents that are not open, or that cannot be mapped back, are
// dropped. Results keep plugin registration order.
func (s *Service) WorkspaceSymbols(ctx context.Context, query string) ([]lsp.SymbolInformation, error) {
	d := s.begin("workspaceSymbol", "")
	out := []lsp.SymbolInformation{}

	for _, e := range s.plugins.Snapshot() {
		wp, ok := e.Plugin.(WorkspaceSymbolProvider)
		if !ok {
			continue
		}
		d.calls++
		symbols, err := wp.WorkspaceSymbols(ctx, query)
		if err != nil {
			err = &PluginError{PluginID: e.ID, Feature: "workspaceSymbol", Err: err}
			d.end(len(out), err)
			return nil, err
		}
		out = append(out, lo.FilterMap(symbols, func(sym lsp.SymbolInformation, _ int) (lsp.SymbolInformation, bool) {
			if !s.isKnown(sym.Location.URI) {
				return sym, false
			}
			loc, ok := s.toSourceLocation(sym.Location, sourcemap.CapNone)
			sym.Location = loc
			return sym, ok
		})...)
	}

	d.end(len(out), nil)
	return out, nil
}
