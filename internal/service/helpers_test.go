package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
	"github.com/dshills/embedls/internal/vfile/vfiletest"
)

const (
	appURI    lsp.DocumentURI = "file:///App.vue"
	scriptURI lsp.DocumentURI = "file:///App.vue.script_0.js"
	styleURI  lsp.DocumentURI = "file:///App.vue.style_0.css"
	notesURI  lsp.DocumentURI = "file:///notes.txt"

	// script "let x = 1" occupies source offsets 8-17, style ".a{}" 33-37.
	appText = "<script>let x = 1</script><style>.a{}</style>"
)

// inScript is a source position inside the script block; it maps to
// character 4 of the script virtual file.
var inScript = lsp.Position{Line: 0, Character: 12}

// callLog records plugin invocations as "plugin:feature:uri".
type callLog struct {
	calls []string
}

func (l *callLog) record(plugin, feature string, uri lsp.DocumentURI) {
	l.calls = append(l.calls, fmt.Sprintf("%s:%s:%s", plugin, feature, uri))
}

// fakePlugin implements every hook. Hooks without a function return nothing.
type fakePlugin struct {
	name string
	log  *callLog

	hover     func(doc *lsp.TextDocument, pos lsp.Position) (*lsp.Hover, error)
	complete  func(doc *lsp.TextDocument, pos lsp.Position) (*lsp.CompletionList, error)
	prepare   func(doc *lsp.TextDocument, pos lsp.Position) (*PrepareRenameResult, error)
	linked    func(doc *lsp.TextDocument, pos lsp.Position) (*lsp.LinkedEditingRanges, error)
	refs      func(doc *lsp.TextDocument, pos lsp.Position) ([]lsp.Location, error)
	colors    func(doc *lsp.TextDocument) ([]lsp.ColorInformation, error)
	symbols   func(doc *lsp.TextDocument) ([]lsp.SymbolInformation, error)
	workspace func(query string) ([]lsp.SymbolInformation, error)
	validate  func(doc *lsp.TextDocument, phase lint.Phase) ([]lsp.Diagnostic, error)
	hooks     RuleHooks
}

func (p *fakePlugin) note(feature string, uri lsp.DocumentURI) {
	if p.log != nil {
		p.log.record(p.name, feature, uri)
	}
}

func (p *fakePlugin) Hover(_ context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.Hover, error) {
	p.note("hover", doc.URI)
	if p.hover == nil {
		return nil, nil
	}
	return p.hover(doc, pos)
}

func (p *fakePlugin) Complete(_ context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.CompletionList, error) {
	p.note("complete", doc.URI)
	if p.complete == nil {
		return nil, nil
	}
	return p.complete(doc, pos)
}

func (p *fakePlugin) PrepareRename(_ context.Context, doc *lsp.TextDocument, pos lsp.Position) (*PrepareRenameResult, error) {
	p.note("prepareRename", doc.URI)
	if p.prepare == nil {
		return nil, nil
	}
	return p.prepare(doc, pos)
}

func (p *fakePlugin) LinkedEditingRanges(_ context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.LinkedEditingRanges, error) {
	p.note("linked", doc.URI)
	if p.linked == nil {
		return nil, nil
	}
	return p.linked(doc, pos)
}

func (p *fakePlugin) References(_ context.Context, doc *lsp.TextDocument, pos lsp.Position) ([]lsp.Location, error) {
	p.note("references", doc.URI)
	if p.refs == nil {
		return nil, nil
	}
	return p.refs(doc, pos)
}

func (p *fakePlugin) DocumentColors(_ context.Context, doc *lsp.TextDocument) ([]lsp.ColorInformation, error) {
	p.note("colors", doc.URI)
	if p.colors == nil {
		return nil, nil
	}
	return p.colors(doc)
}

func (p *fakePlugin) DocumentSymbols(_ context.Context, doc *lsp.TextDocument) ([]lsp.SymbolInformation, error) {
	p.note("symbols", doc.URI)
	if p.symbols == nil {
		return nil, nil
	}
	return p.symbols(doc)
}

func (p *fakePlugin) WorkspaceSymbols(_ context.Context, query string) ([]lsp.SymbolInformation, error) {
	p.note("workspace", "")
	if p.workspace == nil {
		return nil, nil
	}
	return p.workspace(query)
}

func (p *fakePlugin) Validate(_ context.Context, doc *lsp.TextDocument, phase lint.Phase) ([]lsp.Diagnostic, error) {
	p.note("validate", doc.URI)
	if p.validate == nil {
		return nil, nil
	}
	return p.validate(doc, phase)
}

func (p *fakePlugin) RuleHooks() RuleHooks {
	return p.hooks
}

// hoverOnly implements nothing but HoverProvider.
type hoverOnly struct {
	text string
}

func (h hoverOnly) Hover(context.Context, *lsp.TextDocument, lsp.Position) (*lsp.Hover, error) {
	return &lsp.Hover{Contents: lsp.MarkupContent{Kind: lsp.MarkupKindPlainText, Value: h.text}}, nil
}

// appModule decomposes App.vue into a root holding the whole text and two
// embedded files. Each embedded file has a second, unmapped line.
var appModule = vfiletest.ModuleFunc{Language: "vue", Fn: func(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
	return &vfile.VirtualFile{
		URI:        appURI + ".root",
		LanguageID: "vue-root",
		Text:       doc.Text(),
		Embedded: []*vfile.VirtualFile{
			{
				URI:          scriptURI,
				LanguageID:   "javascript",
				Text:         "let x = 1\n//pad",
				Capabilities: vfile.FileCapFull,
				Mappings: []sourcemap.Mapping{{
					Source:    sourcemap.Span{Start: 8, End: 17},
					Generated: sourcemap.Span{Start: 0, End: 9},
					Data:      sourcemap.CapAll,
				}},
			},
			{
				URI:          styleURI,
				LanguageID:   "css",
				Text:         ".a{}\n/*pad*/",
				Capabilities: vfile.FileCapFull &^ vfile.FileCapDocumentFormatting,
				Mappings: []sourcemap.Mapping{{
					Source:    sourcemap.Span{Start: 33, End: 37},
					Generated: sourcemap.Span{Start: 0, End: 4},
					Data:      sourcemap.CapAll,
				}},
			},
		},
	}, nil
}}

// newTestService opens App.vue and notes.txt (plain) and registers plugins
// in order.
func newTestService(t *testing.T, plugins ...*fakePlugin) *Service {
	t.Helper()

	docs := vfile.NewDocuments(appModule)
	require.NoError(t, docs.Update(appURI, "vue", 1, appText))
	require.NoError(t, docs.Update(notesURI, "plaintext", 1, "let x = 1"))

	reg := NewRegistry()
	for _, p := range plugins {
		require.NoError(t, reg.Register(p.name, p))
	}
	return New(docs, reg)
}

func rng(sl, sc, el, ec int) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: sl, Character: sc},
		End:   lsp.Position{Line: el, Character: ec},
	}
}
