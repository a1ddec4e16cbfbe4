// Package vfiletest provides language modules for tests that need composite
// documents without a real parser.
//
// Usage:
//
//	mod := vfiletest.NewBlockModule("vue",
//	    vfiletest.Block{Tag: "script", LanguageID: "javascript", Ext: "js", Caps: sourcemap.CapAll},
//	    vfiletest.Block{Tag: "style", LanguageID: "css", Ext: "css", Caps: sourcemap.CapAll},
//	)
//	docs := vfile.NewDocuments(mod)
//	docs.Update("file:///App.vue", "vue", 1, "<script>let a</script><style>.a{}</style>")
package vfiletest

import (
	"fmt"
	"strings"

	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// Block describes an embedded block delimited by <Tag>...</Tag>.
type Block struct {
	Tag        string
	LanguageID string
	Ext        string
	Caps       sourcemap.Capabilities
	FileCaps   vfile.FileCapabilities
}

// BlockModule decomposes a document into a root virtual file holding the
// whole text and one embedded virtual file per block occurrence.
type BlockModule struct {
	LanguageID string
	Blocks     []Block

	// RootCaps are the mapping capabilities of the root's identity mapping.
	// Zero leaves the root without mappings.
	RootCaps sourcemap.Capabilities

	// RootFileCaps are the capabilities of the root virtual file.
	RootFileCaps vfile.FileCapabilities
}

// NewBlockModule creates a module for languageID with the given blocks.
// Block virtual files default to full file capabilities.
func NewBlockModule(languageID string, blocks ...Block) *BlockModule {
	for i := range blocks {
		if blocks[i].FileCaps == 0 {
			blocks[i].FileCaps = vfile.FileCapFull
		}
	}
	return &BlockModule{LanguageID: languageID, Blocks: blocks}
}

// Handles implements vfile.LanguageModule.
func (m *BlockModule) Handles(languageID string) bool {
	return languageID == m.LanguageID
}

// CreateVirtualFile implements vfile.LanguageModule.
func (m *BlockModule) CreateVirtualFile(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
	text := doc.Text()
	root := &vfile.VirtualFile{
		URI:          lsp.DocumentURI(string(doc.URI) + ".root"),
		LanguageID:   m.LanguageID + "-root",
		Text:         text,
		Capabilities: m.RootFileCaps,
	}
	if m.RootCaps != 0 {
		root.Mappings = []sourcemap.Mapping{{
			Source:    sourcemap.Span{Start: 0, End: len(text)},
			Generated: sourcemap.Span{Start: 0, End: len(text)},
			Data:      m.RootCaps,
		}}
	}

	for _, b := range m.Blocks {
		open, end := "<"+b.Tag+">", "</"+b.Tag+">"
		from, n := 0, 0
		for {
			i := strings.Index(text[from:], open)
			if i < 0 {
				break
			}
			start := from + i + len(open)
			j := strings.Index(text[start:], end)
			if j < 0 {
				return nil, fmt.Errorf("unterminated <%s> at offset %d", b.Tag, from+i)
			}
			stop := start + j
			root.Embedded = append(root.Embedded, &vfile.VirtualFile{
				URI:          lsp.DocumentURI(fmt.Sprintf("%s.%s_%d.%s", doc.URI, b.Tag, n, b.Ext)),
				LanguageID:   b.LanguageID,
				Text:         text[start:stop],
				Capabilities: b.FileCaps,
				Mappings: []sourcemap.Mapping{{
					Source:    sourcemap.Span{Start: start, End: stop},
					Generated: sourcemap.Span{Start: 0, End: stop - start},
					Data:      b.Caps,
				}},
			})
			from = stop + len(end)
			n++
		}
	}
	return root, nil
}

// ModuleFunc adapts a function to vfile.LanguageModule.
type ModuleFunc struct {
	Language string
	Fn       func(doc *lsp.TextDocument) (*vfile.VirtualFile, error)
}

// Handles implements vfile.LanguageModule.
func (m ModuleFunc) Handles(languageID string) bool {
	return languageID == m.Language
}

// CreateVirtualFile implements vfile.LanguageModule.
func (m ModuleFunc) CreateVirtualFile(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
	return m.Fn(doc)
}
