// Package vfile models composite documents as trees of virtual files.
//
// A source document whose language is claimed by a LanguageModule is
// decomposed into a root VirtualFile which may embed further virtual files,
// to any depth. Every virtual file carries mapping segments relative to the
// source document it was produced from, so translation never chains through
// intermediate virtual files.
//
// Documents is the store: it resolves URIs to plain documents or virtual file
// trees, caches one source map per virtual file and rebuilds it whenever the
// source version changes, and traverses trees in a fixed order.
package vfile

import (
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
)

// FileCapabilities declares which whole-document features are meaningful on
// a virtual file.
type FileCapabilities uint8

// Virtual file capabilities.
const (
	FileCapDiagnostic FileCapabilities = 1 << iota
	FileCapFoldingRange
	FileCapDocumentFormatting
	FileCapDocumentSymbol
	FileCapCodeAction
	FileCapInlayHint

	FileCapFull = FileCapDiagnostic | FileCapFoldingRange | FileCapDocumentFormatting |
		FileCapDocumentSymbol | FileCapCodeAction | FileCapInlayHint
)

// Has reports whether every capability in mask is declared.
func (c FileCapabilities) Has(mask FileCapabilities) bool {
	return c&mask == mask
}

// VirtualFile is a derived document embedded in a source document.
type VirtualFile struct {
	URI          lsp.DocumentURI
	LanguageID   string
	Text         string
	Capabilities FileCapabilities

	// Mappings are relative to the owning source document.
	Mappings []sourcemap.Mapping

	// Embedded virtual files, in traversal order.
	Embedded []*VirtualFile

	version int
	doc     *lsp.TextDocument
}

// Document returns the snapshot of the virtual file registered with the
// store. It is nil until the file has been indexed.
func (f *VirtualFile) Document() *lsp.TextDocument {
	return f.doc
}

// Version returns the source version the file was produced from.
func (f *VirtualFile) Version() int {
	return f.version
}

// Walk calls fn for f and every embedded file, parents first.
func (f *VirtualFile) Walk(fn func(*VirtualFile)) {
	fn(f)
	for _, child := range f.Embedded {
		child.Walk(fn)
	}
}

// SourceFile is a user-authored document together with its virtual file tree.
type SourceFile struct {
	Document *lsp.TextDocument
	Root     *VirtualFile
}

// LanguageModule decomposes source documents of the languages it handles
// into virtual file trees.
type LanguageModule interface {
	// Handles reports whether the module decomposes documents of languageID.
	Handles(languageID string) bool

	// CreateVirtualFile produces the root virtual file for a source document.
	// A nil file with a nil error leaves the document plain.
	CreateVirtualFile(doc *lsp.TextDocument) (*VirtualFile, error)
}
