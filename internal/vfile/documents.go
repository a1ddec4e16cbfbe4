package vfile

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
)

// Documents tracks open documents and their virtual file trees.
//
// Documents is safe for concurrent use. Snapshots handed out are immutable;
// an update replaces them rather than mutating them.
type Documents struct {
	mu      sync.RWMutex
	modules []LanguageModule

	plain    map[lsp.DocumentURI]*lsp.TextDocument
	sources  map[lsp.DocumentURI]*SourceFile
	virtuals map[lsp.DocumentURI]virtualEntry
	maps     map[lsp.DocumentURI]*sourcemap.SourceMap
}

type virtualEntry struct {
	source lsp.DocumentURI
	file   *VirtualFile
}

// Resolved is the result of resolving a URI: either a source file with a
// virtual file tree or a plain document.
type Resolved struct {
	Source   *SourceFile
	Document *lsp.TextDocument
}

// IsVirtual reports whether the URI resolved to a virtual file tree.
func (r Resolved) IsVirtual() bool {
	return r.Source != nil && r.Source.Root != nil
}

// Visitor is called for each virtual file in a traversal together with the
// source map between it and the source document. Returning false stops the
// traversal.
type Visitor func(file *VirtualFile, m *sourcemap.SourceMap) (bool, error)

// NewDocuments creates a store using the given language modules, consulted in
// order when a document is opened.
func NewDocuments(modules ...LanguageModule) *Documents {
	return &Documents{
		modules:  modules,
		plain:    make(map[lsp.DocumentURI]*lsp.TextDocument),
		sources:  make(map[lsp.DocumentURI]*SourceFile),
		virtuals: make(map[lsp.DocumentURI]virtualEntry),
		maps:     make(map[lsp.DocumentURI]*sourcemap.SourceMap),
	}
}

// Update opens a document or replaces it with a new version. If a language
// module handles the language, the document's virtual file tree is rebuilt.
func (d *Documents) Update(uri lsp.DocumentURI, languageID string, version int, text string) error {
	doc := lsp.NewTextDocument(uri, languageID, version, text)

	var root *VirtualFile
	for _, mod := range d.modules {
		if !mod.Handles(languageID) {
			continue
		}
		vf, err := mod.CreateVirtualFile(doc)
		if err != nil {
			return fmt.Errorf("decomposing %s: %w", uri, err)
		}
		if vf != nil {
			root = vf
			break
		}
	}

	// A rejected tree leaves the previous version in place.
	if root != nil {
		var dup error
		seen := make(map[lsp.DocumentURI]bool)
		root.Walk(func(f *VirtualFile) {
			if seen[f.URI] && dup == nil {
				dup = fmt.Errorf("%w: %s", ErrDuplicateVirtualFile, f.URI)
			}
			seen[f.URI] = true
		})
		if dup != nil {
			return dup
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(uri)

	if root == nil {
		d.plain[uri] = doc
		return nil
	}

	root.Walk(func(f *VirtualFile) {
		f.version = version
		f.doc = lsp.NewTextDocument(f.URI, f.LanguageID, version, f.Text)
		d.virtuals[f.URI] = virtualEntry{source: uri, file: f}
	})
	d.sources[uri] = &SourceFile{Document: doc, Root: root}
	return nil
}

// Close forgets a document and its virtual files.
func (d *Documents) Close(uri lsp.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(uri)
}

func (d *Documents) removeLocked(uri lsp.DocumentURI) {
	delete(d.plain, uri)
	src, ok := d.sources[uri]
	if !ok {
		return
	}
	src.Root.Walk(func(f *VirtualFile) {
		delete(d.virtuals, f.URI)
		delete(d.maps, f.URI)
	})
	delete(d.sources, uri)
}

// Resolve determines whether uri denotes a composite source document or a
// plain one.
func (d *Documents) Resolve(uri lsp.DocumentURI) (Resolved, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if src, ok := d.sources[uri]; ok {
		return Resolved{Source: src, Document: src.Document}, nil
	}
	if doc, ok := d.plain[uri]; ok {
		return Resolved{Document: doc}, nil
	}
	return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
}

// TextDocument returns the snapshot for a source, plain or virtual URI.
func (d *Documents) TextDocument(uri lsp.DocumentURI) (*lsp.TextDocument, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if src, ok := d.sources[uri]; ok {
		return src.Document, true
	}
	if doc, ok := d.plain[uri]; ok {
		return doc, true
	}
	if v, ok := d.virtuals[uri]; ok {
		return v.file.doc, true
	}
	return nil, false
}

// HasVirtualFile reports whether uri names a virtual file.
func (d *Documents) HasVirtualFile(uri lsp.DocumentURI) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.virtuals[uri]
	return ok
}

// MapsForVirtualFile returns the source maps owning a virtual file URI.
// A virtual file belongs to exactly one source, so the result holds at most
// one map; it is empty for unknown URIs.
func (d *Documents) MapsForVirtualFile(uri lsp.DocumentURI) []*sourcemap.SourceMap {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.virtuals[uri]
	if !ok {
		return nil
	}
	src, ok := d.sources[v.source]
	if !ok {
		return nil
	}
	return []*sourcemap.SourceMap{d.sourceMapLocked(src, v.file)}
}

// sourceMapLocked returns the cached map for file, rebuilding it when the
// cached one was built for other versions.
func (d *Documents) sourceMapLocked(src *SourceFile, file *VirtualFile) *sourcemap.SourceMap {
	if m, ok := d.maps[file.URI]; ok && m.Matches(src.Document.Version, file.version) {
		return m
	}
	m := sourcemap.New(src.Document, file.doc, file.Mappings)
	d.maps[file.URI] = m
	return m
}

// Visit traverses the virtual file tree of src. Embedded files are visited
// before the file embedding them; siblings in declared order. The traversal
// stops when fn returns false or an error, or when ctx is done.
//
// It returns whether the traversal ran to completion.
func (d *Documents) Visit(ctx context.Context, src *SourceFile, fn Visitor) (bool, error) {
	d.mu.RLock()
	current, ok := d.sources[src.Document.URI]
	d.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownDocument, src.Document.URI)
	}
	if current.Document.Version != src.Document.Version {
		return false, fmt.Errorf("%w: %s version %d, current %d",
			ErrStaleSourceMap, src.Document.URI, src.Document.Version, current.Document.Version)
	}
	return d.visit(ctx, src, src.Root, fn)
}

func (d *Documents) visit(ctx context.Context, src *SourceFile, file *VirtualFile, fn Visitor) (bool, error) {
	for _, child := range file.Embedded {
		cont, err := d.visit(ctx, src, child, fn)
		if err != nil || !cont {
			return false, err
		}
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.mu.Lock()
	m := d.sourceMapLocked(src, file)
	d.mu.Unlock()

	return fn(file, m)
}
