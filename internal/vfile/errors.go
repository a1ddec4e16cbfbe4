package vfile

import "errors"

// Errors returned by the document store.
var (
	// ErrUnknownDocument indicates the URI is neither a plain document nor a
	// source document with a virtual file tree.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrStaleSourceMap indicates a traversal was requested for a source
	// snapshot that has since been replaced by a newer version.
	ErrStaleSourceMap = errors.New("source map built for a different document version")

	// ErrDuplicateVirtualFile indicates a language module produced two
	// virtual files with the same URI.
	ErrDuplicateVirtualFile = errors.New("duplicate virtual file uri")
)
