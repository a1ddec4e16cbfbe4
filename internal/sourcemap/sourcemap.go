// Package sourcemap translates positions and ranges between a source
// document and one generated (virtual) document.
//
// Mapping segments pair a byte span in the source with a byte span in the
// generated document. Each segment carries Capabilities; every translation
// takes a mask and only considers segments that have all of its flags.
// Translation is not a bijection: a position may hit several segments or
// none at all.
package sourcemap

import (
	"github.com/dshills/embedls/internal/lsp"
)

// Span is a half-open byte range [Start, End). Translation treats End as
// inclusive so a cursor at the end of an embedded block still maps.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset lies within the span, end inclusive.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Mapping pairs a source span with a generated span.
type Mapping struct {
	Source    Span
	Generated Span
	Data      Capabilities
}

// translate maps offset from one side of the segment to the other.
// Segments of unequal length only map their boundaries.
func translate(offset int, from, to Span) (int, bool) {
	if !from.Contains(offset) {
		return 0, false
	}
	if from.Len() == to.Len() {
		return to.Start + (offset - from.Start), true
	}
	switch offset {
	case from.Start:
		return to.Start, true
	case from.End:
		return to.End, true
	}
	return 0, false
}

// SourceMap is an immutable translator between a source document and a
// generated document at fixed versions.
type SourceMap struct {
	source    *lsp.TextDocument
	generated *lsp.TextDocument
	mappings  []Mapping
}

// New creates a source map between two document snapshots.
func New(source, generated *lsp.TextDocument, mappings []Mapping) *SourceMap {
	m := make([]Mapping, len(mappings))
	copy(m, mappings)
	return &SourceMap{
		source:    source,
		generated: generated,
		mappings:  m,
	}
}

// SourceDocument returns the source snapshot.
func (m *SourceMap) SourceDocument() *lsp.TextDocument {
	return m.source
}

// GeneratedDocument returns the generated snapshot.
func (m *SourceMap) GeneratedDocument() *lsp.TextDocument {
	return m.generated
}

// Mappings returns a copy of the mapping segments.
func (m *SourceMap) Mappings() []Mapping {
	out := make([]Mapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

// Matches reports whether the map was built for the given versions.
func (m *SourceMap) Matches(sourceVersion, generatedVersion int) bool {
	return m.source.Version == sourceVersion && m.generated.Version == generatedVersion
}

// ToGeneratedPositions returns every generated position pos maps to through
// segments satisfying mask, in segment order.
func (m *SourceMap) ToGeneratedPositions(pos lsp.Position, mask Capabilities) []lsp.Position {
	offset := m.source.OffsetAt(pos)
	var out []lsp.Position
	for _, seg := range m.mappings {
		if !seg.Data.Has(mask) {
			continue
		}
		if to, ok := translate(offset, seg.Source, seg.Generated); ok {
			out = append(out, m.generated.PositionAt(to))
		}
	}
	return out
}

// ToGeneratedPosition returns the first generated position for pos.
func (m *SourceMap) ToGeneratedPosition(pos lsp.Position, mask Capabilities) (lsp.Position, bool) {
	all := m.ToGeneratedPositions(pos, mask)
	if len(all) == 0 {
		return lsp.Position{}, false
	}
	return all[0], true
}

// ToSourcePositions returns every source position a generated position maps to.
func (m *SourceMap) ToSourcePositions(pos lsp.Position, mask Capabilities) []lsp.Position {
	offset := m.generated.OffsetAt(pos)
	var out []lsp.Position
	for _, seg := range m.mappings {
		if !seg.Data.Has(mask) {
			continue
		}
		if to, ok := translate(offset, seg.Generated, seg.Source); ok {
			out = append(out, m.source.PositionAt(to))
		}
	}
	return out
}

// ToSourcePosition returns the first source position for a generated position.
func (m *SourceMap) ToSourcePosition(pos lsp.Position, mask Capabilities) (lsp.Position, bool) {
	all := m.ToSourcePositions(pos, mask)
	if len(all) == 0 {
		return lsp.Position{}, false
	}
	return all[0], true
}

// ToGeneratedRange maps a source range into the generated document.
func (m *SourceMap) ToGeneratedRange(rng lsp.Range, mask Capabilities) (lsp.Range, bool) {
	start, end, ok := m.mapRange(m.source.OffsetAt(rng.Start), m.source.OffsetAt(rng.End), mask, false)
	if !ok {
		return lsp.Range{}, false
	}
	return m.generated.RangeAt(start, end), true
}

// ToSourceRange maps a generated range back into the source document.
func (m *SourceMap) ToSourceRange(rng lsp.Range, mask Capabilities) (lsp.Range, bool) {
	start, end, ok := m.mapRange(m.generated.OffsetAt(rng.Start), m.generated.OffsetAt(rng.End), mask, true)
	if !ok {
		return lsp.Range{}, false
	}
	return m.source.RangeAt(start, end), true
}

// ToSourceLocation maps a generated range to a location in the source document.
func (m *SourceMap) ToSourceLocation(rng lsp.Range, mask Capabilities) (lsp.Location, bool) {
	r, ok := m.ToSourceRange(rng, mask)
	if !ok {
		return lsp.Location{}, false
	}
	return lsp.Location{URI: m.source.URI, Range: r}, true
}

// mapRange translates a start/end offset pair. A segment containing both ends
// wins; otherwise the ends may come from different segments as long as the
// result is not inverted.
func (m *SourceMap) mapRange(start, end int, mask Capabilities, toSource bool) (int, int, bool) {
	side := func(seg Mapping) (from, to Span) {
		if toSource {
			return seg.Generated, seg.Source
		}
		return seg.Source, seg.Generated
	}

	for _, seg := range m.mappings {
		if !seg.Data.Has(mask) {
			continue
		}
		from, to := side(seg)
		s, okStart := translate(start, from, to)
		e, okEnd := translate(end, from, to)
		if okStart && okEnd {
			return s, e, true
		}
	}

	var mappedStart, mappedEnd []int
	for _, seg := range m.mappings {
		if !seg.Data.Has(mask) {
			continue
		}
		from, to := side(seg)
		if s, ok := translate(start, from, to); ok {
			mappedStart = append(mappedStart, s)
		}
		if e, ok := translate(end, from, to); ok {
			mappedEnd = append(mappedEnd, e)
		}
	}
	for _, s := range mappedStart {
		for _, e := range mappedEnd {
			if e >= s {
				return s, e, true
			}
		}
	}
	return 0, 0, false
}
