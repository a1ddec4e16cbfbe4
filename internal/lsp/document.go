package lsp

import "unicode/utf8"

// TextDocument is an immutable, versioned text buffer identified by URI.
// Positions use UTF-16 columns; offsets are byte offsets into Text.
type TextDocument struct {
	URI        DocumentURI
	LanguageID string
	Version    int

	text  string
	lines []int // byte offset of each line start
}

// NewTextDocument creates a document and indexes its line starts.
func NewTextDocument(uri DocumentURI, languageID string, version int, text string) *TextDocument {
	doc := &TextDocument{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		text:       text,
	}
	doc.lines = lineStarts(text)
	return doc
}

// lineStarts returns the byte offset of every line start. A "\r\n" pair
// counts as one line break.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Text returns the full document content.
func (d *TextDocument) Text() string {
	return d.text
}

// LineCount returns the number of lines.
func (d *TextDocument) LineCount() int {
	return len(d.lines)
}

// TextInRange returns the text covered by rng.
func (d *TextDocument) TextInRange(rng Range) string {
	start := d.OffsetAt(rng.Start)
	end := d.OffsetAt(rng.End)
	if end < start {
		start, end = end, start
	}
	return d.text[start:end]
}

// LineContent returns the content of a line without its line break.
func (d *TextDocument) LineContent(line int) string {
	if line < 0 || line >= len(d.lines) {
		return ""
	}
	start, end := d.lineBounds(line)
	return d.text[start:end]
}

// lineBounds returns the byte range of a line excluding its line break.
func (d *TextDocument) lineBounds(line int) (start, end int) {
	start = d.lines[line]
	end = len(d.text)
	if line+1 < len(d.lines) {
		end = d.lines[line+1]
	}
	for end > start && (d.text[end-1] == '\n' || d.text[end-1] == '\r') {
		end--
	}
	return start, end
}

// OffsetAt converts a position to a byte offset. Out-of-range positions are
// clamped to the document.
func (d *TextDocument) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lines) {
		return len(d.text)
	}
	start, end := d.lineBounds(pos.Line)
	return start + utf16ToByteOffset(d.text[start:end], pos.Character)
}

// PositionAt converts a byte offset to a position. Out-of-range offsets are
// clamped to the document.
func (d *TextDocument) PositionAt(offset int) Position {
	if offset <= 0 {
		return Position{}
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}

	// Binary search for the last line start <= offset.
	lo, hi := 0, len(d.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	start, end := d.lineBounds(lo)
	if offset > end {
		offset = end
	}
	// Never split a multi-byte rune.
	for offset > start && offset < len(d.text) && !utf8.RuneStart(d.text[offset]) {
		offset--
	}
	return Position{Line: lo, Character: byteToUTF16Offset(d.text[start:end], offset-start)}
}

// RangeAt converts a byte offset pair to a range.
func (d *TextDocument) RangeAt(start, end int) Range {
	return Range{Start: d.PositionAt(start), End: d.PositionAt(end)}
}
