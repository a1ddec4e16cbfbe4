package lsp

// --- UTF-16 conversion helpers ---

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		if r >= 0x10000 {
			count += 2 // Surrogate pair
		} else {
			count++
		}
	}
	return count
}

// byteToUTF16Offset converts a byte offset within a line to a UTF-16 column.
func byteToUTF16Offset(s string, byteOff int) int {
	if byteOff <= 0 {
		return 0
	}
	if byteOff >= len(s) {
		return utf16Len(s)
	}

	col := 0
	for i, r := range s {
		if i >= byteOff {
			break
		}
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return col
}

// utf16ToByteOffset converts a UTF-16 column to a byte offset within a line.
func utf16ToByteOffset(s string, col int) int {
	if col <= 0 {
		return 0
	}

	count := 0
	for i, r := range s {
		if count >= col {
			return i
		}
		if r >= 0x10000 {
			count += 2
		} else {
			count++
		}
	}
	return len(s)
}

// --- Comparisons ---

// ComparePositions returns -1 if a < b, 0 if a == b, 1 if a > b.
func ComparePositions(a, b Position) int {
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	case a.Character < b.Character:
		return -1
	case a.Character > b.Character:
		return 1
	}
	return 0
}

// IsPositionBefore returns true if a is before b.
func IsPositionBefore(a, b Position) bool {
	return ComparePositions(a, b) < 0
}

// IsPositionInRange returns true if pos is within the range (inclusive).
func IsPositionInRange(pos Position, rng Range) bool {
	return ComparePositions(pos, rng.Start) >= 0 && ComparePositions(pos, rng.End) <= 0
}

// RangeContains returns true if outer contains inner.
func RangeContains(outer, inner Range) bool {
	return IsPositionInRange(inner.Start, outer) && IsPositionInRange(inner.End, outer)
}

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}
