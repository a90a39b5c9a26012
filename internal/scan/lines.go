package scan

import "strings"

// LineStart returns the offset of the first byte of the line containing off.
func (s *Scanner) LineStart(off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(s.text) {
		off = len(s.text)
	}
	if idx := strings.LastIndexByte(s.text[:off], '\n'); idx >= 0 {
		return idx + 1
	}
	return 0
}

// LineEnd returns the offset of the terminating newline of the line
// containing off, or len(text) for the last line.
func (s *Scanner) LineEnd(off int) int {
	if off < 0 {
		off = 0
	}
	if off >= len(s.text) {
		return len(s.text)
	}
	if idx := strings.IndexByte(s.text[off:], '\n'); idx >= 0 {
		return off + idx
	}
	return len(s.text)
}

// SkipSpace returns the first offset at or after off that is neither a space
// nor a tab, bounded by to.
func (s *Scanner) SkipSpace(off, to int) int {
	if to > len(s.text) {
		to = len(s.text)
	}
	for off < to && (s.text[off] == ' ' || s.text[off] == '\t') {
		off++
	}
	return off
}

// NextCode returns the first offset at or after off whose byte is plain code
// and not whitespace, skipping comments and strings entirely. Returns -1 when
// nothing remains.
func (s *Scanner) NextCode(off int) int {
	if off < 0 {
		off = 0
	}
	for i := off; i < len(s.text); i++ {
		if s.classes[i] != ClassCode {
			continue
		}
		switch s.text[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return i
	}
	return -1
}
