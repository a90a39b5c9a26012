package lsp

import "unicode/utf8"

// applyChanges folds incremental content changes into text. A change without
// a range replaces the whole document.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := offsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetForPosition maps a UTF-16 line/character position into a byte offset,
// clamping out-of-range positions to the nearest valid offset.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	line := 0
	i := 0
	for i < len(text) && line < pos.Line {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := 0
	for i < len(text) && text[i] != '\n' {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
		if units == pos.Character {
			break
		}
	}
	return i
}
