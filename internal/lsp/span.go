package lsp

import (
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"

	"github.com/kitecorp/kitels/internal/source"
)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return ^uint32(0)
	}
	return v
}

// offsetForPositionInFile maps a UTF-16 position to a byte offset using the
// file's newline index.
func offsetForPositionInFile(file *source.File, pos position) uint32 {
	if file == nil || pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	content := file.Content
	contentLen := safeUint32(len(content))
	if contentLen == 0 {
		return 0
	}
	if pos.Line > len(file.LineIdx) {
		return contentLen
	}
	var lineStart uint32
	if pos.Line > 0 {
		lineStart = file.LineIdx[pos.Line-1] + 1
	}
	lineEnd := contentLen
	if pos.Line < len(file.LineIdx) {
		lineEnd = file.LineIdx[pos.Line]
	}
	if lineStart > lineEnd {
		return lineEnd
	}
	units := 0
	off := lineStart
	for off < lineEnd {
		r, size := utf8.DecodeRune(content[off:lineEnd])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += safeUint32(size)
		if units == pos.Character {
			break
		}
	}
	return off
}

// positionForOffsetInFile maps a byte offset back to a UTF-16 position.
func positionForOffsetInFile(file *source.File, offset uint32) position {
	if file == nil {
		return position{}
	}
	if max := safeUint32(len(file.Content)); offset > max {
		offset = max
	}
	lineIdx := file.LineIdx
	idx := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= offset })
	var lineStart uint32
	if idx > 0 {
		lineStart = lineIdx[idx-1] + 1
	}
	if lineStart > offset {
		lineStart = offset
	}
	units := 0
	for off := lineStart; off < offset; {
		r, size := utf8.DecodeRune(file.Content[off:offset])
		if off+safeUint32(size) > offset {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += safeUint32(size)
	}
	return position{Line: idx, Character: units}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	if file == nil {
		return lspRange{}
	}
	return lspRange{
		Start: positionForOffsetInFile(file, span.Start),
		End:   positionForOffsetInFile(file, span.End),
	}
}
