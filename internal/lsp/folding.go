package lsp

import (
	"encoding/json"
	"sort"

	"github.com/kitecorp/kitels/internal/scan"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	return s.sendResponse(msg.ID, buildFoldingRanges(doc))
}

// buildFoldingRanges folds every brace pair spanning more than one line,
// plus block comments. String and comment braces never participate.
func buildFoldingRanges(doc *workspace.Document) []foldingRange {
	sc := doc.Index.Scan
	text := sc.Text()
	ranges := []foldingRange{}

	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '{' && sc.ClassAt(i) == scan.ClassCode:
			close := sc.MatchingBrace(i)
			if close < 0 {
				continue
			}
			start := positionForOffsetInFile(doc.File, safeUint32(i)).Line
			end := positionForOffsetInFile(doc.File, safeUint32(close)).Line
			if start < end {
				ranges = append(ranges, foldingRange{StartLine: start, EndLine: end})
			}
		case sc.ClassAt(i) == scan.ClassBlockComment && (i == 0 || sc.ClassAt(i-1) != scan.ClassBlockComment):
			end := i
			for end < len(text) && sc.ClassAt(end) == scan.ClassBlockComment {
				end++
			}
			startLine := positionForOffsetInFile(doc.File, safeUint32(i)).Line
			endLine := positionForOffsetInFile(doc.File, safeUint32(end-1)).Line
			if startLine < endLine {
				ranges = append(ranges, foldingRange{StartLine: startLine, EndLine: endLine, Kind: "comment"})
			}
			i = end - 1
		}
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].StartLine == ranges[j].StartLine {
			return ranges[i].EndLine < ranges[j].EndLine
		}
		return ranges[i].StartLine < ranges[j].StartLine
	})
	return ranges
}
