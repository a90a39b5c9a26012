// Package scan provides comment/string/interpolation-aware primitives over
// raw Kite source text. Everything above it (the scope indexer, occurrence
// collection, import extraction, folding) shares this single classification
// pass, so all consumers agree on what is code and what is not.
package scan

// Class classifies a single byte of source text.
type Class uint8

const (
	// ClassCode is plain source text outside strings and comments.
	ClassCode Class = iota
	// ClassLineComment covers // through the end of line.
	ClassLineComment
	// ClassBlockComment covers /* through */ and may span lines.
	ClassBlockComment
	// ClassSingleString is the body and quotes of a '...' literal.
	ClassSingleString
	// ClassDoubleString is the body and quotes of a "..." literal,
	// including interpolation punctuation ($, ${, }).
	ClassDoubleString
	// ClassInterp is the expression text inside ${...} or the name after a
	// bare $ in a double-quoted string. It counts as inside-string for
	// classification queries but is scanned as code for identifiers.
	ClassInterp
)

// Scanner holds the per-byte classification of one document. Built once per
// index pass and discarded with it.
type Scanner struct {
	text    string
	classes []Class
}

// New classifies text in a single forward pass.
func New(text string) *Scanner {
	s := &Scanner{
		text:    text,
		classes: make([]Class, len(text)),
	}
	s.classify()
	return s
}

// Text returns the scanned document text.
func (s *Scanner) Text() string { return s.text }

// Len returns the document length in bytes.
func (s *Scanner) Len() int { return len(s.text) }

const (
	stateCode = iota
	stateLineComment
	stateBlockComment
	stateSingle
	stateDouble
)

// classify runs the shared state machine. Backslash-escaped quotes do not
// terminate strings; an unterminated string ends at the newline so a stray
// quote never swallows the rest of the document.
func (s *Scanner) classify() {
	text := s.text
	state := stateCode
	i := 0
	for i < len(text) {
		ch := text[i]
		switch state {
		case stateCode:
			switch {
			case ch == '/' && i+1 < len(text) && text[i+1] == '/':
				s.classes[i] = ClassLineComment
				s.classes[i+1] = ClassLineComment
				i += 2
				state = stateLineComment
			case ch == '/' && i+1 < len(text) && text[i+1] == '*':
				s.classes[i] = ClassBlockComment
				s.classes[i+1] = ClassBlockComment
				i += 2
				state = stateBlockComment
			case ch == '\'':
				s.classes[i] = ClassSingleString
				i++
				state = stateSingle
			case ch == '"':
				s.classes[i] = ClassDoubleString
				i++
				state = stateDouble
			default:
				s.classes[i] = ClassCode
				i++
			}
		case stateLineComment:
			if ch == '\n' {
				s.classes[i] = ClassCode
				state = stateCode
			} else {
				s.classes[i] = ClassLineComment
			}
			i++
		case stateBlockComment:
			if ch == '*' && i+1 < len(text) && text[i+1] == '/' {
				s.classes[i] = ClassBlockComment
				s.classes[i+1] = ClassBlockComment
				i += 2
				state = stateCode
			} else {
				s.classes[i] = ClassBlockComment
				i++
			}
		case stateSingle:
			switch {
			case ch == '\\' && i+1 < len(text):
				s.classes[i] = ClassSingleString
				s.classes[i+1] = ClassSingleString
				i += 2
			case ch == '\'':
				s.classes[i] = ClassSingleString
				i++
				state = stateCode
			case ch == '\n':
				s.classes[i] = ClassCode
				i++
				state = stateCode
			default:
				s.classes[i] = ClassSingleString
				i++
			}
		case stateDouble:
			switch {
			case ch == '\\' && i+1 < len(text):
				s.classes[i] = ClassDoubleString
				s.classes[i+1] = ClassDoubleString
				i += 2
			case ch == '"':
				s.classes[i] = ClassDoubleString
				i++
				state = stateCode
			case ch == '\n':
				s.classes[i] = ClassCode
				i++
				state = stateCode
			case ch == '$' && i+1 < len(text) && text[i+1] == '{':
				i = s.classifyBraceInterp(i)
			case ch == '$' && i+1 < len(text) && isIdentStart(text[i+1]):
				// Bare $name form: the $ is string punctuation, the
				// name is interpolated code.
				s.classes[i] = ClassDoubleString
				i++
				for i < len(text) && isIdentPart(text[i]) {
					s.classes[i] = ClassInterp
					i++
				}
			default:
				s.classes[i] = ClassDoubleString
				i++
			}
		}
	}
}

// classifyBraceInterp marks a ${...} region starting at the $ and returns the
// offset past it. The interpolation braces never change code brace depth:
// both are classified as string punctuation, and nested braces inside the
// expression stay ClassInterp.
func (s *Scanner) classifyBraceInterp(start int) int {
	text := s.text
	s.classes[start] = ClassDoubleString   // $
	s.classes[start+1] = ClassDoubleString // {
	i := start + 2
	depth := 1
	for i < len(text) {
		ch := text[i]
		if ch == '\n' {
			// Unterminated interpolation: give up at end of line.
			s.classes[i] = ClassCode
			return i + 1
		}
		if ch == '{' {
			depth++
		} else if ch == '}' {
			depth--
			if depth == 0 {
				s.classes[i] = ClassDoubleString
				return i + 1
			}
		}
		s.classes[i] = ClassInterp
		i++
	}
	return i
}

// ClassAt returns the classification of the byte at off, or ClassCode for
// out-of-range offsets.
func (s *Scanner) ClassAt(off int) Class {
	if off < 0 || off >= len(s.classes) {
		return ClassCode
	}
	return s.classes[off]
}

// InsideString reports whether off sits inside a string literal. Bytes of an
// interpolated expression report true: the enclosing quotes win for
// classification even though identifiers there are still collected.
func (s *Scanner) InsideString(off int) bool {
	switch s.ClassAt(off) {
	case ClassSingleString, ClassDoubleString, ClassInterp:
		return true
	}
	return false
}

// InsideComment reports whether off sits inside a line or block comment.
func (s *Scanner) InsideComment(off int) bool {
	switch s.ClassAt(off) {
	case ClassLineComment, ClassBlockComment:
		return true
	}
	return false
}

// IsCode reports whether the byte at off participates in code scanning:
// plain code or an interpolated expression.
func (s *Scanner) IsCode(off int) bool {
	c := s.ClassAt(off)
	return c == ClassCode || c == ClassInterp
}

// MatchingBrace returns the offset of the } matching the { at open, skipping
// braces inside strings and comments. Returns -1 when open does not point at
// a code-class { or the brace is unbalanced.
func (s *Scanner) MatchingBrace(open int) int {
	return s.matchingPair(open, '{', '}')
}

// MatchingBracket returns the offset of the ] matching the [ at open, with
// the same string/comment skipping rules as MatchingBrace.
func (s *Scanner) MatchingBracket(open int) int {
	return s.matchingPair(open, '[', ']')
}

// MatchingParen returns the offset of the ) matching the ( at open, with the
// same string/comment skipping rules as MatchingBrace.
func (s *Scanner) MatchingParen(open int) int {
	return s.matchingPair(open, '(', ')')
}

func (s *Scanner) matchingPair(open int, openCh, closeCh byte) int {
	if open < 0 || open >= len(s.text) || s.text[open] != openCh || s.ClassAt(open) != ClassCode {
		return -1
	}
	depth := 0
	for i := open; i < len(s.text); i++ {
		if s.classes[i] != ClassCode {
			continue
		}
		switch s.text[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9'
}
