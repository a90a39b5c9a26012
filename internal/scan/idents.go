package scan

// Ident is a maximal identifier run in code or interpolation class.
type Ident struct {
	Start int
	End   int
	Text  string
}

// Idents returns every identifier occurrence in [from, to), skipping string
// content and comments but descending into ${...} and $name interpolations.
func (s *Scanner) Idents(from, to int) []Ident {
	if from < 0 {
		from = 0
	}
	if to > len(s.text) {
		to = len(s.text)
	}
	var out []Ident
	i := from
	for i < to {
		if !s.IsCode(i) || !isIdentStart(s.text[i]) {
			i++
			continue
		}
		// An identifier must not start mid-run: back off if the previous
		// byte continues the same code-class run.
		if i > from && s.IsCode(i-1) && isIdentPart(s.text[i-1]) {
			i++
			continue
		}
		start := i
		for i < to && s.IsCode(i) && isIdentPart(s.text[i]) {
			i++
		}
		out = append(out, Ident{Start: start, End: i, Text: s.text[start:i]})
	}
	return out
}

// IdentAt returns the identifier covering off, if any.
func (s *Scanner) IdentAt(off int) (Ident, bool) {
	if off < 0 || off >= len(s.text) {
		return Ident{}, false
	}
	if !s.IsCode(off) || !isIdentPart(s.text[off]) {
		return Ident{}, false
	}
	start := off
	for start > 0 && s.IsCode(start-1) && isIdentPart(s.text[start-1]) {
		start--
	}
	if !isIdentStart(s.text[start]) {
		return Ident{}, false
	}
	end := off
	for end < len(s.text) && s.IsCode(end) && isIdentPart(s.text[end]) {
		end++
	}
	return Ident{Start: start, End: end, Text: s.text[start:end]}, true
}

// NextIdent returns the first identifier at or after from, bounded by to.
func (s *Scanner) NextIdent(from, to int) (Ident, bool) {
	if to > len(s.text) {
		to = len(s.text)
	}
	i := from
	if i < 0 {
		i = 0
	}
	for i < to {
		if s.IsCode(i) && isIdentStart(s.text[i]) && (i == 0 || !(s.IsCode(i-1) && isIdentPart(s.text[i-1]))) {
			start := i
			for i < to && s.IsCode(i) && isIdentPart(s.text[i]) {
				i++
			}
			return Ident{Start: start, End: i, Text: s.text[start:i]}, true
		}
		i++
	}
	return Ident{}, false
}
