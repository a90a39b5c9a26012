package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

// Pretty renders each diagnostic as
//
//	<path>:<line>:<col>: <severity> <code>: <message>
//
// followed by the source line with a ^~~~ underline over the span, optional
// context lines, and notes in the same shape. Callers sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	if opts.Color {
		p.sevColor = map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		}
		p.locColor = color.New(color.Bold)
		p.noteColor = color.New(color.FgBlue, color.Bold)
	}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.printDiagnostic(&d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts

	sevColor  map[diag.Severity]*color.Color
	locColor  *color.Color
	noteColor *color.Color
}

func (p *prettyPrinter) printDiagnostic(d *diag.Diagnostic) {
	p.printHeader(d.Severity, d.Primary, fmt.Sprintf("%s: %s", d.Code, d.Message))
	p.printContext(d.Primary, d.Severity)
	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			p.printNote(note)
		}
	}
	if p.opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(p.w, "  fix [%s]: %s\n", fix.ID, fix.Title)
		}
	}
}

func (p *prettyPrinter) printHeader(sev diag.Severity, span source.Span, msg string) {
	loc := p.location(span)
	if p.locColor != nil {
		loc = p.locColor.Sprint(loc)
	}
	label := sev.String()
	if c := p.sevColor[sev]; c != nil {
		label = c.Sprint(label)
	}
	fmt.Fprintf(p.w, "%s: %s %s\n", loc, label, msg)
}

func (p *prettyPrinter) printNote(note diag.Note) {
	loc := p.location(note.Span)
	label := "note"
	if p.noteColor != nil {
		label = p.noteColor.Sprint(label)
	}
	fmt.Fprintf(p.w, "  %s: %s: %s\n", loc, label, note.Msg)
	p.printContext(note.Span, diag.SevInfo)
}

// printContext prints the primary line with an underline, framed by up to
// Context surrounding lines.
func (p *prettyPrinter) printContext(span source.Span, sev diag.Severity) {
	file := p.fs.Get(span.File)
	if file == nil {
		return
	}
	start, end := p.fs.Resolve(span)
	first, last := start.Line, start.Line
	if n := uint32(p.opts.Context); n > 0 {
		if first > n {
			first -= n
		} else {
			first = 1
		}
		last += n
		if lc := file.LineCount(); last > lc {
			last = lc
		}
	}
	gutter := len(fmt.Sprintf("%d", last))
	for ln := first; ln <= last; ln++ {
		text := file.GetLine(ln)
		fmt.Fprintf(p.w, "  %*d | %s\n", gutter, ln, text)
		if ln == start.Line {
			p.printUnderline(gutter, text, start, end, sev)
		}
	}
}

// printUnderline draws ^~~~ under the span's portion of the line, widening
// per display cell so wide runes stay covered.
func (p *prettyPrinter) printUnderline(gutter int, line string, start, end source.LineCol, sev diag.Severity) {
	runes := []rune(line)
	startCol := int(start.Col) - 1
	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		length = int(end.Col - start.Col)
	}
	if startCol > len(runes) {
		startCol = len(runes)
	}
	pad := 0
	for _, r := range runes[:startCol] {
		if r == '\t' {
			pad += 8
			continue
		}
		pad += runewidth.RuneWidth(r)
	}
	width := 0
	for i := startCol; i < len(runes) && i < startCol+length; i++ {
		width += runewidth.RuneWidth(runes[i])
	}
	if width < 1 {
		width = 1
	}
	marker := "^" + strings.Repeat("~", width-1)
	if c := p.sevColor[sev]; c != nil {
		marker = c.Sprint(marker)
	}
	fmt.Fprintf(p.w, "  %*s | %s%s\n", gutter, "", strings.Repeat(" ", pad), marker)
}

func (p *prettyPrinter) location(span source.Span) string {
	file := p.fs.Get(span.File)
	if file == nil {
		return "<unknown>"
	}
	pos := p.fs.Position(span.File, span.Start)
	return fmt.Sprintf("%s:%d:%d", file.FormatPath(p.opts.PathMode.mode(), p.fs.BaseDir()), pos.Line, pos.Col)
}
