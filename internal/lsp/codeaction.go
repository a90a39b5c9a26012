package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/lint"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []codeAction{})
	}
	actions := buildCodeActions(s.sess, doc, params.Range, lint.Options{
		MaxDiagnostics: s.maxDiagnostics,
		CrossFile:      true,
		Disabled:       s.disabled,
	})
	return s.sendResponse(msg.ID, actions)
}

// buildCodeActions materializes quick fixes from the diagnostics overlapping
// the requested range, then appends the source-level import actions.
func buildCodeActions(sess *workspace.Session, doc *workspace.Document, rng lspRange, opts lint.Options) []codeAction {
	startOff := offsetForPositionInFile(doc.File, rng.Start)
	endOff := offsetForPositionInFile(doc.File, rng.End)

	actions := []codeAction{}
	bag := lint.Analyze(sess, doc.Path, opts)
	for _, d := range bag.Items() {
		if d.Primary.Start > endOff || startOff > d.Primary.End {
			continue
		}
		for _, fix := range d.Fixes {
			actions = append(actions, fixAction(sess, doc, &d, fix))
		}
	}

	if act, ok := organizeImportsAction(doc); ok {
		actions = append(actions, act)
	}
	actions = append(actions, wildcardActions(sess, doc, startOff, endOff)...)
	return actions
}

func fixAction(sess *workspace.Session, doc *workspace.Document, d *diag.Diagnostic, fix diag.Fix) codeAction {
	uri := pathToURI(doc.Path)
	edits := make([]textEdit, 0, len(fix.Edits))
	for _, e := range fix.Edits {
		edits = append(edits, textEdit{
			Range:   rangeForSpan(doc.File, e.Span),
			NewText: e.NewText,
		})
	}
	return codeAction{
		Title:       fix.Title,
		Kind:        fix.Kind.String(),
		Diagnostics: []lspDiagnostic{toLSPDiagnostic(sess, doc, d)},
		IsPreferred: fix.IsPreferred,
		Edit:        &workspaceEdit{Changes: map[string][]textEdit{uri: edits}},
	}
}

// organizeImportsAction replaces the document's import block with its
// canonical form. Absent when the block is already canonical.
func organizeImportsAction(doc *workspace.Document) (codeAction, bool) {
	if len(doc.Imports) == 0 {
		return codeAction{}, false
	}
	lines := imports.Canonicalize(doc.Imports, imports.CanonicalizeOptions{
		Dir: workspace.ImportDir(doc.Path),
	})
	text := doc.Text()
	first := doc.Imports[0].Span
	last := doc.Imports[len(doc.Imports)-1].Span
	end := last.End
	if int(end) < len(text) && text[end] == '\n' {
		end++
	}
	block := source.Span{File: doc.File.ID, Start: first.Start, End: end}

	replacement := strings.Join(lines, "\n") + "\n"
	if replacement == text[block.Start:block.End] {
		return codeAction{}, false
	}
	uri := pathToURI(doc.Path)
	return codeAction{
		Title: "Organize imports",
		Kind:  "source.organizeImports",
		Edit: &workspaceEdit{Changes: map[string][]textEdit{uri: {{
			Range:   rangeForSpan(doc.File, block),
			NewText: replacement,
		}}}},
	}, true
}

// wildcardActions offers replacing a wildcard import in range with the
// explicit list of exporter symbols the document actually references. A
// wildcard nothing is used from gets no action; that is the unused-import
// diagnostic's territory.
func wildcardActions(sess *workspace.Session, doc *workspace.Document, startOff, endOff uint32) []codeAction {
	actions := []codeAction{}
	dir := workspace.ImportDir(doc.Path)
	for _, imp := range doc.Imports {
		if !imp.Wildcard {
			continue
		}
		if imp.Span.Start > endOff || startOff > imp.Span.End {
			continue
		}
		resolved := imports.ResolvePath(imp.Path, dir)
		exporter, ok := findWorkspaceFile(sess, resolved)
		if !ok {
			continue
		}
		var names []string
		for _, name := range exporter.Index.ExportedNames() {
			if len(doc.ImportedUses(name)) > 0 {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		imports.SortSymbols(names)
		explicit := imp
		explicit.Wildcard = false
		explicit.Symbols = names
		uri := pathToURI(doc.Path)
		actions = append(actions, codeAction{
			Title: fmt.Sprintf("Replace '*' with %d explicit symbols", len(names)),
			Kind:  "refactor.rewrite",
			Edit: &workspaceEdit{Changes: map[string][]textEdit{uri: {{
				Range:   rangeForSpan(doc.File, imp.Span),
				NewText: explicit.Format(),
			}}}},
		})
	}
	return actions
}

func findWorkspaceFile(sess *workspace.Session, resolved string) (*workspace.Document, bool) {
	for _, path := range sess.Host().FindFiles() {
		if imports.SameFile(resolved, path) {
			return sess.Load(path)
		}
	}
	return nil, false
}
