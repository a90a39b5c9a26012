package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/fix"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

var renameCmd = &cobra.Command{
	Use:          "rename <file:line:col> <new-name>",
	Short:        "Rename a symbol across the workspace",
	Long:         "Resolve the identifier at the given position and rewrite every occurrence, in the defining file and in every importer. Previews by default; --write applies the edits.",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runRename,
}

func init() {
	renameCmd.Flags().Bool("write", false, "write the edits to disk")
}

func runRename(cmd *cobra.Command, args []string) error {
	path, line, col, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	newName := args[1]
	if !validIdentifier(newName) {
		return fmt.Errorf("rename: %q is not a valid identifier", newName)
	}
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return err
	}

	proj, err := openProject(cmd, path)
	if err != nil {
		return err
	}
	sess := workspace.NewSession(proj.Host)
	doc, ok := loadTarget(sess, path)
	if !ok {
		return fmt.Errorf("rename: %s is not part of the workspace", path)
	}

	off, err := offsetAt(doc, line, col)
	if err != nil {
		return err
	}
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return fmt.Errorf("rename: no symbol at %s:%d:%d", path, line, col)
	}
	decl := defDoc.Index.Decls.Get(id)
	if decl.Name == newName {
		return fmt.Errorf("rename: symbol is already named %q", newName)
	}

	occurrences := sess.CrossFileOccurrences(defDoc, id)
	spans := make([]source.Span, 0, len(occurrences))
	for _, occ := range occurrences {
		spans = append(spans, occ.Span)
	}

	d := diag.New(diag.SevInfo, diag.ResInfo, decl.Span,
		fmt.Sprintf("rename '%s' to '%s'", decl.Name, newName)).
		WithFix(fix.RenameFix(spans, decl.Name, newName))
	res, applyErr := fix.Apply(sess.FileSet(), []diag.Diagnostic{d}, fix.ApplyOptions{
		Mode:   fix.ApplyModeAll,
		DryRun: !write,
	})
	return reportApplyResult(res, applyErr, !write)
}

// loadTarget maps the user-supplied path onto the host's slash-normalized
// absolute paths.
func loadTarget(sess *workspace.Session, path string) (*workspace.Document, bool) {
	abs, err := source.AbsolutePath(path)
	if err != nil {
		return nil, false
	}
	return sess.Load(abs)
}

// parseTarget splits file:line:col with 1-based line and column.
func parseTarget(arg string) (path string, line, col int, err error) {
	rest := arg
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", 0, 0, fmt.Errorf("rename: target must be file:line:col")
	}
	col, err = strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("rename: bad column in %q", arg)
	}
	rest = rest[:i]
	i = strings.LastIndex(rest, ":")
	if i < 0 {
		return "", 0, 0, fmt.Errorf("rename: target must be file:line:col")
	}
	line, err = strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("rename: bad line in %q", arg)
	}
	path = rest[:i]
	if path == "" || line < 1 || col < 1 {
		return "", 0, 0, fmt.Errorf("rename: target must be file:line:col")
	}
	return path, line, col, nil
}

// offsetAt converts a 1-based line and column to a byte offset.
func offsetAt(doc *workspace.Document, line, col int) (uint32, error) {
	file := doc.File
	if uint32(line) > file.LineCount() {
		return 0, fmt.Errorf("rename: line %d past end of %s", line, doc.Path)
	}
	lineStart := 0
	if line > 1 {
		lineStart = int(file.LineIdx[line-2]) + 1
	}
	off := lineStart + col - 1
	if off > len(file.Content) {
		return 0, fmt.Errorf("rename: column %d past end of line %d", col, line)
	}
	return uint32(off), nil
}

func validIdentifier(name string) bool {
	if name == "" || symbols.IsKeyword(name) || symbols.IsBuiltinType(name) {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
