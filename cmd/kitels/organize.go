package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/workspace"
)

var organizeCmd = &cobra.Command{
	Use:          "organize [flags] [path]",
	Short:        "Canonicalize import blocks across the workspace",
	Long:         "Merge duplicate imports, sort paths and symbols, and rewrite each file's import block in canonical form.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runOrganize,
}

func init() {
	organizeCmd.Flags().Bool("diff", false, "print the changes without writing files")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	showDiff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	proj, err := openProject(cmd, target)
	if err != nil {
		return err
	}

	sess := workspace.NewSession(proj.Host)
	paths := proj.Host.FindFiles()
	sort.Strings(paths)

	changed := 0
	for _, path := range paths {
		doc, ok := sess.Load(path)
		if !ok {
			continue
		}
		updated, old, replacement, ok := organizeImports(doc)
		if !ok {
			continue
		}
		changed++
		if showDiff {
			fmt.Fprintf(os.Stdout, "--- %s\n", path)
			for _, line := range strings.Split(strings.TrimRight(old, "\n"), "\n") {
				fmt.Fprintf(os.Stdout, "-%s\n", line)
			}
			for _, line := range strings.Split(strings.TrimRight(replacement, "\n"), "\n") {
				fmt.Fprintf(os.Stdout, "+%s\n", line)
			}
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, []byte(updated), mode); err != nil {
			return fmt.Errorf("organize: write %s: %w", path, err)
		}
		if !quietMode(cmd) {
			fmt.Fprintf(os.Stdout, "organized %s\n", path)
		}
	}

	if !quietMode(cmd) && !showDiff {
		if changed == 0 {
			fmt.Fprintln(os.Stdout, "all import blocks already canonical")
		} else {
			fmt.Fprintf(os.Stdout, "%d file(s) updated\n", changed)
		}
	}
	return nil
}

// organizeImports computes the document content with its import block in
// canonical form. Returns ok=false when the file has no imports or the block
// is already canonical.
func organizeImports(doc *workspace.Document) (updated, old, replacement string, ok bool) {
	if len(doc.Imports) == 0 {
		return "", "", "", false
	}
	lines := imports.Canonicalize(doc.Imports, imports.CanonicalizeOptions{
		Dir: workspace.ImportDir(doc.Path),
	})
	text := doc.Text()
	start := doc.Imports[0].Span.Start
	end := doc.Imports[len(doc.Imports)-1].Span.End
	if int(end) < len(text) && text[end] == '\n' {
		end++
	}
	old = text[start:end]
	replacement = strings.Join(lines, "\n") + "\n"
	if replacement == old {
		return "", "", "", false
	}
	return text[:start] + replacement + text[end:], old, replacement, true
}
