package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/driver"
	"github.com/kitecorp/kitels/internal/fix"
	"github.com/kitecorp/kitels/internal/workspace"
)

var fixCmd = &cobra.Command{
	Use:          "fix [flags] [path]",
	Short:        "Apply available fixes to workspace files",
	Long:         "Run diagnostics, surface available fixes, and apply them according to the chosen strategy.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply the fix with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "stage every edit but write nothing")
}

func runFix(cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnce, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnce) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnce {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	proj, err := openProject(cmd, target)
	if err != nil {
		return err
	}

	// One shared session so every diagnostic span resolves against a single
	// file set, which is what the fix engine edits.
	sess := workspace.NewSession(proj.Host)
	var diagnostics []diag.Diagnostic
	paths := proj.Host.FindFiles()
	sort.Strings(paths)
	for _, path := range paths {
		bag := driver.AnalyzeFile(sess, path, driver.Options{
			MaxDiagnostics: proj.MaxDiagnostics,
			Disabled:       proj.Disabled,
		})
		bag.Sort()
		diagnostics = append(diagnostics, bag.Items()...)
	}

	res, applyErr := fix.Apply(sess.FileSet(), diagnostics, fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	})
	return reportApplyResult(res, applyErr, dryRun)
}

func reportApplyResult(res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}

	if len(res.Applied) > 0 {
		verb := "Applied"
		if dryRun {
			verb = "Would apply"
		}
		fmt.Fprintf(os.Stdout, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(os.Stdout, "  %s [%s] %s (%d edits)\n",
				item.Title, item.ID, location, item.EditCount)
		}
	}
	if len(res.FileChanges) > 0 {
		header := "Updated files:"
		if dryRun {
			header = "Files that would change:"
		}
		fmt.Fprintln(os.Stdout, header)
		for _, change := range res.FileChanges {
			fmt.Fprintf(os.Stdout, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(os.Stdout, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			fmt.Fprintf(os.Stdout, "  [%s]: %s\n", id, skip.Reason)
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(os.Stdout, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}
	return nil
}
