package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/diagfmt"
	"github.com/kitecorp/kitels/internal/driver"
	"github.com/kitecorp/kitels/internal/observ"
	"github.com/kitecorp/kitels/internal/ui"
	"github.com/kitecorp/kitels/internal/version"
	"github.com/kitecorp/kitels/internal/watch"
)

var diagCmd = &cobra.Command{
	Use:          "diag [flags] [path]",
	Short:        "Run diagnostics over a Kite workspace",
	Long:         `Analyze every Kite file the workspace globs cover: unresolved names, unused bindings, import hygiene, and type mismatches.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runDiag,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	diagCmd.Flags().StringSlice("disable", nil, "rule names to disable")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("with-fixes", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("ui", false, "render live per-file progress")
	diagCmd.Flags().Bool("watch", false, "re-run analysis when workspace files change")
}

type diagSettings struct {
	format    string
	withNotes bool
	withFixes bool
	color     bool
	quiet     bool
	timings   bool
	driver    driver.Options
}

func runDiag(cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	proj, err := openProject(cmd, target)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "pretty", "json", "sarif", "short":
	default:
		return fmt.Errorf("unknown format %q (pretty|json|sarif|short)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	disabledRules, err := cmd.Flags().GetStringSlice("disable")
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	withFixes, err := cmd.Flags().GetBool("with-fixes")
	if err != nil {
		return err
	}
	useUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	colorOn, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	disabled := proj.Disabled
	if len(disabledRules) > 0 {
		if disabled == nil {
			disabled = make(map[string]bool, len(disabledRules))
		}
		for _, rule := range disabledRules {
			disabled[rule] = true
		}
	}

	settings := diagSettings{
		format:    format,
		withNotes: withNotes,
		withFixes: withFixes,
		color:     colorOn,
		quiet:     quietMode(cmd),
		timings:   showTimings,
		driver: driver.Options{
			MaxDiagnostics: proj.MaxDiagnostics,
			Jobs:           jobs,
			Disabled:       disabled,
		},
	}
	// A live progress view only makes sense on a terminal rendering the
	// human format.
	useUI = useUI && format == "pretty" && isTerminal(os.Stdout)

	if watchMode {
		return runDiagWatch(cmd.Context(), proj, settings)
	}

	summary, err := diagnoseOnce(cmd.Context(), proj, settings, useUI)
	if err != nil {
		return err
	}
	if summary.Errors > 0 {
		os.Exit(1)
	}
	return nil
}

// diagnoseOnce analyzes the whole workspace, renders the results, and
// returns the severity summary.
func diagnoseOnce(ctx context.Context, proj *projectContext, settings diagSettings, useUI bool) (driver.Summary, error) {
	timer := observ.NewTimer()

	endAnalyze := timer.Begin("analyze")
	results, err := analyzeWorkspace(ctx, proj, settings, useUI)
	if err != nil {
		return driver.Summary{}, err
	}
	endAnalyze(fmt.Sprintf("%d files", len(results)))

	endRender := timer.Begin("render")
	if err := renderResults(os.Stdout, results, settings); err != nil {
		return driver.Summary{}, err
	}
	endRender(settings.format)

	summary := driver.Summarize(results)
	if settings.format == "pretty" && !settings.quiet {
		fmt.Fprintf(os.Stdout, "%d files, %d errors, %d warnings\n",
			summary.Files, summary.Errors, summary.Warnings)
	}
	if settings.timings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return summary, nil
}

func analyzeWorkspace(ctx context.Context, proj *projectContext, settings diagSettings, useUI bool) ([]driver.FileResult, error) {
	opts := settings.driver
	if !useUI {
		return driver.AnalyzeWorkspace(ctx, proj.Host, opts)
	}

	files := proj.Host.FindFiles()
	events := make(chan ui.Event, len(files))
	opts.Progress = func(res driver.FileResult, done, total int) {
		ev := ui.Event{Path: res.Path}
		for _, d := range res.Bag.Items() {
			switch d.Severity {
			case diag.SevError:
				ev.Errors++
			case diag.SevWarning:
				ev.Warnings++
			}
		}
		events <- ev
	}

	var results []driver.FileResult
	var runErr error
	go func() {
		results, runErr = driver.AnalyzeWorkspace(ctx, proj.Host, opts)
		close(events)
	}()

	prog := tea.NewProgram(ui.NewProgressModel("analyzing", files, events))
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	return results, runErr
}

func renderResults(w io.Writer, results []driver.FileResult, settings diagSettings) error {
	entries := make([]diagfmt.Entry, 0, len(results))
	for _, res := range results {
		res.Bag.Sort()
		entries = append(entries, diagfmt.Entry{Bag: res.Bag, FileSet: res.FileSet})
	}
	switch settings.format {
	case "json":
		return diagfmt.JSONAll(w, entries, diagfmt.JSONOpts{
			IncludeNotes: settings.withNotes,
			IncludeFixes: settings.withFixes,
		})
	case "sarif":
		return diagfmt.SarifAll(w, entries, diagfmt.SarifRunMeta{
			ToolName:       "kitels",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case "short":
		diagfmt.ShortAll(w, entries)
		return nil
	default:
		diagfmt.PrettyAll(w, entries, diagfmt.PrettyOpts{
			Color:     settings.color,
			Context:   1,
			ShowNotes: settings.withNotes,
			ShowFixes: settings.withFixes,
		})
		return nil
	}
}

// runDiagWatch analyzes once, then re-runs on every debounced batch of file
// changes until interrupted.
func runDiagWatch(parent context.Context, proj *projectContext, settings diagSettings) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	if _, err := diagnoseOnce(ctx, proj, settings, false); err != nil {
		return err
	}

	watcher, err := watch.New(func(paths []string) {
		if !settings.quiet {
			fmt.Fprintf(os.Stdout, "\n-- %d file(s) changed, re-analyzing --\n\n", len(paths))
		}
		if _, err := diagnoseOnce(ctx, proj, settings, false); err != nil {
			fmt.Fprintf(os.Stderr, "kitels: %v\n", err)
		}
	}, watch.Options{
		OnError: func(err error) { fmt.Fprintf(os.Stderr, "kitels: watch: %v\n", err) },
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Watch(proj.Root); err != nil {
		return err
	}
	if !settings.quiet {
		fmt.Fprintln(os.Stdout, "watching for changes (ctrl-c to stop)")
	}
	<-ctx.Done()
	return nil
}
