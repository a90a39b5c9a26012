// Package driver orchestrates batch analysis for the CLI: workspace file
// enumeration, parallel per-file lint runs, and index export.
package driver

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/lint"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/workspace"
)

// Options configures an analysis run.
type Options struct {
	// MaxDiagnostics caps each file's bag; 0 means unlimited.
	MaxDiagnostics int
	// Jobs is the number of files analyzed concurrently; 0 uses GOMAXPROCS.
	Jobs int
	// Disabled drops findings for the named rules.
	Disabled map[string]bool
	// Progress, when set, is called after each file completes.
	Progress func(res FileResult, done, total int)
}

// FileResult is one file's analysis outcome. Spans in the bag resolve
// against the result's own file set, not a shared one.
type FileResult struct {
	Path    string
	Bag     *diag.Bag
	FileSet *source.FileSet
}

// AnalyzeFile runs the diagnostics suite on a single file through an
// existing session.
func AnalyzeFile(sess *workspace.Session, path string, opts Options) *diag.Bag {
	return lint.Analyze(sess, path, lint.Options{
		MaxDiagnostics: opts.MaxDiagnostics,
		CrossFile:      true,
		Disabled:       opts.Disabled,
	})
}

// AnalyzeWorkspace analyzes every file the host enumerates. Files are
// snapshotted up front so workers see one consistent view, then analyzed in
// parallel; each worker owns a private session because sessions are
// single-threaded. Results come back sorted by path.
func AnalyzeWorkspace(ctx context.Context, host workspace.Host, opts Options) ([]FileResult, error) {
	snapshot, paths := snapshotHost(host)
	if len(paths) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(paths) {
		jobs = len(paths)
	}

	results := make([]FileResult, len(paths))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			sess := workspace.NewSession(snapshot)
			results[i] = FileResult{
				Path:    path,
				Bag:     AnalyzeFile(sess, path, opts),
				FileSet: sess.FileSet(),
			}
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(results[i], done, len(paths))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates severity counts over all results.
type Summary struct {
	Files    int
	Total    int
	Errors   int
	Warnings int
}

// Summarize counts diagnostics across the results.
func Summarize(results []FileResult) Summary {
	sum := Summary{Files: len(results)}
	for _, res := range results {
		for _, d := range res.Bag.Items() {
			sum.Total++
			switch d.Severity {
			case diag.SevError:
				sum.Errors++
			case diag.SevWarning:
				sum.Warnings++
			}
		}
	}
	return sum
}

// snapshotHost reads every enumerated file once into an in-memory host.
func snapshotHost(host workspace.Host) (workspace.MapHost, []string) {
	snapshot := make(workspace.MapHost)
	var paths []string
	for _, path := range host.FindFiles() {
		content, ok := host.FileContent(path)
		if !ok {
			continue
		}
		snapshot[path] = string(content)
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return snapshot, paths
}
