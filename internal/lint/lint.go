// Package lint layers the static diagnostics suite on top of the document
// index and the workspace resolver. Every rule is best-effort: analysis of
// one file never aborts the run for the others.
package lint

import (
	"fmt"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/workspace"
)

// Options tunes a lint run.
type Options struct {
	// MaxDiagnostics caps the bag; 0 means the bag default.
	MaxDiagnostics int
	// CrossFile enables the rules that read other workspace files
	// (unused-fun, missing-import). Off for single-file runs.
	CrossFile bool
	// Disabled drops findings whose rule name is in the set. The entry
	// "all" silences every rule.
	Disabled map[string]bool
}

// Analyze runs every rule over one file and returns the collected bag,
// sorted. A panic inside a rule is recovered and reported as an internal
// finding so a malformed file cannot take down a workspace run.
func Analyze(sess *workspace.Session, path string, opts Options) *diag.Bag {
	bag := diag.NewBag(opts.MaxDiagnostics)
	doc, ok := sess.Load(path)
	if !ok {
		return bag
	}
	var rep diag.Reporter = diag.BagReporter{Bag: bag}
	switch {
	case opts.Disabled["all"]:
		rep = diag.NopReporter{}
	case len(opts.Disabled) > 0:
		rep = ruleFilter{next: rep, disabled: opts.Disabled}
	}
	c := &checker{
		sess: sess,
		doc:  doc,
		rep:  rep,
		opts: opts,
	}
	c.run()
	bag.Sort()
	return bag
}

// ruleFilter drops findings for rules disabled in the manifest.
type ruleFilter struct {
	next     diag.Reporter
	disabled map[string]bool
}

func (f ruleFilter) Report(d diag.Diagnostic) {
	if f.disabled[d.Code.String()] {
		return
	}
	f.next.Report(d)
}

type checker struct {
	sess *workspace.Session
	doc  *workspace.Document
	rep  diag.Reporter
	opts Options
}

func (c *checker) run() {
	defer func() {
		if r := recover(); r != nil {
			c.rep.Report(diag.New(diag.SevWarning, diag.LintInfo,
				c.doc.Index.Scopes.Get(c.doc.Index.Root).Span,
				fmt.Sprintf("internal: analysis of %s aborted: %v", c.doc.Path, r)))
		}
	}()
	c.checkUnusedLocals()
	c.checkUnusedFunctions()
	c.checkUnusedImports()
	c.checkShadowing()
	c.checkDuplicates()
	c.checkUnresolved()
	c.checkTypeMismatch()
	c.checkMissingReturn()
}
