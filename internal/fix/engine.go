// Package fix applies the automated corrections carried by diagnostics:
// selection by mode, OldText guards, conflict detection between fixes, and
// atomic per-file rewrites.
package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first safe fix only.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix.
	ApplyModeAll
	// ApplyModeID applies the fix with the given stable ID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected and written.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun stages every edit but writes nothing; the resulting buffers
	// are returned in ApplyResult.Preview.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
	// Preview maps path to the post-edit content, populated on DryRun.
	Preview map[string][]byte
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts,
// and applies them. Fixes whose guards no longer match or whose edits overlap
// an already-applied fix are skipped, never partially applied.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     []AppliedFix{},
		Skipped:     []SkippedFix{},
		FileChanges: []FileChange{},
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	rankCandidates(candidates)

	selected, skips := pickCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	ap := &applier{fs: fs, buffers: map[source.FileID][]byte{}, done: map[source.FileID][]diag.TextEdit{}, editCounts: map[source.FileID]int{}}
	for _, cand := range selected {
		if reason := ap.stage(cand); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason})
			continue
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   ap.displayPath(cand.diag.Primary.File),
			EditCount:     len(cand.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	changes, preview, err := ap.flush(opts.DryRun)
	result.FileChanges = append(result.FileChanges, changes...)
	result.Preview = preview
	return result, err
}

// gatherCandidates flattens the diagnostics' fixes into candidates, skipping
// editless fixes and duplicate IDs. An empty ID gets a synthesized one so
// selection and reporting stay addressable.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var cands []candidate
	var skips []SkippedFix
	seen := map[string]bool{}

	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			key := fmt.Sprintf("%s@%d:%d", f.ID, d.Primary.File, d.Primary.Start)
			if seen[key] {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[key] = true
			cands = append(cands, candidate{diag: d, fix: f, order: len(cands)})
		}
	}
	return cands, skips
}

// rankCandidates orders candidates deterministically so repeated runs pick
// the same fixes: position first, then collection order, then fix identity.
func rankCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.diag.Primary.File != b.diag.Primary.File {
			return a.diag.Primary.File < b.diag.Primary.File
		}
		if a.diag.Primary.Start != b.diag.Primary.Start {
			return a.diag.Primary.Start < b.diag.Primary.Start
		}
		if a.diag.Primary.End != b.diag.Primary.End {
			return a.diag.Primary.End < b.diag.Primary.End
		}
		if a.order != b.order {
			return a.order < b.order
		}
		if a.diag.Code != b.diag.Code {
			return a.diag.Code < b.diag.Code
		}
		if a.fix.IsPreferred != b.fix.IsPreferred {
			return a.fix.IsPreferred
		}
		if a.fix.ID != b.fix.ID {
			return a.fix.ID < b.fix.ID
		}
		return a.fix.Title < b.fix.Title
	})
}

func pickCandidates(cands []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range cands {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}

	case ApplyModeAll:
		var selected []candidate
		var skipped []SkippedFix
		for _, cand := range cands {
			if cand.fix.Applicability != diag.FixApplicabilityAlwaysSafe {
				skipped = append(skipped, SkippedFix{
					ID:     cand.fix.ID,
					Title:  cand.fix.Title,
					Reason: fmt.Sprintf("applicability is %s", cand.fix.Applicability),
				})
				continue
			}
			selected = append(selected, cand)
		}
		return selected, skipped

	case ApplyModeOnce:
		for _, cand := range cands {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{cand}, nil
			}
		}
		// No always-safe fix; a single targeted apply may still take the
		// best-ranked one.
		return cands[:1], nil
	}
	return nil, nil
}

// applier accumulates staged buffers across candidates. A candidate either
// lands entirely or not at all; partial application would desynchronize the
// edit log used for offset shifting.
type applier struct {
	fs         *source.FileSet
	buffers    map[source.FileID][]byte
	done       map[source.FileID][]diag.TextEdit
	editCounts map[source.FileID]int
}

// stage applies one candidate's edits on top of the buffers staged so far.
// A non-empty return is the skip reason and leaves the applier untouched.
func (ap *applier) stage(cand candidate) string {
	perFile := map[source.FileID][]diag.TextEdit{}
	for _, edit := range cand.fix.Edits {
		perFile[edit.Span.File] = append(perFile[edit.Span.File], edit)
	}

	type staged struct {
		buf  []byte
		log  []diag.TextEdit
		nout int
	}
	pending := map[source.FileID]staged{}

	for fileID, edits := range perFile {
		file := ap.fs.Get(fileID)
		if file == nil {
			return "edit targets an unknown file"
		}
		if ap.overlapsApplied(fileID, edits) {
			return fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", ap.fs.BaseDir()))
		}

		buf := ap.buffers[fileID]
		if buf == nil {
			buf = file.Content
		}
		buf = append([]byte(nil), buf...)

		// Back to front keeps earlier offsets valid while splicing.
		sort.SliceStable(edits, func(i, j int) bool {
			if edits[i].Span.Start == edits[j].Span.Start {
				return edits[i].Span.End > edits[j].Span.End
			}
			return edits[i].Span.Start > edits[j].Span.Start
		})

		log := append([]diag.TextEdit(nil), ap.done[fileID]...)
		for _, edit := range edits {
			start := int(edit.Span.Start) + shiftAt(log, int(edit.Span.Start))
			end := int(edit.Span.End) + shiftAt(log, int(edit.Span.End))
			if start < 0 || end < start || end > len(buf) {
				return "edit span out of range"
			}
			if edit.OldText != "" && string(buf[start:end]) != edit.OldText {
				return "existing text does not match expected content"
			}
			tail := append([]byte(nil), buf[end:]...)
			buf = append(append(buf[:start], edit.NewText...), tail...)
			log = logEdit(log, edit)
		}
		pending[fileID] = staged{buf: buf, log: log, nout: len(edits)}
	}

	for fileID, st := range pending {
		ap.buffers[fileID] = st.buf
		ap.done[fileID] = st.log
		ap.editCounts[fileID] += st.nout
	}
	return ""
}

// flush writes the staged buffers to disk, or returns them as a preview map
// when dryRun is set. Virtual files never reach disk.
func (ap *applier) flush(dryRun bool) ([]FileChange, map[string][]byte, error) {
	var preview map[string][]byte
	if dryRun {
		preview = make(map[string][]byte, len(ap.buffers))
	}
	changes := make([]FileChange, 0, len(ap.buffers))

	for fileID, buf := range ap.buffers {
		file := ap.fs.Get(fileID)
		switch {
		case dryRun:
			preview[file.Path] = buf
		case file.Flags&source.FileVirtual != 0:
			return changes, preview, fmt.Errorf("fix: %s is an editor buffer, not a disk file", file.Path)
		default:
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, buf, mode); err != nil {
				return changes, preview, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, FileChange{
			Path:      file.FormatPath("relative", ap.fs.BaseDir()),
			EditCount: ap.editCounts[fileID],
		})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, preview, nil
}

func (ap *applier) overlapsApplied(fileID source.FileID, edits []diag.TextEdit) bool {
	for _, prev := range ap.done[fileID] {
		for _, next := range edits {
			if editsOverlap(prev, next) {
				return true
			}
		}
	}
	return false
}

func (ap *applier) displayPath(fileID source.FileID) string {
	file := ap.fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", ap.fs.BaseDir())
}

// editsOverlap treats spans as half-open intervals. Two insertions never
// conflict; an insertion conflicts with a span containing its position.
func editsOverlap(a, b diag.TextEdit) bool {
	switch {
	case a.Span.Start == a.Span.End && b.Span.Start == b.Span.End:
		return false
	case a.Span.Start == a.Span.End:
		return b.Span.Start <= a.Span.Start && a.Span.Start < b.Span.End
	case b.Span.Start == b.Span.End:
		return a.Span.Start <= b.Span.Start && b.Span.Start < a.Span.End
	}
	return a.Span.Start < b.Span.End && b.Span.Start < a.Span.End
}

// shiftAt sums the length changes of logged edits fully before pos, giving
// the offset shift a later edit must account for. The log is kept sorted by
// start offset.
func shiftAt(log []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range log {
		if int(e.Span.Start) > pos {
			break
		}
		if end := int(e.Span.End); end <= pos {
			delta += len(e.NewText) - (end - int(e.Span.Start))
		}
	}
	return delta
}

func logEdit(log []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	at := sort.Search(len(log), func(i int) bool {
		if log[i].Span.Start == edit.Span.Start {
			return log[i].Span.End >= edit.Span.End
		}
		return log[i].Span.Start > edit.Span.Start
	})
	log = append(log, diag.TextEdit{})
	copy(log[at+1:], log[at:])
	log[at] = edit
	return log
}
