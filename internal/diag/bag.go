package diag

import (
	"fmt"
	"sort"
)

// Bag accumulates diagnostics up to a fixed limit. A limit of zero means
// unbounded.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, max), max: uint16(max)}
}

// Add appends a diagnostic, honoring the limit. Returns false when the bag is
// full and the diagnostic was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 { return b.max }
func (b *Bag) Len() int    { return len(b.items) }

// HasErrors reports whether any diagnostic is at least SevError.
func (b *Bag) HasErrors() bool { return b.atLeast(SevError) }

// HasWarnings reports whether any diagnostic is at least SevWarning.
func (b *Bag) HasWarnings() bool { return b.atLeast(SevWarning) }

func (b *Bag) atLeast(sev Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

// Items returns a read-only view of the diagnostics. The slice aliases the
// bag's internal storage; do not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends diagnostics from another bag. A bounded bag grows its limit
// to fit; an unbounded one stays unbounded.
func (b *Bag) Merge(other *Bag) {
	if total := len(b.items) + len(other.items); b.max > 0 && total > int(b.max) {
		b.max = uint16(total)
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, start, end, severity (desc), code for a
// stable, deterministic output order.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		return compareDiagnostics(&b.items[i], &b.items[j])
	})
}

func compareDiagnostics(a, b *Diagnostic) bool {
	if a.Primary.File != b.Primary.File {
		return a.Primary.File < b.Primary.File
	}
	if a.Primary.Start != b.Primary.Start {
		return a.Primary.Start < b.Primary.Start
	}
	if a.Primary.End != b.Primary.End {
		return a.Primary.End < b.Primary.End
	}
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	return a.Code < b.Code
}

// Dedup drops diagnostics sharing the same code and primary span.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	kept := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s", d.Code.ID(), d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}
	b.items = kept
}
