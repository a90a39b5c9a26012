// Package observ times the phases of an analysis run for --timings output.
package observ

import (
	"fmt"
	"strings"
	"time"
)

type phase struct {
	name string
	dur  time.Duration
	note string
	done bool
}

// Timer accumulates named phases in the order they begin. Not safe for
// concurrent use; the CLI drives phases from a single goroutine.
type Timer struct {
	phases []phase
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns the function that closes it. The note is
// attached when the phase closes, so callers can record counts computed
// during the phase. Closing twice keeps the first measurement.
func (t *Timer) Begin(name string) func(note string) {
	start := time.Now()
	t.phases = append(t.phases, phase{name: name})
	idx := len(t.phases) - 1
	return func(note string) {
		p := &t.phases[idx]
		if p.done {
			return
		}
		p.dur = time.Since(start)
		p.note = note
		p.done = true
	}
}

// Summary renders closed phases plus a total line.
func (t *Timer) Summary() string {
	var b strings.Builder
	b.WriteString("timings:\n")
	var total time.Duration
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.dur
		fmt.Fprintf(&b, "  %-20s %7.2f ms", p.name, millis(p.dur))
		if p.note != "" {
			b.WriteString("  // " + p.note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-20s %7.2f ms\n", "total", millis(total))
	return b.String()
}

// PhaseReport is one closed phase in serializable form.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists closed phases with durations in milliseconds.
func (t *Timer) Report() Report {
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.dur
		r.Phases = append(r.Phases, PhaseReport{
			Name:       p.name,
			DurationMS: millis(p.dur),
			Note:       p.note,
		})
	}
	r.TotalMS = millis(total)
	return r
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
