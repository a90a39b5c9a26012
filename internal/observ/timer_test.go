package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	timer := NewTimer()
	end := timer.Begin("analyze")
	time.Sleep(time.Millisecond)
	end("12 files")

	report := timer.Report()
	if len(report.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(report.Phases))
	}
	if report.Phases[0].Name != "analyze" || report.Phases[0].Note != "12 files" {
		t.Errorf("phase = %+v", report.Phases[0])
	}
	if report.Phases[0].DurationMS <= 0 {
		t.Error("phase has no duration")
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Error("total below phase duration")
	}

	summary := timer.Summary()
	if !strings.Contains(summary, "analyze") || !strings.Contains(summary, "total") {
		t.Errorf("summary = %q", summary)
	}
}

func TestTimerDoubleClose(t *testing.T) {
	timer := NewTimer()
	end := timer.Begin("render")
	end("first")
	end("second")

	report := timer.Report()
	if len(report.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(report.Phases))
	}
	if report.Phases[0].Note != "first" {
		t.Errorf("note = %q, want first close kept", report.Phases[0].Note)
	}
}

func TestTimerOpenPhaseExcluded(t *testing.T) {
	timer := NewTimer()
	timer.Begin("never closed")
	if got := timer.Report(); len(got.Phases) != 0 {
		t.Errorf("report = %+v", got)
	}
	if !strings.Contains(timer.Summary(), "total") {
		t.Error("summary missing total line")
	}
}
