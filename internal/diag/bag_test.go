package diag

import (
	"testing"

	"github.com/kitecorp/kitels/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewError(ResUnresolved, span(1, 0, 3), "one")) {
		t.Fatalf("first add rejected")
	}
	if !bag.Add(NewError(ResUnresolved, span(1, 4, 7), "two")) {
		t.Fatalf("second add rejected")
	}
	if bag.Add(NewError(ResUnresolved, span(1, 8, 11), "three")) {
		t.Fatalf("expected bag to reject past its limit")
	}
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
}

func TestBagUnbounded(t *testing.T) {
	bag := NewBag(0)
	for i := 0; i < 100; i++ {
		if !bag.Add(NewError(ResUnresolved, span(1, uint32(i), uint32(i+1)), "x")) {
			t.Fatalf("unbounded bag rejected add %d", i)
		}
	}
	if bag.Len() != 100 {
		t.Fatalf("len = %d, want 100", bag.Len())
	}
}

func TestBagSortOrder(t *testing.T) {
	bag := NewBag(8)
	bag.Add(NewWarning(ResShadow, span(2, 10, 12), "later file"))
	bag.Add(NewWarning(LintUnusedVar, span(1, 20, 22), "later offset"))
	bag.Add(NewError(ResUnresolved, span(1, 5, 8), "first"))
	bag.Sort()

	items := bag.Items()
	if items[0].Code != ResUnresolved {
		t.Fatalf("items[0].Code = %s, want unresolved", items[0].Code)
	}
	if items[1].Code != LintUnusedVar {
		t.Fatalf("items[1].Code = %s, want unused-var", items[1].Code)
	}
	if items[2].Primary.File != 2 {
		t.Fatalf("items[2] should come from file 2")
	}
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(8)
	d := NewError(ResUnresolved, span(1, 5, 8), "x is not defined")
	bag.Add(d)
	bag.Add(d)
	bag.Dedup()
	if bag.Len() != 1 {
		t.Fatalf("len after dedup = %d, want 1", bag.Len())
	}
}

func TestDiagnosticBuilders(t *testing.T) {
	d := NewWarning(ImpMissing, span(1, 0, 6), "Config is defined but not imported").
		WithNote(span(2, 0, 6), "declared here").
		WithData("symbol", "Config").
		WithData("path", "common.kite").
		AsUnnecessary()

	if len(d.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(d.Notes))
	}
	if d.Data["symbol"] != "Config" || d.Data["path"] != "common.kite" {
		t.Fatalf("data payload lost: %v", d.Data)
	}
	if !d.Unnecessary {
		t.Fatalf("expected unnecessary tag")
	}
}
