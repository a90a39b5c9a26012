package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside a single file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}

// Covers reports whether other lies entirely within s. Spans from different
// files never cover each other.
func (s Span) Covers(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// Cover widens s to include other. Files must match; otherwise s is returned
// unchanged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
