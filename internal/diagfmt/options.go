// Package diagfmt renders diagnostic bags for the CLI: a colored pretty
// format with source context, machine-readable JSON and SARIF, and a compact
// one-line-per-finding short form.
package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) mode() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	}
	return "auto"
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // context lines around the primary line
	PathMode  PathMode
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Max          int // output truncation, the bag itself is untouched
	IncludeNotes bool
	IncludeFixes bool
}

// SarifRunMeta provides tool metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
