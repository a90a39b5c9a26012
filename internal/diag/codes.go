package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the catch-all for diagnostics without a stable code.
	UnknownCode Code = 0

	// Scanner-level findings.
	ScanInfo                    Code = 1000
	ScanUnterminatedString      Code = 1001
	ScanUnterminatedBlockComment Code = 1002
	ScanUnbalancedBrace         Code = 1003
	ScanUnbalancedBracket       Code = 1004

	// Import statement findings.
	ImpInfo           Code = 2000
	ImpMalformed      Code = 2001
	ImpUnusedSymbol   Code = 2002
	ImpUnusedWildcard Code = 2003
	ImpDuplicatePath  Code = 2004
	ImpMissing        Code = 2005

	// Resolution findings.
	ResInfo           Code = 3000
	ResUnresolved     Code = 3001
	ResShadow         Code = 3002
	ResDuplicateDecl  Code = 3003
	ResDuplicateParam Code = 3004

	// Lint findings layered on the index.
	LintInfo          Code = 4000
	LintUnusedVar     Code = 4001
	LintUnusedFun     Code = 4002
	LintTypeMismatch  Code = 4003
	LintMissingReturn Code = 4004
)

// codeName maps every code to its stable rule name. Rule names are part of
// the CLI surface (`kitels fix --id`) and the LSP Diagnostic.code field, so
// renames are breaking changes.
var codeName = map[Code]string{
	UnknownCode: "unknown",

	ScanInfo:                     "scan-info",
	ScanUnterminatedString:       "unterminated-string",
	ScanUnterminatedBlockComment: "unterminated-comment",
	ScanUnbalancedBrace:          "unbalanced-brace",
	ScanUnbalancedBracket:        "unbalanced-bracket",

	ImpInfo:           "import-info",
	ImpMalformed:      "malformed-import",
	ImpUnusedSymbol:   "unused-import",
	ImpUnusedWildcard: "unused-import",
	ImpDuplicatePath:  "duplicate-import",
	ImpMissing:        "missing-import",

	ResInfo:           "resolve-info",
	ResUnresolved:     "unresolved",
	ResShadow:         "shadow",
	ResDuplicateDecl:  "duplicate-decl",
	ResDuplicateParam: "duplicate-param",

	LintInfo:          "lint-info",
	LintUnusedVar:     "unused-var",
	LintUnusedFun:     "unused-fun",
	LintTypeMismatch:  "type-mismatch",
	LintMissingReturn: "missing-return",
}

// String returns the stable rule name for the code.
func (c Code) String() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return "unknown"
}

// ID returns the compact prefixed identifier, grouped by analysis area.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SCAN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("IMP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LINT%04d", ic)
	}
	return "E0000"
}
