package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

// Entry pairs one bag with the file set its spans resolve against. Workspace
// runs produce one entry per analyzed file.
type Entry struct {
	Bag     *diag.Bag
	FileSet *source.FileSet
}

// PrettyAll renders the entries in order, blank-line separated.
func PrettyAll(w io.Writer, entries []Entry, opts PrettyOpts) {
	printed := false
	for _, e := range entries {
		if e.Bag.Len() == 0 {
			continue
		}
		if printed {
			fmt.Fprintln(w)
		}
		Pretty(w, e.Bag, e.FileSet, opts)
		printed = true
	}
}

// JSONAll writes all entries as one JSON document. Max caps the combined
// diagnostic count.
func JSONAll(w io.Writer, entries []Entry, opts JSONOpts) error {
	report := jsonReport{Diagnostics: []jsonDiagnostic{}}
	for _, e := range entries {
		items := e.Bag.Items()
		for i := range items {
			if opts.Max > 0 && len(report.Diagnostics) >= opts.Max {
				report.Truncated = true
				break
			}
			report.Diagnostics = append(report.Diagnostics, toJSONDiagnostic(&items[i], e.FileSet, opts))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// SarifAll writes all entries as a SARIF 2.1.0 log with one combined run.
func SarifAll(w io.Writer, entries []Entry, meta SarifRunMeta) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    meta.ToolName,
			Version: meta.ToolVersion,
			Rules:   []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	hasErrors := false
	seenRules := make(map[string]bool)
	for _, e := range entries {
		if e.Bag.HasErrors() {
			hasErrors = true
		}
		for _, d := range e.Bag.Items() {
			if !seenRules[d.Code.ID()] {
				seenRules[d.Code.ID()] = true
				run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
					ID:   d.Code.ID(),
					Name: d.Code.String(),
				})
			}
			run.Results = append(run.Results, toSarifResult(&d, e.FileSet))
		}
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{
			CommandLine:         joinArgs(meta.InvocationArgs),
			ExecutionSuccessful: !hasErrors,
		}}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	})
}

// ShortAll writes the compact form for all entries in order.
func ShortAll(w io.Writer, entries []Entry) {
	for _, e := range entries {
		Short(w, e.Bag, e.FileSet)
	}
}
