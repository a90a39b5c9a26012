package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sarifInvocation struct {
	CommandLine         string `json:"commandLine,omitempty"`
	ExecutionSuccessful bool   `json:"executionSuccessful"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
}

// Sarif writes the bag as a SARIF 2.1.0 log with one run.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    meta.ToolName,
			Version: meta.ToolVersion,
			Rules:   []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{
			CommandLine:         joinArgs(meta.InvocationArgs),
			ExecutionSuccessful: !bag.HasErrors(),
		}}
	}
	seenRules := make(map[string]bool)
	for _, d := range bag.Items() {
		if !seenRules[d.Code.ID()] {
			seenRules[d.Code.ID()] = true
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:   d.Code.ID(),
				Name: d.Code.String(),
			})
		}
		run.Results = append(run.Results, toSarifResult(&d, fs))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	})
}

func toSarifResult(d *diag.Diagnostic, fs *source.FileSet) sarifResult {
	level := "note"
	switch d.Severity {
	case diag.SevError:
		level = "error"
	case diag.SevWarning:
		level = "warning"
	}
	res := sarifResult{
		RuleID:  d.Code.ID(),
		Level:   level,
		Message: sarifMessage{Text: d.Message},
	}
	if file := fs.Get(d.Primary.File); file != nil {
		start, end := fs.Resolve(d.Primary)
		res.Locations = []sarifLocation{{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: file.Path},
				Region: sarifRegion{
					StartLine:   start.Line,
					StartColumn: start.Col,
					EndLine:     end.Line,
					EndColumn:   end.Col,
				},
			},
		}}
	}
	return res
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
