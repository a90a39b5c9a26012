package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show kitels build metadata",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		payload := versionPayload{
			Tool:      "kitels",
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "pretty":
		fmt.Fprintf(os.Stdout, "kitels %s\n", version.Version)
		if version.GitCommit != "" {
			fmt.Fprintf(os.Stdout, "  commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Fprintf(os.Stdout, "  built:  %s\n", version.BuildDate)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (pretty|json)", format)
	}
}
