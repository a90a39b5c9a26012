package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/driver"
)

var indexCmd = &cobra.Command{
	Use:          "index [flags] [path]",
	Short:        "Export the workspace symbol index",
	Long:         "Build the full declaration and import index for the workspace and write it as JSON or msgpack, for external tooling.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runIndex,
}

func init() {
	indexCmd.Flags().String("format", "json", "output format (json|msgpack)")
	indexCmd.Flags().String("output", "", "write to file instead of stdout")
}

func runIndex(cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	proj, err := openProject(cmd, target)
	if err != nil {
		return err
	}

	payload := driver.BuildExport(proj.Host)

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return payload.WriteJSON(w)
	case "msgpack":
		return payload.WriteMsgpack(w)
	default:
		return fmt.Errorf("unknown format %q (json|msgpack)", format)
	}
}
