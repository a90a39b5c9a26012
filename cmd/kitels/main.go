package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kitecorp/kitels/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "kitels",
	Short: "Kite language server and diagnostics toolchain",
	Long:  `kitels indexes Kite infrastructure files, resolves symbols across imports, and serves editors over LSP`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show phase timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum diagnostics per file (0=unlimited)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the given path")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the given path")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to the given path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
