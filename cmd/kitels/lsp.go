package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/lsp"
	"github.com/kitecorp/kitels/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Kite language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().StringSlice("disable", nil, "rule names to disable")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	disabledRules, err := cmd.Flags().GetStringSlice("disable")
	if err != nil {
		return err
	}
	var disabled map[string]bool
	if len(disabledRules) > 0 {
		disabled = make(map[string]bool, len(disabledRules))
		for _, rule := range disabledRules {
			disabled[rule] = true
		}
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		MaxDiagnostics: maxDiagnostics,
		Disabled:       disabled,
		Version:        version.Version,
	})
	if err := server.Run(); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
