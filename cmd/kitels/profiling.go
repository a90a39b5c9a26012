package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/prof"
)

// setupProfiling enables the profilers the persistent flags ask for. The
// returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, err
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, err
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, err
	}

	stopCPU := prof.Stop(func() {})
	stopTrace := prof.Stop(func() {})

	if cpuProfile != "" {
		stopCPU, err = prof.StartCPU(cpuProfile)
		if err != nil {
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
	}
	if tracePath != "" {
		stopTrace, err = prof.StartTrace(tracePath)
		if err != nil {
			stopCPU()
			return nil, fmt.Errorf("start trace: %w", err)
		}
	}

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		stopTrace()
		stopCPU()
		if memProfile != "" {
			if err := prof.WriteMem(memProfile); err != nil {
				fmt.Fprintf(os.Stderr, "kitels: write heap profile: %v\n", err)
			}
		}
	}
	return cleanup, nil
}
