package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kitecorp/kitels/internal/project"
	"github.com/kitecorp/kitels/internal/workspace"
)

// projectContext bundles everything a batch command needs: the resolved root,
// the file host over it, and lint settings merged from flags and manifest.
type projectContext struct {
	Root           string
	Host           *workspace.DirHost
	MaxDiagnostics int
	Disabled       map[string]bool
}

// openProject resolves startPath (a file, a directory, or empty for the
// working directory) to a workspace. When a kite.toml manifest governs the
// path, its root and workspace globs apply; manifest lint settings fill in
// whatever the CLI flags left unset.
func openProject(cmd *cobra.Command, startPath string) (*projectContext, error) {
	if startPath == "" {
		startPath = "."
	}
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}

	root := filepath.ToSlash(dir)
	include := project.DefaultInclude
	var exclude []string
	var disabled map[string]bool
	if manifest, ok, err := project.Discover(dir); err == nil && ok {
		root = manifest.Root
		include = manifest.Config.Workspace.Include
		exclude = manifest.Config.Workspace.Exclude
		if maxDiagnostics == 0 {
			maxDiagnostics = manifest.Config.Lint.MaxDiagnostics
		}
		disabled = manifest.DisabledSet()
	}

	return &projectContext{
		Root:           root,
		Host:           workspace.NewDirHost(root, include, exclude),
		MaxDiagnostics: maxDiagnostics,
		Disabled:       disabled,
	}, nil
}

// colorEnabled resolves the --color mode against the target stream and
// configures the global color state to match.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	var enabled bool
	switch mode {
	case "on":
		enabled = true
	case "off":
		enabled = false
	case "auto":
		enabled = isTerminal(f)
	default:
		return false, fmt.Errorf("unknown color mode %q (auto|on|off)", mode)
	}
	color.NoColor = !enabled
	return enabled, nil
}

func quietMode(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}
