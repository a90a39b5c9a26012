package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a parsed kite.toml plus its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the kite.toml schema.
type Config struct {
	Package   PackageConfig   `toml:"package"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Lint      LintConfig      `toml:"lint"`
}

// PackageConfig is the [package] section.
type PackageConfig struct {
	Name string `toml:"name"`
}

// WorkspaceConfig is the [workspace] section: glob patterns, relative to the
// manifest directory, selecting the source files.
type WorkspaceConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// LintConfig is the [lint] section.
type LintConfig struct {
	MaxDiagnostics int      `toml:"max-diagnostics"`
	Disabled       []string `toml:"disabled"`
}

// DefaultInclude is used when [workspace].include is absent.
var DefaultInclude = []string{"**"}

// Load parses the manifest at path. [package].name is required; everything
// else defaults.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	if len(cfg.Workspace.Include) == 0 {
		cfg.Workspace.Include = DefaultInclude
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
	}, nil
}

// Discover walks up from startDir and loads the nearest manifest. The second
// return is false when no kite.toml exists; that is not an error, the caller
// falls back to defaults rooted at startDir.
func Discover(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindKiteToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// DisabledSet returns the disabled rule names as a lookup set.
func (m *Manifest) DisabledSet() map[string]bool {
	out := make(map[string]bool, len(m.Config.Lint.Disabled))
	for _, name := range m.Config.Lint.Disabled {
		out[name] = true
	}
	return out
}
