// Package config resolves the optional viewkit.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "viewkit.yaml"

// DefaultDebugPort is the debug server port used when none is configured.
const DefaultDebugPort = 9229

// Config represents the optional viewkit.yaml configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Log      LogConfig      `yaml:"log"`
	Debug    DebugConfig    `yaml:"debug"`
	Scenario ScenarioConfig `yaml:"scenarios"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name string `yaml:"name,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DebugConfig contains debug server settings.
type DebugConfig struct {
	Port *int `yaml:"port,omitempty"`
}

// ScenarioConfig contains scenario lookup settings.
type ScenarioConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root        string
	ModulePath  string
	ProjectName string
	LogLevel    string
	LogFormat   string
	DebugPort   int
	ScenarioDir string
}

// LoadOptional reads viewkit.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName), true)
}

// LoadFile reads the configuration at path. A missing file yields an empty
// Config when optional is set.
func LoadFile(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	return &cfg, nil
}

// Resolve loads viewkit.yaml from dir (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve fills in defaults for cfg as found in dir. dir need not be a Go
// module; the module path is then empty.
func (cfg *Config) Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	name := strings.TrimSpace(cfg.Project.Name)
	if name == "" {
		name = defaultProjectName(modulePath, dir)
	}

	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if level == "" {
		level = "info"
	}
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("log.format must be text or json (got %q)", cfg.Log.Format)
	}

	port := DefaultDebugPort
	if cfg.Debug.Port != nil {
		port = *cfg.Debug.Port
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("debug.port out of range (got %d)", port)
	}

	scenarioDir := strings.TrimSpace(cfg.Scenario.Dir)
	if scenarioDir == "" {
		scenarioDir = "scenarios"
	}
	if !filepath.IsAbs(scenarioDir) {
		scenarioDir = filepath.Join(dir, scenarioDir)
	}

	return &Resolved{
		Root:        dir,
		ModulePath:  modulePath,
		ProjectName: name,
		LogLevel:    level,
		LogFormat:   format,
		DebugPort:   port,
		ScenarioDir: scenarioDir,
	}, nil
}

// FindProjectRoot walks up from the current directory to the nearest
// directory holding viewkit.yaml or go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s or go.mod found", FileName)
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultProjectName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		modName, _, ok := module.SplitPathVersion(modulePath)
		if ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "viewkit"
	}
	return base
}

func validateLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", level)
}
