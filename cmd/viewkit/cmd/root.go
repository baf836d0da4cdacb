// Package cmd implements the viewkit CLI commands.
//
// Settings come from, highest priority first: command-line flags,
// VIEWKIT_* environment variables (VIEWKIT_LOG_LEVEL, VIEWKIT_PORT, ...),
// the project's viewkit.yaml, and built-in defaults.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-drift/viewkit/cmd/viewkit/internal/config"
	"github.com/go-drift/viewkit/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	cfgFile string
	project *config.Resolved
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "viewkit",
	Short: "Run and inspect view lifecycle scenarios",
	Long: `viewkit drives a view lifecycle coordinator through YAML scenarios
and reports every lifecycle notification the views receive.

Use "viewkit <command> --help" for more information about a command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is viewkit.yaml in the project root, can also use VIEWKIT_CONFIG_FILE)")
	pf.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	bindFlags(pf, "log-level", "log-format")
}

func bindFlags(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := viper.BindPFlag(name, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

func initConfig() {
	viper.SetEnvPrefix("VIEWKIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setup resolves the project configuration, feeds it to viper as defaults
// and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	resolved, err := loadProject()
	if err != nil {
		return err
	}
	project = resolved

	viper.SetDefault("log-level", resolved.LogLevel)
	viper.SetDefault("log-format", resolved.LogFormat)
	viper.SetDefault("port", resolved.DebugPort)

	l, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: viper.GetString("log-level") == "debug"})
	logger.Debug("configuration resolved",
		slog.String("root", resolved.Root),
		slog.String("project", resolved.ProjectName),
		slog.String("module", resolved.ModulePath))
	return nil
}

func loadProject() (*config.Resolved, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("VIEWKIT_CONFIG_FILE")
	}
	if path != "" {
		cfg, err := config.LoadFile(path, false)
		if err != nil {
			return nil, err
		}
		return cfg.Resolve(filepath.Dir(path))
	}

	root, err := config.FindProjectRoot()
	if err != nil {
		if root, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	return config.Resolve(root)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s (supported: text, json)", format)
	}
	return slog.New(handler), nil
}
