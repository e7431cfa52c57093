package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlorianHeigl/fastest-pkg/internal/config"
)

var version = "0.3.0"

// options holds the flag values for one invocation.
type options struct {
	cfgPath    string
	logLevel   string
	logFormat  string
	jsonOutput bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "fastest-pkg",
		Short: "Find the fastest FreeBSD package mirror",
		Long: `fastest-pkg looks up the FreeBSD package mirrors advertised in DNS,
measures the download speed of each one and prints the fastest mirror
together with the pkg(8) repository configuration that selects it.

With --json every measured mirror is printed as a JSON list instead,
fastest first.`,
		Example: `  fastest-pkg
  fastest-pkg --json
  fastest-pkg --config ./fastest-pkg.yaml --log-level debug`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)

			cfg, err := loadConfig(opts.cfgPath, logger)
			if err != nil {
				return err
			}

			p := newPipeline(cfg, logger, cmd.OutOrStdout())
			p.jsonOutput = opts.jsonOutput
			return p.run(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text or json)")
	cmd.Flags().BoolVarP(&opts.jsonOutput, "json", "j", false, "print all results as JSON instead of a configuration snippet")

	return cmd
}

// loadConfig reads the config file at path, or the first one found in the
// standard locations, falling back to defaults.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			logger.Debug("config file not found, using defaults", "error", err)
			return config.DefaultConfig(), nil
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("config loaded", "path", path)
	return cfg, nil
}

// setupLogging builds the slog logger selected by the flags and installs it
// as the default.
func setupLogging(w io.Writer, logLevel, logFormat string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
