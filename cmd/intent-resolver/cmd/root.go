// Package cmd provides the CLI commands for the intent resolver.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/intentresolver/internal/config"
)

var cfgFile string
var devMode bool

var rootCmd = &cobra.Command{
	Use:   "intent-resolver",
	Short: "Intent resolver - turns assistant drafts into canonical actions",
	Long: `intent-resolver normalizes the action drafts produced by a language model
into validated canonical actions for a productivity backend.

It maps free-form function labels to canonical operations, fills missing
task references from context, resolves natural-language times to strict
UTC timestamps, and reports every problem instead of guessing.

Configuration:
  Config is loaded from intent-resolver.yaml in the current directory,
  $HOME/.intent-resolver/, or /etc/intent-resolver/.

  Environment variables can override config values with the INTENT_RESOLVER_ prefix.
  Example: INTENT_RESOLVER_RESOLVER_BASE_URL=http://localhost:8000/v1

Commands:
  resolve     Resolve one or more drafts
  registry    Print the canonical operation registry
  detect      Classify a command's scheduling intent
  match       Resolve a single function label
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./intent-resolver.yaml)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, offline resolver without endpoint)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// loadConfig loads and validates the configuration, applying CLI overrides
// before validation.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	if override != nil {
		override(cfg)
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. Stdout is reserved for results.
func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Log.Level)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
