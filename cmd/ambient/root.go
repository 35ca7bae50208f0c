// Package main provides the CLI entrypoint for ambient.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ambient/internal/config"
	"github.com/jmylchreest/ambient/internal/model"
	"github.com/jmylchreest/ambient/internal/playlist"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		mediaDir   string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ambient",
	Short: "Time-of-day ambient sound player",
	Long: `ambient plays ambient audio clips on an endless loop.

Clips are grouped into named time windows in the config file. Every cycle
one window active at the current time of day is picked at random, one of its
clips is played, and the player rests for a random number of seconds
between min_break_seconds and max_break_seconds.

Clips for a window named "night" are read from <media_dir>/night/ and must
end in .mp3 or .wav.

Running ambient without a subcommand starts the player.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		cfg = loadConfig()
		return nil
	},
	RunE: runPlayer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/ambient/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.mediaDir, "media-dir", "",
		"Media root directory (default: media/ next to the config file)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadConfig loads the config file. Problems are logged and never fatal:
// the player keeps running on defaults.
func loadConfig() *config.Config {
	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}

	logger.Info("loading config", "path", path)
	c, err := config.LoadConfig(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
	}

	for _, key := range c.Defaulted() {
		logger.Warn("setting not found in config, using default", "key", key)
	}

	if globalOpts.mediaDir != "" {
		c.MediaDir = globalOpts.mediaDir
	}

	logger.Info("loaded config",
		"time_categories", len(c.TimeCategories),
		"min_break_seconds", c.MinBreakSeconds,
		"max_break_seconds", c.MaxBreakSeconds,
		"media_dir", c.MediaDir,
		"volume", c.Audio.Volume)
	return c
}

// loadPlaylist resolves the configured windows against the media directory.
func loadPlaylist() (*model.Playlist, []playlist.Skipped) {
	return playlist.NewLoader(cfg.MediaDir, logger).Load(cfg.TimeCategories)
}
