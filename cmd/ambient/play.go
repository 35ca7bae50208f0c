package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ambient/internal/audio"
	"github.com/jmylchreest/ambient/internal/scheduler"
)

// runPlayer loads the playlist once and plays until SIGINT or SIGTERM.
// An empty playlist still starts the loop; it just polls forever.
func runPlayer(cmd *cobra.Command, args []string) error {
	logger.Info("starting ambient", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pl, _ := loadPlaylist()
	if pl.Len() == 0 {
		logger.Error("playlist is empty, nothing will play until the config is fixed and ambient restarted")
	}

	audioManager := audio.NewManager(cfg.Audio, logger)
	if err := audioManager.Start(ctx, pl); err != nil {
		logger.Warn("failed to start audio manager", "error", err)
	}
	defer audioManager.Stop()

	sched := scheduler.New(pl, audioManager, scheduler.Options{
		MinBreakSeconds: cfg.MinBreakSeconds,
		MaxBreakSeconds: cfg.MaxBreakSeconds,
		Logger:          logger,
	})

	err := sched.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("received signal, shutting down")
		return nil
	}
	return err
}
