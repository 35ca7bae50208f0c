package audio

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/jmylchreest/ambient/internal/config"
	"github.com/jmylchreest/ambient/internal/model"
)

// Manager owns the player and the media watcher that keeps its cache honest.
type Manager struct {
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	config  config.AudioConfig
}

// NewManager creates a new audio manager.
func NewManager(cfg config.AudioConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(cfg.CacheDecoded, logger)

	// Set volume (config uses 0-100, player uses 0.0-1.0)
	player.SetVolume(float64(cfg.Volume) / 100.0)

	return &Manager{
		logger: logger,
		player: player,
		config: cfg,
	}
}

// Start watches the directories of every window in the playlist so cached
// clips are dropped when they change on disk. Without caching there is
// nothing to invalidate and no watcher is started.
func (m *Manager) Start(ctx context.Context, playlist *model.Playlist) error {
	if !m.config.CacheDecoded || playlist.Len() == 0 {
		return nil
	}

	watcher, err := NewWatcher(m.player, m.logger)
	if err != nil {
		return err
	}

	for _, dir := range mediaDirs(playlist) {
		if err := watcher.Watch(dir); err != nil {
			m.logger.Warn("failed to watch media directory", "dir", dir, "error", err)
		}
	}

	if err := watcher.Start(ctx); err != nil {
		_ = watcher.Stop()
		return err
	}
	m.watcher = watcher

	m.logger.Info("audio manager started", "volume", m.config.Volume)
	return nil
}

// Play plays a file and blocks until it has finished.
func (m *Manager) Play(ctx context.Context, path string) error {
	return m.player.Play(ctx, path)
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			m.logger.Warn("failed to stop media watcher", "error", err)
		}
	}
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// mediaDirs returns the distinct directories holding the playlist's files.
func mediaDirs(playlist *model.Playlist) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, w := range playlist.Windows {
		for _, f := range w.MediaFiles {
			dir := filepath.Dir(f)
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}
