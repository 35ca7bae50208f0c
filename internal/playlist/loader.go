// Package playlist builds the time-windowed playlist from configuration and
// the media directory tree.
package playlist

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/ambient/internal/config"
	"github.com/jmylchreest/ambient/internal/model"
)

// Extensions lists the recognized audio suffixes. Matching is case-sensitive.
var Extensions = []string{".mp3", ".wav"}

// Reasons a window is left out of the playlist.
var (
	ErrNoWindows        = errors.New("no time categories found in config")
	ErrMissingName      = errors.New("category name is missing")
	ErrDuplicateName    = errors.New("category name already loaded")
	ErrMediaDirNotFound = errors.New("media path not found")
	ErrNoMediaFiles     = errors.New("no media files found")
)

// Skipped records a configured window that did not make it into the playlist.
type Skipped struct {
	Index int    // Position in time_categories
	Name  string // May be empty
	Err   error
}

func (s Skipped) Error() string {
	if s.Name == "" {
		return fmt.Sprintf("time category #%d: %v", s.Index, s.Err)
	}
	return fmt.Sprintf("time category %q: %v", s.Name, s.Err)
}

func (s Skipped) Unwrap() error {
	return s.Err
}

// Loader resolves time categories against a media root.
type Loader struct {
	mediaRoot string
	logger    *slog.Logger
}

// NewLoader creates a loader that looks for <mediaRoot>/<window name>/ directories.
func NewLoader(mediaRoot string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	// Players are handed absolute paths.
	if abs, err := filepath.Abs(mediaRoot); err == nil {
		mediaRoot = abs
	}
	return &Loader{mediaRoot: mediaRoot, logger: logger}
}

// Load builds a playlist from the given categories. It never fails as a
// whole: bad entries are logged, reported in the returned slice and left out.
func (l *Loader) Load(categories []config.TimeCategory) (*model.Playlist, []Skipped) {
	l.logger.Info("loading playlist", "media_root", l.mediaRoot)

	playlist := &model.Playlist{}
	if len(categories) == 0 {
		l.logger.Error("no time categories found in config")
		return playlist, []Skipped{{Index: -1, Err: ErrNoWindows}}
	}

	var skipped []Skipped
	seen := make(map[string]bool, len(categories))

	for i, category := range categories {
		window, size, err := l.loadWindow(category)
		if err == nil && seen[window.Name] {
			err = ErrDuplicateName
		}
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, Name: category.Name, Err: err})
			l.logSkip(category, err)
			continue
		}

		if window.Wraps() {
			l.logger.Warn("window spans midnight and will never be active",
				"name", window.Name, "start", window.Start, "end", window.End)
		}

		seen[window.Name] = true
		playlist.Windows = append(playlist.Windows, window)
		l.logger.Debug("loaded window",
			"name", window.Name,
			"start", window.Start,
			"end", window.End,
			"files", len(window.MediaFiles),
			"size", humanize.Bytes(uint64(size)))
	}

	l.logger.Info("loaded playlist", "windows", playlist.Len(), "skipped", len(skipped))
	return playlist, skipped
}

// loadWindow validates one category and collects its media files.
func (l *Loader) loadWindow(category config.TimeCategory) (model.Window, int64, error) {
	if category.Name == "" {
		return model.Window{}, 0, ErrMissingName
	}

	start, err := model.ParseTimeOfDay(category.StartTime)
	if err != nil {
		return model.Window{}, 0, fmt.Errorf("start_time: %w", err)
	}
	end, err := model.ParseTimeOfDay(category.EndTime)
	if err != nil {
		return model.Window{}, 0, fmt.Errorf("end_time: %w", err)
	}

	mediaPath := filepath.Join(l.mediaRoot, category.Name)
	info, err := os.Stat(mediaPath)
	if err != nil || !info.IsDir() {
		return model.Window{}, 0, fmt.Errorf("%w: %s", ErrMediaDirNotFound, mediaPath)
	}

	files, size, err := collectMedia(mediaPath)
	if err != nil {
		return model.Window{}, 0, fmt.Errorf("failed to list %s: %w", mediaPath, err)
	}
	if len(files) == 0 {
		return model.Window{}, 0, fmt.Errorf("%w in %s", ErrNoMediaFiles, mediaPath)
	}

	return model.Window{
		Name:       category.Name,
		Start:      start,
		End:        end,
		MediaFiles: files,
	}, size, nil
}

// collectMedia returns the audio files directly inside dir, in name order,
// and their combined size.
func collectMedia(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	var files []string
	var total int64
	for _, e := range entries {
		if e.IsDir() || !IsMediaFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return files, total, nil
}

// IsMediaFile reports whether name carries one of the recognized extensions.
func IsMediaFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// logSkip logs at the level the failure kind deserves.
func (l *Loader) logSkip(category config.TimeCategory, err error) {
	switch {
	case errors.Is(err, ErrNoMediaFiles):
		l.logger.Warn("skipping time category", "name", category.Name, "error", err)
	case errors.Is(err, model.ErrInvalidTimeFormat):
		l.logger.Error("skipping time category with invalid time",
			"name", category.Name,
			"start_time", category.StartTime,
			"end_time", category.EndTime,
			"error", err)
	default:
		l.logger.Error("skipping time category", "name", category.Name, "error", err)
	}
}
