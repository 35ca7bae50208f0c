// Package scheduler runs the endless select, play and rest loop over a
// time-windowed playlist.
package scheduler

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/ambient/internal/model"
)

// Default timing values.
const (
	DefaultPollInterval  = 60 * time.Second
	DefaultProgressEvery = 5 * time.Second
	restTick             = time.Second

	// BreakLimitSeconds caps both break bounds at one day.
	BreakLimitSeconds = 24 * 60 * 60
)

// Player plays a file and blocks until it finishes or fails.
type Player interface {
	Play(ctx context.Context, path string) error
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, path string) error

// Play calls f(ctx, path).
func (f PlayerFunc) Play(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Outcome is how a cycle ended.
type Outcome int

const (
	// OutcomeIdle means no window was active and the poll interval elapsed.
	OutcomeIdle Outcome = iota
	// OutcomePlayed means a clip played and the rest interval elapsed.
	OutcomePlayed
	// OutcomeFailed means playback failed; no rest was taken.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomePlayed:
		return "played"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CycleResult describes one pass through the loop.
type CycleResult struct {
	ID      string
	Outcome Outcome
	Active  []string // Names of the windows active at selection time
	Window  string
	File    string
	Rest    time.Duration
	Err     error // Playback error when Outcome is OutcomeFailed
}

// Options configures a Scheduler. Zero values pick defaults.
type Options struct {
	MinBreakSeconds int
	MaxBreakSeconds int

	PollInterval  time.Duration
	ProgressEvery time.Duration

	Clock  clockwork.Clock
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Scheduler picks and plays clips from the windows active at the current
// time of day. The playlist is only ever read.
type Scheduler struct {
	playlist *model.Playlist
	player   Player

	minBreak int
	maxBreak int

	pollInterval  time.Duration
	progressEvery int // seconds

	clock  clockwork.Clock
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a scheduler. A reversed break range is swapped, negative
// bounds are clamped to zero and bounds above BreakLimitSeconds are capped,
// each with a warning.
func New(playlist *model.Playlist, player Player, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if playlist == nil {
		playlist = &model.Playlist{}
	}

	minBreak, maxBreak := opts.MinBreakSeconds, opts.MaxBreakSeconds
	if minBreak < 0 || maxBreak < 0 {
		logger.Warn("negative break bounds clamped to zero", "min_break_seconds", minBreak, "max_break_seconds", maxBreak)
		minBreak, maxBreak = max(minBreak, 0), max(maxBreak, 0)
	}
	if minBreak > BreakLimitSeconds || maxBreak > BreakLimitSeconds {
		logger.Warn("break bounds capped at one day", "min_break_seconds", minBreak,
			"max_break_seconds", maxBreak, "limit_seconds", BreakLimitSeconds)
		minBreak, maxBreak = min(minBreak, BreakLimitSeconds), min(maxBreak, BreakLimitSeconds)
	}
	if maxBreak < minBreak {
		logger.Warn("max_break_seconds is below min_break_seconds, swapping",
			"min_break_seconds", minBreak, "max_break_seconds", maxBreak)
		minBreak, maxBreak = maxBreak, minBreak
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	progressEvery := int(opts.ProgressEvery / time.Second)
	if progressEvery <= 0 {
		progressEvery = int(DefaultProgressEvery / time.Second)
	}

	return &Scheduler{
		playlist:      playlist,
		player:        player,
		minBreak:      minBreak,
		maxBreak:      maxBreak,
		pollInterval:  pollInterval,
		progressEvery: progressEvery,
		clock:         clock,
		rng:           rng,
		logger:        logger,
	}
}

// BreakRange returns the effective rest bounds in seconds.
func (s *Scheduler) BreakRange() (minBreak, maxBreak int) {
	return s.minBreak, s.maxBreak
}

// Run cycles until ctx is cancelled and then returns ctx.Err().
// Playback errors never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting playback",
		"windows", s.playlist.Len(),
		"min_break_seconds", s.minBreak,
		"max_break_seconds", s.maxBreak)

	for {
		if _, err := s.Cycle(ctx); err != nil {
			return err
		}
	}
}

// Cycle runs a single selection followed by either the poll wait or a
// play-and-rest. The only error it returns is from ctx.
func (s *Scheduler) Cycle(ctx context.Context) (CycleResult, error) {
	if err := ctx.Err(); err != nil {
		return CycleResult{}, err
	}

	now := s.clock.Now()
	result := CycleResult{ID: s.newCycleID(now)}
	logger := s.logger.With("cycle", result.ID)

	active := playable(s.playlist.Active(now))
	if len(active) == 0 {
		result.Outcome = OutcomeIdle
		logger.Info("no scheduled playlists found, waiting for next cycle", "poll_interval", s.pollInterval)
		return result, s.sleep(ctx, s.pollInterval)
	}

	result.Active = make([]string, len(active))
	for i, w := range active {
		result.Active[i] = w.Name
	}
	logger.Info("scheduled playlists", "windows", model.Names(active))

	window := active[s.rng.IntN(len(active))]
	file := window.MediaFiles[s.rng.IntN(len(window.MediaFiles))]
	result.Window, result.File = window.Name, file

	logger.Info("playing category", "name", window.Name)
	logger.Info("playing media file", "file", file)

	if err := s.player.Play(ctx, file); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		logger.Error("error playing media file", "file", file, "error", err)
		return result, nil
	}

	result.Outcome = OutcomePlayed
	seconds := s.drawBreak()
	result.Rest = time.Duration(seconds) * time.Second
	logger.Info("playback finished, taking a break", "break", result.Rest)

	return result, s.rest(ctx, logger, seconds)
}

// playable drops windows that have no clips to pick from.
func playable(windows []model.Window) []model.Window {
	out := windows[:0:0]
	for _, w := range windows {
		if len(w.MediaFiles) > 0 {
			out = append(out, w)
		}
	}
	return out
}

// drawBreak picks a rest length uniformly from [minBreak, maxBreak].
func (s *Scheduler) drawBreak() int {
	return s.minBreak + s.rng.IntN(s.maxBreak-s.minBreak+1)
}

// rest sleeps in one-second ticks, logging progress every progressEvery seconds.
func (s *Scheduler) rest(ctx context.Context, logger *slog.Logger, seconds int) error {
	total := time.Duration(seconds) * time.Second
	for i := 0; i < seconds; i++ {
		if i%s.progressEvery == 0 {
			elapsed := time.Duration(i) * time.Second
			logger.Info("break time", "progress", formatClock(elapsed)+" / "+formatClock(total))
		}
		if err := s.sleep(ctx, restTick); err != nil {
			return err
		}
	}
	return nil
}

// sleep waits on the injected clock so tests can drive time.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newCycleID returns a ULID used to correlate the log lines of one cycle.
func (s *Scheduler) newCycleID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), crand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

// formatClock renders d as H:MM:SS.
func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
