package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	// ErrUnsupportedFormat is returned for files beep has no decoder for.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrTruncated is returned when a clip's audio data ends before the
	// length its header declares.
	ErrTruncated = errors.New("audio data ends early")
)

// Player plays audio clips to the default output device, one at a time.
// Playlists only hold WAV and MP3 files; OGG is decoded too for direct
// callers.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Whether speaker has been initialized
	initialized bool

	// Sample rate for the speaker
	sampleRate beep.SampleRate

	// Decoded clip cache, keyed by path
	cacheEnabled bool
	cache        map[string]*beep.Buffer
	cacheMutex   sync.RWMutex
}

// NewPlayer creates a new audio player. With cache set, decoded clips are
// kept in memory and replayed without touching the disk.
func NewPlayer(cache bool, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:       logger,
		volume:       1.0,
		sampleRate:   beep.SampleRate(44100),
		cacheEnabled: cache,
		cache:        make(map[string]*beep.Buffer),
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume = volume
	p.logger.Debug("volume set", "volume", volume)
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play plays the file at path and blocks until it has finished, playback
// could not start, or ctx is cancelled. A clip that fails or stops short
// partway through returns an error rather than finishing quietly.
func (p *Player) Play(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("no file to play")
	}

	p.cacheMutex.RLock()
	buffer, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if ok {
		return p.play(ctx, buffer.Streamer(0, buffer.Len()), buffer.Format())
	}

	streamer, format, err := decodeFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = streamer.Close() }()

	if err := p.ensureInitialized(format.SampleRate); err != nil {
		return err
	}

	if !p.cacheEnabled {
		return p.play(ctx, &checkedStreamer{src: streamer}, format)
	}

	buffer, err = decodeAll(ctx, streamer, format)
	if err != nil {
		return err
	}

	p.cacheMutex.Lock()
	p.cache[path] = buffer
	p.cacheMutex.Unlock()

	return p.play(ctx, buffer.Streamer(0, buffer.Len()), format)
}

// decodeFile opens path and decodes its header. Supports WAV and MP3, plus
// OGG for callers playing files outside a playlist.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open sound file: %w", err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode sound: %w", err)
	}

	return streamer, format, nil
}

// decodeAll reads the whole clip into memory one second at a time,
// checking ctx between chunks.
func decodeAll(ctx context.Context, src beep.StreamSeeker, format beep.Format) (*beep.Buffer, error) {
	checked := &checkedStreamer{src: src}
	buffer := beep.NewBuffer(format)
	chunk := max(format.SampleRate.N(time.Second), 1)

	for !checked.done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buffer.Append(beep.Take(chunk, checked))
	}

	if checked.err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", checked.err)
	}
	return buffer, nil
}

// checkedStreamer ends a clip as soon as its decoder reports an error, stops
// producing samples, or runs out before its declared length. Err reports
// which.
type checkedStreamer struct {
	src  beep.StreamSeeker
	err  error
	done bool
}

func (c *checkedStreamer) Stream(samples [][2]float64) (int, bool) {
	if c.done {
		return 0, false
	}

	n, ok := c.src.Stream(samples)
	if err := c.src.Err(); err != nil {
		c.done, c.err = true, err
		return 0, false
	}

	stalled := ok && n == 0 && len(samples) > 0
	if !ok || stalled {
		c.done = true
		if pos, total := c.src.Position(), c.src.Len(); pos < total {
			c.err = fmt.Errorf("%w: stopped at sample %d of %d", ErrTruncated, pos, total)
		}
		return n, false
	}
	return n, true
}

func (c *checkedStreamer) Err() error {
	return c.err
}

// ensureInitialized initializes the speaker if not already done.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// play hands the streamer to the speaker and waits for it to drain.
func (p *Player) play(ctx context.Context, src beep.Streamer, format beep.Format) error {
	streamer := src
	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	// Resample if necessary
	if format.SampleRate != sampleRate {
		streamer = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		if err := src.Err(); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// InvalidateCache removes a specific path from the cache.
func (p *Player) InvalidateCache(path string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	if _, ok := p.cache[path]; ok {
		delete(p.cache, path)
		p.logger.Debug("dropped cached sound", "path", path)
	}
}

// Cached reports whether a decoded copy of path is held.
func (p *Player) Cached(path string) bool {
	p.cacheMutex.RLock()
	defer p.cacheMutex.RUnlock()
	_, ok := p.cache[path]
	return ok
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*beep.Buffer)
	p.logger.Debug("sound cache cleared")
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.mu.Lock()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	p.mu.Unlock()

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// volumeToExponent converts a linear volume (0-1] to a base-2 gain exponent
// for effects.Volume: 0.5 = -1, 0.25 = -2.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
