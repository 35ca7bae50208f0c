// Package model defines the core data structures for ambient.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the only accepted time-of-day format (24-hour, zero padded).
const TimeLayout = "15:04"

// ErrInvalidTimeFormat is matched by every *TimeFormatError.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// TimeFormatError reports a time-of-day string that is not strict HH:MM.
type TimeFormatError struct {
	Value string
	Err   error
}

func (e *TimeFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid time format: %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid time format: %q", e.Value)
}

// Is lets errors.Is(err, ErrInvalidTimeFormat) match.
func (e *TimeFormatError) Is(target error) bool {
	return target == ErrInvalidTimeFormat
}

func (e *TimeFormatError) Unwrap() error {
	return e.Err
}

// TimeOfDay is a wall-clock time with minute granularity.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a strict "HH:MM" 24-hour string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	// time.Parse accepts a single hour digit, so pin the length first.
	if len(s) != len(TimeLayout) {
		return TimeOfDay{}, &TimeFormatError{Value: s}
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return TimeOfDay{}, &TimeFormatError{Value: s, Err: err}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

// Offset returns the time elapsed since midnight.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// OffsetOf returns the local wall-clock time elapsed since midnight for t,
// keeping sub-minute precision.
func OffsetOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// Window is a named time-of-day interval and the clips eligible during it.
// The loader never produces a Window without MediaFiles; the scheduler skips
// any that are built by hand without them.
type Window struct {
	Name       string
	Start      TimeOfDay
	End        TimeOfDay
	MediaFiles []string
}

// Contains reports whether now falls within [Start, End], inclusive.
// Windows are not wrapped across midnight, so Start > End never matches.
func (w Window) Contains(now time.Time) bool {
	off := OffsetOf(now)
	return w.Start.Offset() <= off && off <= w.End.Offset()
}

// Wraps reports whether the window was written as spanning midnight.
func (w Window) Wraps() bool {
	return w.Start.Offset() > w.End.Offset()
}

func (w Window) String() string {
	return fmt.Sprintf("%s [%s-%s] (%d files)", w.Name, w.Start, w.End, len(w.MediaFiles))
}

// Playlist is the ordered, load-once set of windows.
type Playlist struct {
	Windows []Window
}

// Len returns the number of windows.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Windows)
}

// Active returns the windows containing now, in playlist order.
func (p *Playlist) Active(now time.Time) []Window {
	if p == nil {
		return nil
	}
	var active []Window
	for _, w := range p.Windows {
		if w.Contains(now) {
			active = append(active, w)
		}
	}
	return active
}

// Names returns window names joined with ", ".
func Names(windows []Window) string {
	names := make([]string, len(windows))
	for i, w := range windows {
		names[i] = w.Name
	}
	return strings.Join(names, ", ")
}
