package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 14, hour, minute, second, 0, time.Local)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "00:00", want: TimeOfDay{0, 0}},
		{input: "08:30", want: TimeOfDay{8, 30}},
		{input: "23:59", want: TimeOfDay{23, 59}},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "8:00", wantErr: true},
		{input: "08:00:00", wantErr: true},
		{input: "0800", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)

				var tfe *TimeFormatError
				require.True(t, errors.As(err, &tfe))
				assert.Equal(t, tt.input, tfe.Value)
				assert.Contains(t, err.Error(), tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestMustParseTimeOfDay_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseTimeOfDay("7am") })
	assert.NotPanics(t, func() { MustParseTimeOfDay("07:00") })
}

func TestWindow_Contains(t *testing.T) {
	w := Window{Name: "morning", Start: MustParseTimeOfDay("08:00"), End: MustParseTimeOfDay("10:00")}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"inside", at(9, 0, 0), true},
		{"exact start", at(8, 0, 0), true},
		{"exact end", at(10, 0, 0), true},
		{"one minute before", at(7, 59, 0), false},
		{"one minute after", at(10, 1, 0), false},
		{"seconds past end", at(10, 0, 30), false},
		{"last second before start", at(7, 59, 59), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.now))
		})
	}
}

func TestWindow_MidnightSpanNeverMatches(t *testing.T) {
	w := Window{Name: "late", Start: MustParseTimeOfDay("22:00"), End: MustParseTimeOfDay("02:00")}

	assert.True(t, w.Wraps())
	for _, now := range []time.Time{at(23, 0, 0), at(1, 0, 0), at(22, 0, 0), at(2, 0, 0), at(12, 0, 0)} {
		assert.False(t, w.Contains(now), "now=%s", now.Format(time.Kitchen))
	}
}

func TestPlaylist_Active(t *testing.T) {
	p := &Playlist{Windows: []Window{
		{Name: "morning", Start: MustParseTimeOfDay("06:00"), End: MustParseTimeOfDay("12:00")},
		{Name: "birds", Start: MustParseTimeOfDay("08:00"), End: MustParseTimeOfDay("10:00")},
		{Name: "night", Start: MustParseTimeOfDay("22:00"), End: MustParseTimeOfDay("23:59")},
	}}

	t.Run("overlap keeps order", func(t *testing.T) {
		active := p.Active(at(9, 0, 0))
		require.Len(t, active, 2)
		assert.Equal(t, "morning", active[0].Name)
		assert.Equal(t, "birds", active[1].Name)
		assert.Equal(t, "morning, birds", Names(active))
	})

	t.Run("single", func(t *testing.T) {
		active := p.Active(at(22, 30, 0))
		require.Len(t, active, 1)
		assert.Equal(t, "night", active[0].Name)
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, p.Active(at(15, 0, 0)))
	})

	t.Run("nil playlist", func(t *testing.T) {
		var empty *Playlist
		assert.Empty(t, empty.Active(at(9, 0, 0)))
		assert.Equal(t, 0, empty.Len())
	})
}
