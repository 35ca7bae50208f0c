package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ambient/internal/model"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) InvalidateCache(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingInvalidator) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func TestWatcher_InvalidatesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "wind.wav")
	require.NoError(t, os.WriteFile(clip, []byte("v1"), 0644))

	target := &recordingInvalidator{}
	w, err := NewWatcher(target, nil)
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(clip, []byte("v2"), 0644))
	assert.Eventually(t, func() bool { return target.seen(clip) }, 2*time.Second, 10*time.Millisecond)

	other := filepath.Join(dir, "rain.mp3")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	require.NoError(t, os.Remove(other))
	assert.Eventually(t, func() bool { return target.seen(other) }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(&recordingInvalidator{}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestMediaDirs(t *testing.T) {
	p := &model.Playlist{Windows: []model.Window{
		{Name: "a", MediaFiles: []string{"/m/a/1.mp3", "/m/a/2.mp3"}},
		{Name: "b", MediaFiles: []string{"/m/b/1.wav"}},
		{Name: "c", MediaFiles: []string{"/m/a/3.mp3"}},
	}}
	assert.Equal(t, []string{"/m/a", "/m/b"}, mediaDirs(p))
}
