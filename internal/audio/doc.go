// Package audio provides ambient clip playback.
// It uses the beep library to play WAV, OGG, and MP3 audio files
// synchronously, with volume control and an optional decoded-clip cache
// that is invalidated when files change on disk.
package audio
