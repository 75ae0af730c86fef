package speech

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	assert.ErrorIs(t, Nop{}.Speak("hello"), ErrUnsupported)
}

func TestNewCommandSpeakerEmpty(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewCommandSpeaker("   ", &logger)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCommandSpeakerPassesText(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "spoken.txt")
	script := filepath.Join(dir, "say.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf '%s' \"$2\" > \"$1\"\n"), 0o700))

	logger := zerolog.Nop()
	s, err := NewCommandSpeaker(script+" "+out, &logger)
	require.NoError(t, err)

	require.NoError(t, s.Speak("  sua s'dei  "))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && string(data) == "sua s'dei"
	}, 5*time.Second, 10*time.Millisecond)
	s.Close()
}

func TestCommandSpeakerInterruptsPrevious(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}

	logger := zerolog.Nop()
	s, err := NewCommandSpeaker(sleep, &logger)
	require.NoError(t, err)

	require.NoError(t, s.Speak("30"))
	require.NoError(t, s.Speak("30"))

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop playback")
	}
}

func TestCommandSpeakerMissingBinary(t *testing.T) {
	logger := zerolog.Nop()
	s, err := NewCommandSpeaker("pollchat-no-such-synth", &logger)
	require.NoError(t, err)
	assert.Error(t, s.Speak("hello"))
	assert.NoError(t, s.Speak("   "))
}
