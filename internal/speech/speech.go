// Package speech reads message text aloud. Playback is fire-and-forget.
package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned by Nop when no speech backend is configured.
var ErrUnsupported = errors.New("text-to-speech is not configured")

// Speaker starts reading text aloud and returns without waiting for playback.
type Speaker interface {
	Speak(text string) error
}

// Nop is the Speaker used when no command is configured.
type Nop struct{}

func (Nop) Speak(string) error { return ErrUnsupported }

// CommandSpeaker runs an external synthesizer such as `espeak-ng -v km`, passing the text
// as the last argument. Starting a new utterance stops the previous one.
type CommandSpeaker struct {
	name string
	args []string
	log  *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCommandSpeaker parses command into a program and its leading arguments.
func NewCommandSpeaker(command string, logger *zerolog.Logger) (*CommandSpeaker, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrUnsupported
	}
	return &CommandSpeaker{name: fields[0], args: fields[1:], log: logger}, nil
}

// Speak stops any utterance in progress and starts a new one.
func (s *CommandSpeaker) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	args := append(append([]string(nil), s.args...), text)
	cmd := exec.CommandContext(ctx, s.name, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		s.cancel = nil
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Str("command", s.name).Msg("speech command failed")
		}
	}()
	return nil
}

// Close stops playback and waits for the command to exit.
func (s *CommandSpeaker) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}
