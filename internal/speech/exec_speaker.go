// Package speech speaks cues through an external text to speech command.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/lowaak/guided-trainer/internal/go_func_utils"
	"github.com/lowaak/guided-trainer/internal/trainer"
)

// knownCommands are tried in order when no command is configured
var knownCommands = []string{"espeak-ng", "espeak", "say", "spd-say"}

// ExecSpeaker runs "<command> <args...> <text>" for every utterance.
// It implements trainer.Speaker.
type ExecSpeaker struct {
	path   string
	args   []string
	logger *log.Logger

	wg sync.WaitGroup
}

// NewExecSpeaker resolves command on PATH. An empty command picks the first
// known speech command installed.
func NewExecSpeaker(command string, args []string, logger *log.Logger) (*ExecSpeaker, error) {
	if logger == nil {
		panic("ExecSpeaker: logger cannot be nil")
	}
	if command == "" {
		detected, err := DetectCommand()
		if err != nil {
			return nil, err
		}
		command = detected
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", trainer.ErrSpeechUnavailable, command, err)
	}
	logger.Printf("ExecSpeaker: Using %s %v", path, args)
	return &ExecSpeaker{
		path:   path,
		args:   append([]string(nil), args...),
		logger: logger,
	}, nil
}

// DetectCommand returns the first known speech command found on PATH
func DetectCommand() (string, error) {
	for _, name := range knownCommands {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: none of %v installed", trainer.ErrSpeechUnavailable, knownCommands)
}

// DefaultArgs picks a voice for lang on the commands that take one
func DefaultArgs(command, lang string) []string {
	switch filepath.Base(command) {
	case "espeak-ng", "espeak":
		return []string{"-v", lang}
	case "spd-say":
		return []string{"-w", "-l", lang}
	default:
		return nil
	}
}

// Speak starts the command and calls done when it exits. Cancelling kills
// the process; done then receives context.Canceled.
func (s *ExecSpeaker) Speak(text string, done func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.path, append(append([]string(nil), s.args...), text)...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: starting %s: %v", trainer.ErrSpeechUnavailable, s.path, err)
	}

	s.wg.Add(1)
	go_func_utils.SafeGo(s.logger, "ExecSpeaker", func() {
		defer s.wg.Done()
		err := cmd.Wait()
		if ctx.Err() != nil {
			err = context.Canceled
		} else {
			cancel()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("ExecSpeaker: %s exited: %v", filepath.Base(s.path), err)
		}
		if done != nil {
			done(err)
		}
	})
	return cancel, nil
}

// Wait blocks until every started utterance has finished
func (s *ExecSpeaker) Wait() {
	s.wg.Wait()
}
