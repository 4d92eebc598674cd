package trainer

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the half of a step the session is in
type Phase int

const (
	PhaseExercise Phase = iota // Performing the step's exercise
	PhaseRest                  // Resting after the exercise
)

func (p Phase) String() string {
	switch p {
	case PhaseExercise:
		return "EXERCISE"
	case PhaseRest:
		return "REST"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText encodes the phase with its wire name
func (p Phase) MarshalText() ([]byte, error) {
	switch p {
	case PhaseExercise, PhaseRest:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("unknown phase %d", int(p))
}

// UnmarshalText accepts the wire names EXERCISE and REST
func (p *Phase) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "EXERCISE":
		*p = PhaseExercise
	case "REST":
		*p = PhaseRest
	default:
		return fmt.Errorf("unknown phase %q", string(text))
	}
	return nil
}

// SessionStatus is the lifecycle state of a SessionController
type SessionStatus int

const (
	SessionStatusIdle      SessionStatus = iota // Created, not started
	SessionStatusRunning                        // Stepping through the list
	SessionStatusCompleted                      // Ran past the last step
	SessionStatusClosed                         // Closed by the user
	SessionStatusExited                         // Paused and exited, snapshot emitted
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusIdle:
		return "idle"
	case SessionStatusRunning:
		return "running"
	case SessionStatusCompleted:
		return "completed"
	case SessionStatusClosed:
		return "closed"
	case SessionStatusExited:
		return "exited"
	default:
		return fmt.Sprintf("SessionStatus(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusClosed || s == SessionStatusExited
}

// CloseReason tells the listener why the session ended
type CloseReason string

const (
	CloseReasonCompleted      CloseReason = "completed"
	CloseReasonClosedManually CloseReason = "closed_manually"
)

// NextAction is what the "next" command will lead to from the current position
type NextAction string

const (
	NextActionRest         NextAction = "rest"
	NextActionNextExercise NextAction = "next_exercise"
	NextActionFinish       NextAction = "finish"
)

// Default exercise sets
var (
	// DefaultTrackableExercises record a GPS route while running
	DefaultTrackableExercises = []string{"carrera suave", "carrera continua"}

	// DefaultCountdownCueExercises get 60/30/10 second reminders
	DefaultCountdownCueExercises = []string{"carrera continua", "saltos a la comba", "carrera suave"}
)

const (
	TickInterval              = 1 * time.Second
	DefaultLocationFixTimeout = 15 * time.Second
)

// countdownThresholds are the remaining seconds that trigger a reminder
var countdownThresholds = []int{60, 30, 10}

// restCountdownFrom is where the spoken rest countdown begins
const restCountdownFrom = 10

// ExerciseSet is a case-insensitive set of exercise names
type ExerciseSet map[string]struct{}

// NewExerciseSet builds a set from display names
func NewExerciseSet(names ...string) ExerciseSet {
	set := make(ExerciseSet, len(names))
	for _, name := range names {
		set[normalizeExerciseName(name)] = struct{}{}
	}
	return set
}

// Contains matches after trimming and lowercasing
func (s ExerciseSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[normalizeExerciseName(name)]
	return ok
}

func normalizeExerciseName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
