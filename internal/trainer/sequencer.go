package trainer

// Step is one exercise of the day with its trailing rest
type Step struct {
	Name         string `json:"name"`
	QuantitySpec string `json:"quantity"`
	RestSpec     string `json:"rest"`
}

// Duration is the exercise length in seconds, 0 for rep based steps
func (s Step) Duration() int {
	return ParseDuration(s.QuantitySpec)
}

// RestDuration is the rest length in seconds, 0 when there is no rest
func (s Step) RestDuration() int {
	return ParseDuration(s.RestSpec)
}

// Position identifies where in the step list the session is
type Position struct {
	Index int
	Phase Phase
}

// StepSequencer resolves forward and backward moves through a step list
type StepSequencer struct {
	steps []Step
}

func NewStepSequencer(steps []Step) StepSequencer {
	copied := make([]Step, len(steps))
	copy(copied, steps)
	return StepSequencer{steps: copied}
}

func (s StepSequencer) Len() int {
	return len(s.steps)
}

// Step returns the step at index i
func (s StepSequencer) Step(i int) Step {
	return s.steps[i]
}

// HasRest reports whether a rest phase follows exercise i
func (s StepSequencer) HasRest(i int) bool {
	return s.steps[i].RestDuration() > 0
}

// PhaseDuration is the full length of the given phase in seconds
func (s StepSequencer) PhaseDuration(pos Position) int {
	if pos.Phase == PhaseRest {
		return s.steps[pos.Index].RestDuration()
	}
	return s.steps[pos.Index].Duration()
}

// Next returns the position after pos, or false when the session is complete
func (s StepSequencer) Next(pos Position) (Position, bool) {
	last := len(s.steps) - 1
	if pos.Phase == PhaseExercise && s.HasRest(pos.Index) {
		return Position{Index: pos.Index, Phase: PhaseRest}, true
	}
	if pos.Index < last {
		return Position{Index: pos.Index + 1, Phase: PhaseExercise}, true
	}
	return Position{}, false
}

// Previous returns the position before pos, or false from the first exercise
func (s StepSequencer) Previous(pos Position) (Position, bool) {
	if pos.Phase == PhaseRest {
		return Position{Index: pos.Index, Phase: PhaseExercise}, true
	}
	if pos.Index > 0 {
		return Position{Index: pos.Index - 1, Phase: PhaseExercise}, true
	}
	return pos, false
}

// NextAction labels what Next would do from pos
func (s StepSequencer) NextAction(pos Position) NextAction {
	next, ok := s.Next(pos)
	switch {
	case !ok:
		return NextActionFinish
	case next.Phase == PhaseRest:
		return NextActionRest
	default:
		return NextActionNextExercise
	}
}
