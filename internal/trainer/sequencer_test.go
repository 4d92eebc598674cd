package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeStepDay() []Step {
	return []Step{
		{Name: "Sentadillas", QuantitySpec: "45 seg", RestSpec: "30 seg"},
		{Name: "Flexiones", QuantitySpec: "1 min", RestSpec: "30 seg"},
		{Name: "Plancha", QuantitySpec: "20 seg", RestSpec: ""},
	}
}

func TestStepSequencer_NextTraversal(t *testing.T) {
	seq := NewStepSequencer(threeStepDay())

	pos := Position{Index: 0, Phase: PhaseExercise}
	var visited []Position
	for {
		visited = append(visited, pos)
		next, ok := seq.Next(pos)
		if !ok {
			break
		}
		pos = next
	}

	assert.Equal(t, []Position{
		{0, PhaseExercise},
		{0, PhaseRest},
		{1, PhaseExercise},
		{1, PhaseRest},
		{2, PhaseExercise},
	}, visited)
}

func TestStepSequencer_LastRestCompletes(t *testing.T) {
	steps := threeStepDay()
	steps[2].RestSpec = "15 seg"
	seq := NewStepSequencer(steps)

	next, ok := seq.Next(Position{Index: 2, Phase: PhaseExercise})
	require.True(t, ok)
	assert.Equal(t, Position{Index: 2, Phase: PhaseRest}, next)

	_, ok = seq.Next(next)
	assert.False(t, ok)
}

func TestStepSequencer_Previous(t *testing.T) {
	seq := NewStepSequencer(threeStepDay())

	prev, ok := seq.Previous(Position{Index: 1, Phase: PhaseRest})
	require.True(t, ok)
	assert.Equal(t, Position{Index: 1, Phase: PhaseExercise}, prev)

	prev, ok = seq.Previous(Position{Index: 2, Phase: PhaseExercise})
	require.True(t, ok)
	assert.Equal(t, Position{Index: 1, Phase: PhaseExercise}, prev)

	prev, ok = seq.Previous(Position{Index: 0, Phase: PhaseExercise})
	assert.False(t, ok)
	assert.Equal(t, Position{Index: 0, Phase: PhaseExercise}, prev)
}

func TestStepSequencer_NextAction(t *testing.T) {
	seq := NewStepSequencer(threeStepDay())

	assert.Equal(t, NextActionRest, seq.NextAction(Position{0, PhaseExercise}))
	assert.Equal(t, NextActionNextExercise, seq.NextAction(Position{0, PhaseRest}))
	assert.Equal(t, NextActionFinish, seq.NextAction(Position{2, PhaseExercise}))
}

func TestStepSequencer_PhaseDuration(t *testing.T) {
	seq := NewStepSequencer(threeStepDay())

	assert.Equal(t, 60, seq.PhaseDuration(Position{1, PhaseExercise}))
	assert.Equal(t, 30, seq.PhaseDuration(Position{1, PhaseRest}))
	assert.False(t, seq.HasRest(2))
}
