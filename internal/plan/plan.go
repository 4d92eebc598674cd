// Package plan loads training programs from YAML and flattens a day into the
// ordered step list the session engine runs.
package plan

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lowaak/guided-trainer/internal/trainer"
)

var (
	ErrWeekNotFound   = errors.New("week not found")
	ErrDayNotFound    = errors.New("day not found")
	ErrInvalidMeasure = errors.New("invalid measure")
	ErrInvalidRepeat  = errors.New("invalid block repeat")
)

// Measure is how a step's amount is interpreted
type Measure string

const (
	MeasureMinutes Measure = "minutes"
	MeasureSeconds Measure = "seconds"
	MeasureReps    Measure = "reps"
)

//go:embed default_plan.yaml
var defaultPlan []byte

type Program struct {
	Name  string `yaml:"program"`
	Weeks []Week `yaml:"weeks"`
}

type Week struct {
	Number int    `yaml:"number"`
	Title  string `yaml:"title"`
	Days   []Day  `yaml:"days"`
}

type Day struct {
	Name      string     `yaml:"name"`
	Notes     string     `yaml:"notes"`
	Blocks    []Block    `yaml:"blocks"`
	Exercises []Exercise `yaml:"exercises"`
}

// Block is a group of steps run Repeat times in a row
type Block struct {
	Repeat *int       `yaml:"repeat"`
	Steps  []PlanStep `yaml:"steps"`
}

type PlanStep struct {
	Exercise    string  `yaml:"exercise"`
	Measure     Measure `yaml:"measure"`
	Amount      int     `yaml:"amount"`
	RestSeconds int     `yaml:"rest_seconds"`
}

// Exercise is a free-form step whose quantity and rest are written as text
type Exercise struct {
	Name        string `yaml:"name"`
	Repetitions string `yaml:"repetitions"`
	Rest        string `yaml:"rest"`
}

// Load reads a program from path, or the bundled program when path is empty
func Load(path string) (*Program, error) {
	data := defaultPlan
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading plan file: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a program
func Parse(data []byte) (*Program, error) {
	p := &Program{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("plan validation: %w", err)
	}
	return p, nil
}

func (p *Program) validate() error {
	seen := make(map[int]bool)
	for _, w := range p.Weeks {
		if w.Number <= 0 {
			return fmt.Errorf("week number must be positive, got %d", w.Number)
		}
		if seen[w.Number] {
			return fmt.Errorf("week %d defined twice", w.Number)
		}
		seen[w.Number] = true

		for _, d := range w.Days {
			if strings.TrimSpace(d.Name) == "" {
				return fmt.Errorf("week %d: day without a name", w.Number)
			}
			for _, b := range d.Blocks {
				if b.Repeat != nil && *b.Repeat < 0 {
					return fmt.Errorf("week %d, %s: %w: %d", w.Number, d.Name, ErrInvalidRepeat, *b.Repeat)
				}
				for _, s := range b.Steps {
					if _, err := s.quantity(); err != nil {
						return fmt.Errorf("week %d, %s, %s: %w", w.Number, d.Name, s.Exercise, err)
					}
				}
			}
		}
	}
	return nil
}

// Week returns the week with the given number
func (p *Program) Week(number int) (*Week, error) {
	for i := range p.Weeks {
		if p.Weeks[i].Number == number {
			return &p.Weeks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrWeekNotFound, number)
}

// Day returns the named day of a week, matched case-insensitively
func (p *Program) Day(week int, name string) (*Day, error) {
	w, err := p.Week(week)
	if err != nil {
		return nil, err
	}
	for i := range w.Days {
		if strings.EqualFold(strings.TrimSpace(w.Days[i].Name), strings.TrimSpace(name)) {
			return &w.Days[i], nil
		}
	}
	return nil, fmt.Errorf("%w: week %d has no %q", ErrDayNotFound, week, name)
}

// Steps flattens a day: every block repeated in order, then the free-form exercises
func (d *Day) Steps() ([]trainer.Step, error) {
	var steps []trainer.Step
	for _, b := range d.Blocks {
		repeat := 1
		if b.Repeat != nil {
			repeat = *b.Repeat
		}
		if repeat < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidRepeat, repeat)
		}
		for i := 0; i < repeat; i++ {
			for _, s := range b.Steps {
				step, err := s.toStep()
				if err != nil {
					return nil, err
				}
				steps = append(steps, step)
			}
		}
	}
	for _, e := range d.Exercises {
		steps = append(steps, trainer.Step{
			Name:         e.Name,
			QuantitySpec: e.Repetitions,
			RestSpec:     e.Rest,
		})
	}
	return steps, nil
}

// Guided reports whether the day has anything for the player to run
func (d *Day) Guided() bool {
	return len(d.Blocks) > 0 || len(d.Exercises) > 0
}

func (s PlanStep) toStep() (trainer.Step, error) {
	quantity, err := s.quantity()
	if err != nil {
		return trainer.Step{}, fmt.Errorf("%s: %w", s.Exercise, err)
	}
	return trainer.Step{
		Name:         s.Exercise,
		QuantitySpec: quantity,
		RestSpec:     strconv.Itoa(s.RestSeconds) + " seg",
	}, nil
}

func (s PlanStep) quantity() (string, error) {
	amount := strconv.Itoa(s.Amount)
	switch Measure(strings.ToLower(string(s.Measure))) {
	case MeasureMinutes:
		return amount + " min", nil
	case MeasureSeconds:
		return amount + " seg", nil
	case MeasureReps:
		return amount, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMeasure, s.Measure)
	}
}
