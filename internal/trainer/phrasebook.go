package trainer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Phrasebook renders spoken cues in one language
type Phrasebook interface {
	Language() string
	SpokenDuration(seconds int) string
	// Repetitions renders a rep spec, "" when it cannot be spoken
	Repetitions(spec string) string
	Rest(spokenDuration string) string
	// Countdown is the reminder at a threshold of remaining seconds
	Countdown(remaining int) string
}

var (
	sprintPattern      = regexp.MustCompile(`(?i)^sprint\s+(\d+)\s*m$`)
	metresPattern      = regexp.MustCompile(`(?i)(\d+)\s*m\b`)
	seriesPattern      = regexp.MustCompile(`(?i)^(\d+)\s*x\s*(\d+)\s*$`)
	progressionKeyword = "progresión de menos a más"
)

// PhrasebookFor returns the phrasebook for a language code, Spanish by default
func PhrasebookFor(lang string) Phrasebook {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "english":
		return englishPhrasebook{}
	default:
		return spanishPhrasebook{}
	}
}

// SpokenExerciseName expands distance abbreviations so they read naturally
func SpokenExerciseName(name string) string {
	if m := sprintPattern.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
		return "Sprint " + m[1] + " metros"
	}
	if strings.Contains(strings.ToLower(name), progressionKeyword) {
		replaced := false
		return metresPattern.ReplaceAllStringFunc(name, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			return metresPattern.FindStringSubmatch(match)[1] + " metros"
		})
	}
	return name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type spanishPhrasebook struct{}

func (spanishPhrasebook) Language() string { return "es" }

func (spanishPhrasebook) SpokenDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	minutes, rest := seconds/60, seconds%60
	if minutes == 0 {
		return fmt.Sprintf("%d %s", rest, plural(rest, "segundo", "segundos"))
	}
	minuteStr := fmt.Sprintf("%d %s", minutes, plural(minutes, "minuto", "minutos"))
	switch rest {
	case 0:
		return minuteStr
	case 30:
		return minuteStr + " y medio"
	default:
		return fmt.Sprintf("%s y %d %s", minuteStr, rest, plural(rest, "segundo", "segundos"))
	}
}

func (spanishPhrasebook) Repetitions(spec string) string {
	spec = strings.TrimSpace(spec)
	if m := seriesPattern.FindStringSubmatch(spec); m != nil {
		return fmt.Sprintf("%s series de %s repeticiones", m[1], m[2])
	}
	if n, err := strconv.Atoi(spec); err == nil && n >= 0 {
		return fmt.Sprintf("%d %s", n, plural(n, "repetición", "repeticiones"))
	}
	return ""
}

func (spanishPhrasebook) Rest(spokenDuration string) string {
	return "Descanso de " + spokenDuration
}

func (spanishPhrasebook) Countdown(remaining int) string {
	switch remaining {
	case 60:
		return "Quedan 60 segundos"
	case 30:
		return "30 segundos, ya queda poco"
	case 10:
		return "10 segundos, ya terminamos. ¡Ánimo!"
	}
	return ""
}

type englishPhrasebook struct{}

func (englishPhrasebook) Language() string { return "en" }

func (englishPhrasebook) SpokenDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	minutes, rest := seconds/60, seconds%60
	if minutes == 0 {
		return fmt.Sprintf("%d %s", rest, plural(rest, "second", "seconds"))
	}
	minuteStr := fmt.Sprintf("%d %s", minutes, plural(minutes, "minute", "minutes"))
	switch rest {
	case 0:
		return minuteStr
	case 30:
		return minuteStr + " and a half"
	default:
		return fmt.Sprintf("%s and %d %s", minuteStr, rest, plural(rest, "second", "seconds"))
	}
}

func (englishPhrasebook) Repetitions(spec string) string {
	spec = strings.TrimSpace(spec)
	if m := seriesPattern.FindStringSubmatch(spec); m != nil {
		return fmt.Sprintf("%s sets of %s repetitions", m[1], m[2])
	}
	if n, err := strconv.Atoi(spec); err == nil && n >= 0 {
		return fmt.Sprintf("%d %s", n, plural(n, "repetition", "repetitions"))
	}
	return ""
}

func (englishPhrasebook) Rest(spokenDuration string) string {
	return "Rest for " + spokenDuration
}

func (englishPhrasebook) Countdown(remaining int) string {
	switch remaining {
	case 60:
		return "60 seconds left"
	case 30:
		return "30 seconds, almost there"
	case 10:
		return "10 seconds, nearly done. Keep going!"
	}
	return ""
}

// entryCue is spoken when a phase starts, "" when nothing should be said
func entryCue(pb Phrasebook, step Step, phase Phase, duration int) string {
	if phase == PhaseRest {
		if duration <= 0 {
			return ""
		}
		return pb.Rest(pb.SpokenDuration(duration))
	}

	text := SpokenExerciseName(step.Name)
	if duration > 0 {
		if spoken := pb.SpokenDuration(duration); spoken != "" {
			text += ", " + spoken
		}
		return text
	}
	if reps := pb.Repetitions(step.QuantitySpec); reps != "" {
		text += ", " + reps
	}
	return text
}

// tickCue is spoken after a countdown decrement, "" for silence
func tickCue(pb Phrasebook, step Step, phase Phase, bounded bool, timeLeft int, countdownSet ExerciseSet) string {
	if !bounded {
		return ""
	}
	if phase == PhaseRest {
		if timeLeft >= 1 && timeLeft <= restCountdownFrom {
			return strconv.Itoa(timeLeft)
		}
		return ""
	}
	if !countdownSet.Contains(step.Name) {
		return ""
	}
	for _, threshold := range countdownThresholds {
		if timeLeft == threshold {
			return pb.Countdown(threshold)
		}
	}
	return ""
}
