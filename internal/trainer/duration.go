package trainer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Unit tokens recognised in quantity strings
var (
	minuteTokens = []string{"min"}
	secondTokens = []string{"seg"}
)

// maxDurationSeconds bounds a parsed quantity; anything longer is not a timed step
const maxDurationSeconds = 24 * 60 * 60

// ParseDuration converts a quantity string into seconds.
// "1:30" is MM:SS, "2 min" is minutes, "45 seg" is seconds. Anything else,
// including bare repetition counts, yields 0 which means the step is
// measured by elapsed time instead of counted down.
func ParseDuration(spec string) int {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(spec))

	if strings.Contains(clean, ":") {
		for _, token := range minuteTokens {
			clean = strings.ReplaceAll(clean, token, "")
		}
		parts := strings.Split(clean, ":")
		if len(parts) != 2 {
			return 0
		}
		minutes, okMin := leadingInt(parts[0])
		seconds, okSec := leadingInt(parts[1])
		if !okMin || !okSec {
			return 0
		}
		return clampDuration(minutes, seconds)
	}

	if containsAny(clean, minuteTokens) {
		minutes, ok := leadingInt(clean)
		if !ok {
			return 0
		}
		return clampDuration(minutes, 0)
	}

	if containsAny(clean, secondTokens) {
		seconds, ok := leadingInt(clean)
		if !ok {
			return 0
		}
		return clampDuration(0, seconds)
	}

	return 0
}

// FormatClock renders seconds as zero padded MM:SS
func FormatClock(seconds int) string {
	seconds = nonNegative(seconds)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// leadingInt parses the optional sign and digits at the start of s
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// clampDuration combines minutes and seconds. Negative totals become 0, and
// so does anything beyond maxDurationSeconds, checked before multiplying.
func clampDuration(minutes, seconds int) int {
	if minutes > maxDurationSeconds/60 || minutes < -maxDurationSeconds/60 {
		return 0
	}
	if seconds > maxDurationSeconds || seconds < -maxDurationSeconds {
		return 0
	}
	total := minutes*60 + seconds
	if total > maxDurationSeconds {
		return 0
	}
	return nonNegative(total)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
