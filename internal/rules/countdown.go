package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// InvalidCountdown is rendered when the remaining time cannot be shown.
const InvalidCountdown = "--:--"

var countdownPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)

// FormatCountdown renders remaining seconds as "MM:SS". Fractional
// seconds truncate toward zero. Negative, NaN or infinite input yields
// InvalidCountdown.
func FormatCountdown(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return InvalidCountdown
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ParseCountdown converts an "MM:SS" string back to seconds. It accepts
// only digits on both sides with exactly two seconds digits below 60 and
// returns -1 for anything else.
func ParseCountdown(text string) int {
	m := countdownPattern.FindStringSubmatch(text)
	if m == nil {
		return -1
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil || seconds >= 60 {
		return -1
	}
	return minutes*60 + seconds
}
