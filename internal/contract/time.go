package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Define the regular expression to capture "N [units]".
var durationRe = regexp.MustCompile(`^(\d+)\s+(day|hour|minute|second)s?$`)

// ParseDuration converts strings like "10 seconds" or "1m30s" into a time.Duration.
// It first tries Go's built-in time.ParseDuration for standard formats, then falls back
// to custom parsing for human-readable formats. Zero is allowed so tests and dry runs
// can disable pacing.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if duration, err := time.ParseDuration(s); err == nil {
		if duration < 0 {
			return 0, errors.New("negative duration is not allowed")
		}
		return duration, nil
	}

	s = strings.ToLower(s)
	matches := durationRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "hour")
	value, _ := strconv.Atoi(matches[1])
	switch matches[2] {
	case "day":
		return time.Duration(value) * 24 * time.Hour, nil
	case "hour":
		return time.Duration(value) * time.Hour, nil
	case "minute":
		return time.Duration(value) * time.Minute, nil
	default:
		return time.Duration(value) * time.Second, nil
	}
}
