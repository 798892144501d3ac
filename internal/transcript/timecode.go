package transcript

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// zeroTimestamp is rendered for missing or unusable times.
const zeroTimestamp = "00:00:00,000"

// FormatTimestamp renders d as HH:MM:SS,mmm. Hours are unbounded and padded to
// two digits. Sub-millisecond precision is truncated, never rounded. Negative
// durations render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		return zeroTimestamp
	}
	totalMillis := int64(d / time.Millisecond)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	seconds := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// FormatSeconds renders a floating point seconds value as HH:MM:SS,mmm. NaN,
// infinite, and negative values render as 00:00:00,000.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return zeroTimestamp
	}
	return FormatTimestamp(FromSeconds(seconds))
}

// FromSeconds converts external model seconds to a Duration truncated to the
// millisecond. Unusable values become zero.
func FromSeconds(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	// Round at microsecond resolution before truncating so values like 1.001
	// are not pulled down to 1.000 by binary float error.
	micros := math.Round(seconds * 1e6)
	return (time.Duration(micros) * time.Microsecond).Truncate(time.Millisecond)
}

// Seconds converts d to floating point seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// ParseTimestamp parses HH:MM:SS,mmm (a "." separator is accepted too). It is
// the inverse of FormatTimestamp.
func ParseTimestamp(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("parse timestamp: empty value")
	}
	main, fraction, ok := strings.Cut(strings.ReplaceAll(trimmed, ".", ","), ",")
	if !ok {
		return 0, fmt.Errorf("parse timestamp %q: missing milliseconds", value)
	}
	parts := strings.Split(main, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse timestamp %q: expected HH:MM:SS,mmm", value)
	}
	hours, err := parseField(parts[0], -1)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: hours: %w", value, err)
	}
	minutes, err := parseField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: minutes: %w", value, err)
	}
	seconds, err := parseField(parts[2], 59)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: seconds: %w", value, err)
	}
	if len(fraction) == 0 || len(fraction) > 3 {
		return 0, fmt.Errorf("parse timestamp %q: milliseconds must have 1-3 digits", value)
	}
	millis, err := parseField(fraction, -1)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: milliseconds: %w", value, err)
	}
	for i := len(fraction); i < 3; i++ {
		millis *= 10
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

func parseField(value string, max int64) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric %q", value)
		}
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if max >= 0 && n > max {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}
