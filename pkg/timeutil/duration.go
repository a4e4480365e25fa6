package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	segmentPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	unitMap        = map[string]time.Duration{
		"ms":      time.Millisecond,
		"msec":    time.Millisecond,
		"millis":  time.Millisecond,
		"s":       time.Second,
		"sec":     time.Second,
		"secs":    time.Second,
		"second":  time.Second,
		"seconds": time.Second,
		"m":       time.Minute,
		"min":     time.Minute,
		"mins":    time.Minute,
		"minute":  time.Minute,
		"minutes": time.Minute,
		"h":       time.Hour,
		"hr":      time.Hour,
		"hour":    time.Hour,
		"hours":   time.Hour,
	}
)

// ParseInterval parses a short human duration such as "3s", "1500ms" or
// "1m30s". Empty input yields fallback. A bare number is read as
// milliseconds.
func ParseInterval(input string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return fallback, nil
	}
	if ms, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("interval must be greater than zero")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	remaining := trimmed
	total := time.Duration(0)
	for len(remaining) > 0 {
		matches := segmentPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return 0, fmt.Errorf("invalid interval segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid interval value %q: %w", matches[1], err)
		}
		base, ok := unitMap[matches[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported interval unit %q", matches[2])
		}
		total += time.Duration(value) * base
		remaining = remaining[len(matches[0]):]
	}

	if total <= 0 {
		return 0, fmt.Errorf("interval must be greater than zero")
	}
	return total, nil
}

// FormatInterval renders d with h/m/s/ms tokens, largest first.
func FormatInterval(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	units := []struct {
		label string
		value time.Duration
	}{
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
		{"ms", time.Millisecond},
	}

	var parts []string
	remaining := d
	for _, u := range units {
		if remaining < u.value {
			continue
		}
		count := remaining / u.value
		remaining -= count * u.value
		parts = append(parts, fmt.Sprintf("%d%s", count, u.label))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, "")
}
