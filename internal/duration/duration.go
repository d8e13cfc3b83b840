package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrMalformedDuration reports text that does not follow the <n><unit> grammar.
	ErrMalformedDuration = errors.New("malformed duration")
	// ErrNonPositiveDuration reports a well-formed duration that evaluates to zero.
	ErrNonPositiveDuration = errors.New("duration must be greater than zero")
	// ErrDurationTooLong reports a duration that does not fit in a time.Duration.
	ErrDurationTooLong = errors.New("duration too long")
)

// MaxSeconds is the longest timeout or period accepted, about 292 years.
const MaxSeconds = math.MaxInt64 / int64(time.Second)

// Grammar is a short human description of the accepted syntax, used in error hints.
const Grammar = "one or more <number><unit> fields, unit one of s, m, h, d (e.g. 90s, 15m, 1d2h)"

var unitSeconds = map[rune]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
}

// Parse converts a duration specification into seconds.
func Parse(text string) (int64, error) {
	runes := []rune(text)
	var total int64
	fields := 0
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
		if start == i {
			return 0, malformed(text, "expected a number at position %d", start)
		}
		magnitude, err := strconv.ParseInt(string(runes[start:i]), 10, 64)
		if err != nil {
			return 0, malformed(text, "number %q out of range", string(runes[start:i]))
		}
		if i >= len(runes) {
			return 0, malformed(text, "missing unit after %d", magnitude)
		}
		factor, ok := unitSeconds[runes[i]]
		if !ok {
			return 0, malformed(text, "unknown unit %q", string(runes[i]))
		}
		i++
		if magnitude > (math.MaxInt64-total)/factor {
			return 0, malformed(text, "value overflows")
		}
		total += magnitude * factor
		fields++
	}
	if fields == 0 {
		return 0, malformed(text, "no duration fields")
	}
	return total, nil
}

// ParsePositive parses text and rejects results outside 1..MaxSeconds.
func ParsePositive(text string) (int64, error) {
	seconds, err := Parse(text)
	if err != nil {
		return 0, err
	}
	if err := CheckRange(seconds); err != nil {
		return 0, fmt.Errorf("%q: %w", strings.TrimSpace(text), err)
	}
	return seconds, nil
}

// CheckRange rejects seconds that are not positive or exceed MaxSeconds.
func CheckRange(seconds int64) error {
	switch {
	case seconds <= 0:
		return ErrNonPositiveDuration
	case seconds > MaxSeconds:
		return fmt.Errorf("%w: %ds exceeds the maximum of %ds", ErrDurationTooLong, seconds, MaxSeconds)
	}
	return nil
}

// Format renders seconds in the canonical compact form, largest unit first.
func Format(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, unit := range []struct {
		suffix byte
		size   int64
	}{
		{'d', 86400},
		{'h', 3600},
		{'m', 60},
		{'s', 1},
	} {
		if seconds < unit.size {
			continue
		}
		b.WriteString(strconv.FormatInt(seconds/unit.size, 10))
		b.WriteByte(unit.suffix)
		seconds %= unit.size
	}
	return b.String()
}

func malformed(text, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedDuration, text, fmt.Sprintf(format, args...))
}
