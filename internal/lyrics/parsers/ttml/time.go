package ttml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var offsetUnits = []struct {
	suffix string
	unit   time.Duration
}{
	// "ms" before "m" and "s"
	{"ms", time.Millisecond},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// ParseTime parses a TTML time expression.
//
// Accepted forms are clock time ("1:02:03.456", "02:03.5", "3.25") and
// offset time with an h, m, s or ms metric ("12.5s", "250ms"). Frame and
// tick metrics are rejected.
func ParseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty time expression")
	}

	if strings.Contains(s, ":") {
		return parseClockTime(s)
	}

	for _, u := range offsetUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		whole, frac, err := parseDecimal(strings.TrimSuffix(s, u.suffix))
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", s, err)
		}
		// frac is in billionths of one unit
		d, err := scale(whole, u.unit)
		if err == nil {
			d, err = add(d, time.Duration(frac*int64(u.unit/time.Millisecond)/1000))
		}
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", s, err)
		}
		return d, nil
	}

	whole, frac, err := parseDecimal(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	d, err := scale(whole, time.Second)
	if err == nil {
		d, err = add(d, time.Duration(frac))
	}
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return d, nil
}

func parseClockTime(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q: frames are not supported", s)
	}

	secs, frac, err := parseDecimal(parts[len(parts)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	total, err := scale(secs, time.Second)
	if err == nil {
		total, err = add(total, time.Duration(frac))
	}
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}

	units := []time.Duration{time.Minute, time.Hour}
	for i, j := len(parts)-2, 0; i >= 0; i, j = i-1, j+1 {
		n, err := parseDigits(parts[i])
		if err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
		part, err := scale(n, units[j])
		if err == nil {
			total, err = add(total, part)
		}
		if err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
	}
	return total, nil
}

var errTimeRange = errors.New("time out of range")

func scale(n int64, unit time.Duration) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) {
		return 0, errTimeRange
	}
	return time.Duration(n) * unit, nil
}

func add(a, b time.Duration) (time.Duration, error) {
	if a > math.MaxInt64-b {
		return 0, errTimeRange
	}
	return a + b, nil
}

// parseDecimal splits "12.345" into 12 and the fraction in nanos (345000000).
// Digits past the ninth are dropped.
func parseDecimal(s string) (int64, int64, error) {
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	whole, err := parseDigits(intPart)
	if err != nil {
		return 0, 0, err
	}
	if !hasDot {
		return whole, 0, nil
	}
	if fracPart == "" {
		return 0, 0, errors.New("missing fraction digits")
	}
	if err := checkDigits(fracPart); err != nil {
		return 0, 0, err
	}
	if len(fracPart) > 9 {
		fracPart = fracPart[:9]
	}
	frac, err := parseDigits(fracPart)
	if err != nil {
		return 0, 0, err
	}
	for i := len(fracPart); i < 9; i++ {
		frac *= 10
	}
	return whole, frac, nil
}

func parseDigits(s string) (int64, error) {
	if err := checkDigits(s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

func checkDigits(s string) error {
	if s == "" {
		return errors.New("missing digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("unexpected character %q", r)
		}
	}
	return nil
}
