package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type classifies a filing period.
type Type string

const (
	TypeMonth   Type = "month"
	TypeQuarter Type = "quarter"
	TypeYear    Type = "year"
	TypeCustom  Type = "custom"
	TypeAdhoc   Type = "adhoc"
)

// IsValid reports whether t is a known period type.
func (t Type) IsValid() bool {
	switch t {
	case TypeMonth, TypeQuarter, TypeYear, TypeCustom, TypeAdhoc:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

var ErrInvalidPeriod = errors.New("invalid_period")

// Range is a half-open UTC interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve converts a (periodType, periodKey) pair into a concrete interval.
// Key grammars:
//
//	month:   YYYY-MM
//	quarter: YYYY-Qn (n in 1..4)
//	year:    YYYY
//	custom:  YYYY-MM_YYYY-MM       (both months inclusive)
//	adhoc:   YYYY-MM-DD_YYYY-MM-DD (both days inclusive)
//
// All boundaries are first instants in UTC.
func Resolve(periodType Type, periodKey string) (Range, error) {
	periodKey = strings.TrimSpace(periodKey)
	if periodKey == "" {
		return Range{}, fmt.Errorf("%w: empty period key", ErrInvalidPeriod)
	}

	switch periodType {
	case TypeMonth:
		start, err := parseMonth(periodKey)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil

	case TypeQuarter:
		year, quarter, err := parseQuarter(periodKey)
		if err != nil {
			return Range{}, err
		}
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 3, 0)}, nil

	case TypeYear:
		year, err := strconv.Atoi(periodKey)
		if err != nil || len(periodKey) != 4 || year < 1 {
			return Range{}, fmt.Errorf("%w: year key %q", ErrInvalidPeriod, periodKey)
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil

	case TypeCustom:
		from, to, ok := splitRangeKey(periodKey)
		if !ok {
			return Range{}, fmt.Errorf("%w: custom key %q", ErrInvalidPeriod, periodKey)
		}
		return ResolveCustom(from, to)

	case TypeAdhoc:
		from, to, ok := splitRangeKey(periodKey)
		if !ok {
			return Range{}, fmt.Errorf("%w: adhoc key %q", ErrInvalidPeriod, periodKey)
		}
		return resolveAdhoc(from, to)

	default:
		return Range{}, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriod, periodType)
	}
}

// ResolveCustom resolves an explicit month-token pair. The interval covers
// rangeFrom's month through rangeTo's month, both inclusive.
func ResolveCustom(rangeFrom, rangeTo string) (Range, error) {
	rangeFrom = strings.TrimSpace(rangeFrom)
	rangeTo = strings.TrimSpace(rangeTo)
	if rangeFrom == "" || rangeTo == "" {
		return Range{}, fmt.Errorf("%w: custom range requires both bounds", ErrInvalidPeriod)
	}

	start, err := parseMonth(rangeFrom)
	if err != nil {
		return Range{}, err
	}
	toStart, err := parseMonth(rangeTo)
	if err != nil {
		return Range{}, err
	}
	end := toStart.AddDate(0, 1, 0)
	if !start.Before(end) {
		return Range{}, fmt.Errorf("%w: range %s_%s is reversed", ErrInvalidPeriod, rangeFrom, rangeTo)
	}
	return Range{Start: start, End: end}, nil
}

// CustomKey canonicalizes a custom month range into its period key form.
func CustomKey(rangeFrom, rangeTo string) string {
	return strings.TrimSpace(rangeFrom) + "_" + strings.TrimSpace(rangeTo)
}

func resolveAdhoc(from, to string) (Range, error) {
	start, err := time.ParseInLocation("2006-01-02", from, time.UTC)
	if err != nil {
		return Range{}, fmt.Errorf("%w: day token %q", ErrInvalidPeriod, from)
	}
	toDay, err := time.ParseInLocation("2006-01-02", to, time.UTC)
	if err != nil {
		return Range{}, fmt.Errorf("%w: day token %q", ErrInvalidPeriod, to)
	}
	end := toDay.AddDate(0, 0, 1)
	if !start.Before(end) {
		return Range{}, fmt.Errorf("%w: range %s_%s is reversed", ErrInvalidPeriod, from, to)
	}
	return Range{Start: start, End: end}, nil
}

func splitRangeKey(key string) (string, string, bool) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func parseMonth(token string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", token, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month token %q", ErrInvalidPeriod, token)
	}
	return t, nil
}

func parseQuarter(key string) (int, int, error) {
	parts := strings.SplitN(key, "-Q", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: quarter key %q", ErrInvalidPeriod, key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 || year < 1 {
		return 0, 0, fmt.Errorf("%w: quarter key %q", ErrInvalidPeriod, key)
	}
	quarter, err := strconv.Atoi(parts[1])
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, 0, fmt.Errorf("%w: quarter key %q", ErrInvalidPeriod, key)
	}
	return year, quarter, nil
}
