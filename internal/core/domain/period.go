package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity selects the calendar bucket size for time-series aggregation.
type Granularity string

const (
	GranularityMonthly Granularity = "monthly"
	GranularityWeekly  Granularity = "weekly"
)

// ValidGranularity reports whether g is a supported bucket size.
func ValidGranularity(g Granularity) bool {
	return g == GranularityMonthly || g == GranularityWeekly
}

// UnknownPeriod is the sentinel period key for unparseable timestamps.
const UnknownPeriod = UnknownLabel

// Timestamp layouts accepted when deriving period keys. Normalization emits
// RFC3339, but raw fallback strings may still carry other shapes.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored ticket timestamp. The boolean is false when
// none of the accepted layouts match.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthKey derives the "YYYY-MM" period key for a timestamp string.
// Unparseable input yields UnknownPeriod.
func MonthKey(timestamp string) string {
	t, ok := ParseTimestamp(timestamp)
	if !ok {
		return UnknownPeriod
	}
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// WeekKey derives the "YYYY-Www" period key for a timestamp string using ISO
// week numbering (weeks run Monday to Sunday; the week containing the year's
// first Thursday is week 1). Unparseable input yields UnknownPeriod.
func WeekKey(timestamp string) string {
	t, ok := ParseTimestamp(timestamp)
	if !ok {
		return UnknownPeriod
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// PeriodKeyFor derives the period key for a ticket at the given granularity.
// The monthly key reuses the value precomputed during normalization.
func PeriodKeyFor(t Ticket, g Granularity) string {
	if g == GranularityWeekly {
		return WeekKey(t.CreatedDate)
	}
	if t.YearMonth != "" {
		return t.YearMonth
	}
	return MonthKey(t.CreatedDate)
}

// IsWeekPeriod reports whether a period key is in week form ("YYYY-Www").
func IsWeekPeriod(key string) bool {
	return strings.Contains(key, "W")
}

// NextPeriod advances a period key by exactly one unit of its granularity.
// Months roll over at 12; weeks roll over at 52. Week numbering wraps at 52
// even though ISO years may contain a 53rd week; that sequencing quirk is
// long-standing dashboard behavior and is kept deliberately.
func NextPeriod(key string) string {
	if IsWeekPeriod(key) {
		year, week, ok := splitWeekKey(key)
		if !ok {
			return key
		}
		week++
		if week > 52 {
			week = 1
			year++
		}
		return fmt.Sprintf("%04d-W%02d", year, week)
	}

	year, month, ok := splitMonthKey(key)
	if !ok {
		return key
	}
	month++
	if month > 12 {
		month = 1
		year++
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// AdvancePeriod returns the period key n steps after key.
func AdvancePeriod(key string, n int) string {
	for i := 0; i < n; i++ {
		key = NextPeriod(key)
	}
	return key
}

func splitWeekKey(key string) (year, week int, ok bool) {
	parts := strings.SplitN(key, "-W", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return year, week, true
}

func splitMonthKey(key string) (year, month int, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return year, month, true
}
