package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-03", domain.MonthKey("2024-03-05T14:30:00Z"))
	assert.Equal(t, "2024-01", domain.MonthKey("2024-01-31"))
	assert.Equal(t, "0999-12", domain.MonthKey("0999-12-01"))
	assert.Equal(t, domain.UnknownPeriod, domain.MonthKey("not a date"))
	assert.Equal(t, domain.UnknownPeriod, domain.MonthKey(""))
}

func TestWeekKey(t *testing.T) {
	// ISO weeks run Monday to Sunday.
	assert.Equal(t, "2024-W10", domain.WeekKey("2024-03-05T14:30:00Z"))
	// Early January can belong to the previous ISO year.
	assert.Equal(t, "2020-W53", domain.WeekKey("2021-01-01"))
	assert.Equal(t, domain.UnknownPeriod, domain.WeekKey("not a date"))
}

func TestPeriodKeyFor(t *testing.T) {
	ticket := domain.Ticket{
		CreatedDate: "2024-03-05T14:30:00Z",
		YearMonth:   "2024-03",
	}

	assert.Equal(t, "2024-03", domain.PeriodKeyFor(ticket, domain.GranularityMonthly))
	assert.Equal(t, "2024-W10", domain.PeriodKeyFor(ticket, domain.GranularityWeekly))

	// Monthly falls back to computing the key when normalization did not run.
	assert.Equal(t, "2024-03", domain.PeriodKeyFor(domain.Ticket{CreatedDate: "2024-03-05"}, domain.GranularityMonthly))
}

func TestNextPeriod(t *testing.T) {
	t.Run("monthly", func(t *testing.T) {
		assert.Equal(t, "2024-02", domain.NextPeriod("2024-01"))
		assert.Equal(t, "2025-01", domain.NextPeriod("2024-12"))
	})

	t.Run("weekly", func(t *testing.T) {
		assert.Equal(t, "2024-W02", domain.NextPeriod("2024-W01"))
		assert.Equal(t, "2025-W01", domain.NextPeriod("2024-W52"))
	})

	t.Run("malformed keys pass through unchanged", func(t *testing.T) {
		assert.Equal(t, domain.UnknownPeriod, domain.NextPeriod(domain.UnknownPeriod))
		assert.Equal(t, "garbage", domain.NextPeriod("garbage"))
	})
}

func TestAdvancePeriod(t *testing.T) {
	assert.Equal(t, "2024-01", domain.AdvancePeriod("2024-01", 0))
	assert.Equal(t, "2024-04", domain.AdvancePeriod("2024-01", 3))
	assert.Equal(t, "2025-W02", domain.AdvancePeriod("2024-W51", 3))
}

func TestParseTimestamp(t *testing.T) {
	for _, input := range []string{
		"2024-03-05T14:30:00Z",
		"2024-03-05T14:30:00",
		"2024-03-05 14:30:00",
		"2024-03-05",
	} {
		_, ok := domain.ParseTimestamp(input)
		assert.True(t, ok, "expected %q to parse", input)
	}

	_, ok := domain.ParseTimestamp("05/03/2024 garbage")
	assert.False(t, ok)
}

func TestIsWeekPeriod(t *testing.T) {
	assert.True(t, domain.IsWeekPeriod("2024-W01"))
	assert.False(t, domain.IsWeekPeriod("2024-01"))
}

func TestValidGranularity(t *testing.T) {
	assert.True(t, domain.ValidGranularity(domain.GranularityMonthly))
	assert.True(t, domain.ValidGranularity(domain.GranularityWeekly))
	assert.False(t, domain.ValidGranularity("daily"))
}
