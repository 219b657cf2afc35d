package stats

import (
	"sort"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

// FillGaps expands a sparse set of (period, value) observations into the full
// contiguous sequence from the earliest to the latest observed period,
// inserting zero-valued entries for absent periods. Sparse charts would
// otherwise misrepresent trends and break line continuity.
//
// All input points must share one granularity (all month-form or all
// week-form). Mixed input is a caller bug, not a data condition, and panics.
// Unknown-period observations cannot be sequenced and are dropped. Empty
// input yields empty output.
func FillGaps(points []domain.SeriesPoint) []domain.SeriesPoint {
	observed := make(map[string]int, len(points))
	keys := make([]string, 0, len(points))
	for _, p := range points {
		if p.Period == domain.UnknownPeriod {
			continue
		}
		if _, dup := observed[p.Period]; !dup {
			keys = append(keys, p.Period)
		}
		observed[p.Period] = p.Value
	}
	if len(keys) == 0 {
		return []domain.SeriesPoint{}
	}

	week := domain.IsWeekPeriod(keys[0])
	for _, k := range keys[1:] {
		if domain.IsWeekPeriod(k) != week {
			panic("stats: FillGaps called with mixed period granularities")
		}
	}

	sort.Strings(keys)
	first, last := keys[0], keys[len(keys)-1]

	// Lexicographic comparison is chronological for zero-padded period keys,
	// and bounds the walk even when a week-53 key cannot be reached by the
	// wrap-at-52 arithmetic.
	filled := make([]domain.SeriesPoint, 0, len(keys))
	for cur := first; cur <= last; cur = domain.NextPeriod(cur) {
		filled = append(filled, domain.SeriesPoint{Period: cur, Value: observed[cur]})
	}
	return filled
}
