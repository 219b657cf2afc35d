// Package stats holds the pure analytics core: dimensional aggregation,
// period-series gap filling, and trend forecasting. Every function here is
// deterministic and side-effect free; callers may memoize results keyed on
// input identity.
package stats

import (
	"math"
	"sort"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

// GroupBy groups tickets by one dimension and counts occurrences. Buckets are
// sorted by count descending; ties keep first-encounter order so the output is
// deterministic for a given input order. Missing values bucket under
// "Unknown". Percentages are count/total rounded to the nearest integer.
func GroupBy(tickets []domain.Ticket, dim domain.Dimension) []domain.AggregateBucket {
	counts := make(map[string]int)
	order := make(map[string]int)
	for i, t := range tickets {
		label := t.DimensionValue(dim)
		if label == "" {
			label = domain.UnknownLabel
		}
		if _, seen := counts[label]; !seen {
			order[label] = i
		}
		counts[label]++
	}

	total := len(tickets)
	buckets := make([]domain.AggregateBucket, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, domain.AggregateBucket{
			Label:      label,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return order[buckets[i].Label] < order[buckets[j].Label]
	})
	return buckets
}

// GroupByPeriod counts tickets per period key, sorted chronologically.
// Tickets with unparseable dates land in the trailing "Unknown" bucket.
func GroupByPeriod(tickets []domain.Ticket, g domain.Granularity) []domain.SeriesPoint {
	counts := make(map[string]int)
	for _, t := range tickets {
		counts[domain.PeriodKeyFor(t, g)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Zero-padded period keys sort chronologically as strings; the Unknown
	// sentinel sorts after every "YYYY-..." key.
	sort.Strings(keys)

	points := make([]domain.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, domain.SeriesPoint{Period: k, Value: counts[k]})
	}
	return points
}

// GroupByPeriodAndAgent counts tickets per period per agent. Agents are never
// folded into a synthetic rollup.
func GroupByPeriodAndAgent(tickets []domain.Ticket, g domain.Granularity) domain.PeriodBreakdown {
	breakdown := make(domain.PeriodBreakdown)
	for _, t := range tickets {
		period := domain.PeriodKeyFor(t, g)
		agent := t.AgentName
		if agent == "" {
			agent = domain.UnknownLabel
		}
		bump(breakdown, period, agent)
	}
	return breakdown
}

// GroupByPeriodAndTeam counts tickets per period per team, maintaining the
// "IT Team" rollup: every non-Coreshack ticket increments both its own team
// and "IT Team" within the period, while Coreshack tickets increment only
// Coreshack. The dual count is intentional; it lets the dashboard show the
// combined IT view and the subteam breakdown from one structure.
func GroupByPeriodAndTeam(tickets []domain.Ticket, g domain.Granularity) domain.PeriodBreakdown {
	breakdown := make(domain.PeriodBreakdown)
	for _, t := range tickets {
		period := domain.PeriodKeyFor(t, g)
		team := t.Team
		if team == "" {
			team = domain.UnknownLabel
		}
		if team == domain.CoreshackTeam {
			bump(breakdown, period, domain.CoreshackTeam)
			continue
		}
		bump(breakdown, period, domain.ITTeamRollup)
		bump(breakdown, period, team)
	}
	return breakdown
}

func bump(b domain.PeriodBreakdown, period, label string) {
	if b[period] == nil {
		b[period] = make(map[string]int)
	}
	b[period][label]++
}

// UniqueValues returns the sorted distinct non-empty values of a dimension,
// used to populate filter dropdowns.
func UniqueValues(tickets []domain.Ticket, dim domain.Dimension) []string {
	seen := make(map[string]struct{})
	for _, t := range tickets {
		if v := t.DimensionValue(dim); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// SeriesFor extracts one entity's ordered per-period series from a breakdown,
// zero-filling periods where the entity has no tickets. Periods are the sorted
// keys of the breakdown itself; the Unknown bucket is skipped because it
// cannot be sequenced.
func SeriesFor(breakdown domain.PeriodBreakdown, name string) []domain.SeriesPoint {
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		if k == domain.UnknownPeriod {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]domain.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, domain.SeriesPoint{Period: k, Value: breakdown[k][name]})
	}
	return points
}
