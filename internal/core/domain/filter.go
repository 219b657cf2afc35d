package domain

import "time"

// Synthetic group labels. "IT Team" is an aggregate standing for every team
// except the literally named Coreshack team; dashboards rely on both the
// combined view and per-subteam counts existing side by side.
const (
	CoreshackTeam = "Coreshack"
	ITTeamRollup  = "IT Team"
)

// Filter is the active multi-dimensional filter state for a dataset session.
// Empty collections impose no restriction on their dimension; the date range
// applies only when both bounds are present.
type Filter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	Teams      []string
	Categories []string
	Agents     []string
	Sources    []string
	Priorities []string
}

// FilterPatch is a partial filter update. Nil fields retain the previous
// value; non-nil fields replace it wholesale.
type FilterPatch struct {
	DateFrom   **time.Time
	DateTo     **time.Time
	Teams      *[]string
	Categories *[]string
	Agents     *[]string
	Sources    *[]string
	Priorities *[]string
}

// Merge applies a partial update over the current filter and returns the
// merged result. The receiver is not mutated.
func (f Filter) Merge(p FilterPatch) Filter {
	out := f
	if p.DateFrom != nil {
		out.DateFrom = *p.DateFrom
	}
	if p.DateTo != nil {
		out.DateTo = *p.DateTo
	}
	if p.Teams != nil {
		out.Teams = *p.Teams
	}
	if p.Categories != nil {
		out.Categories = *p.Categories
	}
	if p.Agents != nil {
		out.Agents = *p.Agents
	}
	if p.Sources != nil {
		out.Sources = *p.Sources
	}
	if p.Priorities != nil {
		out.Priorities = *p.Priorities
	}
	return out
}

// Matches evaluates a ticket against the filter. A ticket must pass every
// active dimension; within one dimension the selected values are a union.
func (f Filter) Matches(t Ticket) bool {
	// Date range applies only when both bounds are set. A ticket whose date
	// cannot be parsed is not excluded here; dirty data degrades elsewhere.
	if f.DateFrom != nil && f.DateTo != nil {
		if created, ok := t.CreatedAt(); ok {
			if created.Before(*f.DateFrom) || created.After(*f.DateTo) {
				return false
			}
		}
	}

	if !f.matchesTeam(t.Team) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, t.Category) {
		return false
	}
	if len(f.Agents) > 0 && !contains(f.Agents, t.AgentName) {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, t.Source) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority) {
		return false
	}
	return true
}

// matchesTeam applies the group dimension including the "IT Team" rollup:
// selecting "IT Team" admits every non-Coreshack ticket; Coreshack tickets
// pass only when Coreshack itself is also selected.
func (f Filter) matchesTeam(team string) bool {
	if len(f.Teams) == 0 {
		return true
	}
	if contains(f.Teams, ITTeamRollup) {
		if team == CoreshackTeam {
			return contains(f.Teams, CoreshackTeam)
		}
		return true
	}
	return contains(f.Teams, team)
}

// Apply returns the subset of tickets matching the filter, preserving order.
func (f Filter) Apply(tickets []Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
