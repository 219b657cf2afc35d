package domain

import (
	"strings"
	"time"
)

// UnknownLabel is the bucket label used wherever a ticket is missing a value
// for the dimension being aggregated. The entity itself keeps the empty value;
// only aggregation keys are substituted.
const UnknownLabel = "Unknown"

// Ticket is the core domain entity: one normalized support ticket row.
// Tickets are created once during ingestion and never mutated afterward.
type Ticket struct {
	ID          string
	CreatedDate string // RFC3339 when parseable, otherwise the raw upstream string
	Team        string
	AgentName   string
	Category    string
	Subject     string
	Source      string
	Priority    string
	Status      string
	YearMonth   string // precomputed month period key, "Unknown" when the date is unparseable
}

// RawRecord is one row as delivered by the upstream CSV parse: header name to
// cell value. No field is guaranteed to be present.
type RawRecord map[string]string

// Header aliases recognized during normalization. Anything outside this set is
// ignored rather than accessed dynamically.
var headerAliases = map[string][]string{
	"createdDate": {"Created Date", "createdDate"},
	"group":       {"Groups", "group"},
	"id":          {"ID", "id"},
	"agentName":   {"Agent Name", "agentName"},
	"category":    {"Category", "category"},
	"subject":     {"Subject", "subject"},
	"source":      {"Source", "source"},
	"priority":    {"Priority", "priority"},
	"status":      {"Status", "status"},
}

func (r RawRecord) field(canonical string) string {
	for _, alias := range headerAliases[canonical] {
		if v, ok := r[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Layouts attempted when reconstructing a "<date> <time> <AM/PM>" export value.
var exportDateLayouts = []string{
	"2006-01-02 03:04:05 PM",
	"2006-01-02 3:04:05 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 3:04:05 PM",
}

// NormalizeTicket converts one raw row into a Ticket. The created date is
// reparsed from the locale "<date> <time> <AM/PM>" export format and serialized
// to RFC3339; if that fails the original string is kept unchanged and the
// month key degrades to "Unknown" downstream. Normalization never fails.
func NormalizeTicket(r RawRecord) Ticket {
	dateStr := r.field("createdDate")
	if normalized, ok := normalizeExportDate(dateStr); ok {
		dateStr = normalized
	}

	return Ticket{
		ID:          r.field("id"),
		CreatedDate: dateStr,
		Team:        r.field("group"),
		AgentName:   r.field("agentName"),
		Category:    r.field("category"),
		Subject:     r.field("subject"),
		Source:      r.field("source"),
		Priority:    r.field("priority"),
		Status:      r.field("status"),
		YearMonth:   MonthKey(dateStr),
	}
}

// NormalizeTickets converts raw rows in order, one ticket per row.
func NormalizeTickets(rows []RawRecord) []Ticket {
	tickets := make([]Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, NormalizeTicket(row))
	}
	return tickets
}

// normalizeExportDate reparses a three-token "<date> <time> <AM/PM>" value.
// Returns the RFC3339 form and true on success.
func normalizeExportDate(s string) (string, bool) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return "", false
	}
	candidate := parts[0] + " " + parts[1] + " " + strings.ToUpper(parts[2])
	for _, layout := range exportDateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.UTC().Format(time.RFC3339), true
		}
	}
	return "", false
}

// Dimension identifies a categorical ticket attribute used for grouping.
type Dimension string

const (
	DimensionTeam     Dimension = "team"
	DimensionAgent    Dimension = "agent"
	DimensionCategory Dimension = "category"
	DimensionStatus   Dimension = "status"
	DimensionPriority Dimension = "priority"
	DimensionSource   Dimension = "source"
)

// Dimensions lists every groupable dimension.
var Dimensions = []Dimension{
	DimensionTeam,
	DimensionAgent,
	DimensionCategory,
	DimensionStatus,
	DimensionPriority,
	DimensionSource,
}

// ValidDimension reports whether d names a known dimension.
func ValidDimension(d Dimension) bool {
	switch d {
	case DimensionTeam, DimensionAgent, DimensionCategory,
		DimensionStatus, DimensionPriority, DimensionSource:
		return true
	}
	return false
}

// DimensionValue returns the ticket's raw value for a dimension. Callers doing
// aggregation substitute UnknownLabel for the empty string.
func (t Ticket) DimensionValue(d Dimension) string {
	switch d {
	case DimensionTeam:
		return t.Team
	case DimensionAgent:
		return t.AgentName
	case DimensionCategory:
		return t.Category
	case DimensionStatus:
		return t.Status
	case DimensionPriority:
		return t.Priority
	case DimensionSource:
		return t.Source
	}
	return ""
}

// CreatedAt parses the ticket's created date. The second return is false when
// the stored string is not a recognizable timestamp.
func (t Ticket) CreatedAt() (time.Time, bool) {
	return ParseTimestamp(t.CreatedDate)
}
