package domain

// AggregateBucket is one row of a single-dimension grouping: a label, its
// occurrence count, and the share of the grouped input it represents.
// Percentage is rounded to the nearest integer; an empty input produces no
// buckets at all, so a zero denominator never occurs.
type AggregateBucket struct {
	Label      string
	Count      int
	Percentage int
}

// SeriesPoint is one observation of a time-period series.
type SeriesPoint struct {
	Period string
	Value  int
}

// PeriodBreakdown maps period key -> secondary dimension value -> count.
// For the team dimension the synthetic "IT Team" rollup is counted alongside
// the individual subteams.
type PeriodBreakdown map[string]map[string]int

// TrendDirection classifies the overall movement of a fitted series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
	TrendStable     TrendDirection = "Stable"
)

// ForecastMethod selects the projection model.
type ForecastMethod string

const (
	// MethodLinear is ordinary least-squares regression against period index.
	MethodLinear ForecastMethod = "linear"
	// MethodExponential is Holt's linear trend (double exponential smoothing).
	MethodExponential ForecastMethod = "exponential"
)

// ValidForecastMethod reports whether m is a supported model.
func ValidForecastMethod(m ForecastMethod) bool {
	return m == MethodLinear || m == MethodExponential
}

// ForecastResult holds the fitted statistics and forward projection for one
// series. Slope carries the OLS slope for the linear method and the final
// smoothed trend for Holt's method. R2 is only meaningful for the linear
// method and is reported as 0 otherwise. Values are raw model outputs; they
// may be negative or fractional and are rounded/clamped only at the
// presentation boundary.
type ForecastResult struct {
	Slope        float64
	Intercept    float64
	R2           float64
	Direction    TrendDirection
	PeriodGrowth float64
	TrendGrowth  float64
	Values       []float64
}

// EntityForecast pairs a named agent or team with its forecast over a shared
// period axis, plus the chart-ready projection (rounded, floored at zero).
type EntityForecast struct {
	Name            string
	Actuals         []SeriesPoint
	ForecastPeriods []string
	ForecastValues  []int
	Result          ForecastResult
}

// TrendScope selects which entity dimension a trend query runs over.
type TrendScope string

const (
	ScopeAgent TrendScope = "agent"
	ScopeTeam  TrendScope = "team"
)

// ValidTrendScope reports whether s is a supported scope.
func ValidTrendScope(s TrendScope) bool {
	return s == ScopeAgent || s == ScopeTeam
}

// SummaryStats is the headline card for a filtered dataset.
type SummaryStats struct {
	TotalTickets  int
	FirstDate     string
	LastDate      string
	TopTeam       string
	TopAgent      string
	TopCategory   string
	MonthlyVolume []SeriesPoint
}

// FilterOptions lists the distinct values available per filter dimension.
type FilterOptions struct {
	Teams      []string
	Categories []string
	Agents     []string
	Sources    []string
	Priorities []string
}
