package stats

import (
	"math"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

// Model constants. These values are load-bearing: downstream consumers compare
// forecasts across uploads, so changing any of them silently changes reported
// trends. Treat them as part of the output contract.
const (
	// HoltLevelAlpha smooths the level component of Holt's linear trend.
	HoltLevelAlpha = 0.2
	// HoltTrendBeta smooths the trend component of Holt's linear trend.
	HoltTrendBeta = 0.1
	// StableSlopeThreshold is the absolute slope below which a trend is
	// classified as stable rather than increasing or decreasing.
	StableSlopeThreshold = 0.05
)

// Forecast fits the selected model to an ordered numeric series and projects
// horizon steps forward. Degenerate inputs (empty or single-point series)
// produce zero-valued trivial results rather than errors; callers should not
// read fit quality into R2 or slope without checking the series length first.
// Projected values are raw model output and may be negative or fractional.
func Forecast(series []float64, horizon int, method domain.ForecastMethod) domain.ForecastResult {
	if horizon < 1 {
		horizon = 1
	}
	if method == domain.MethodExponential {
		return holtForecast(series, horizon)
	}
	return linearForecast(series, horizon)
}

// linearForecast is ordinary least squares of value against period index.
func linearForecast(series []float64, horizon int) domain.ForecastResult {
	n := len(series)
	if n == 0 {
		return domain.ForecastResult{
			Direction: domain.TrendStable,
			Values:    make([]float64, horizon),
		}
	}

	slope, intercept := linearFit(series)
	values := make([]float64, 0, horizon)
	for k := 1; k <= horizon; k++ {
		values = append(values, intercept+slope*float64(n-1+k))
	}

	fitStart := intercept
	fitEnd := intercept + slope*float64(n-1)

	return domain.ForecastResult{
		Slope:        slope,
		Intercept:    intercept,
		R2:           rSquared(series, slope, intercept),
		Direction:    DirectionFor(slope),
		PeriodGrowth: growthRate(series[0], series[n-1], n),
		TrendGrowth:  growthRate(fitStart, fitEnd, n),
		Values:       values,
	}
}

// holtForecast is Holt's linear trend (double exponential smoothing) with the
// fixed HoltLevelAlpha / HoltTrendBeta factors. Series shorter than two points
// degenerate to the single value (or zero) repeated with zero trend.
func holtForecast(series []float64, horizon int) domain.ForecastResult {
	n := len(series)
	if n < 2 {
		var y0 float64
		if n == 1 {
			y0 = series[0]
		}
		values := make([]float64, horizon)
		for i := range values {
			values[i] = y0
		}
		return domain.ForecastResult{
			Direction: domain.TrendStable,
			Values:    values,
		}
	}

	level := make([]float64, n)
	trend := make([]float64, n)
	level[0] = series[0]
	trend[0] = series[1] - series[0]
	for i := 1; i < n; i++ {
		level[i] = HoltLevelAlpha*series[i] + (1-HoltLevelAlpha)*(level[i-1]+trend[i-1])
		trend[i] = HoltTrendBeta*(level[i]-level[i-1]) + (1-HoltTrendBeta)*trend[i-1]
	}

	finalTrend := trend[n-1]
	values := make([]float64, 0, horizon)
	for k := 1; k <= horizon; k++ {
		values = append(values, level[n-1]+float64(k)*finalTrend)
	}

	return domain.ForecastResult{
		Slope:        finalTrend,
		Intercept:    level[n-1],
		Direction:    DirectionFor(finalTrend),
		PeriodGrowth: growthRate(series[0], series[n-1], n),
		TrendGrowth:  growthRate(level[0], level[n-1], n),
		Values:       values,
	}
}

// linearFit computes the OLS slope and intercept of value against index.
// Slope is zero when index variance is zero (series of length < 2).
func linearFit(series []float64) (slope, intercept float64) {
	n := len(series)
	if n == 0 {
		return 0, 0
	}

	var xBar, yBar float64
	for i, y := range series {
		xBar += float64(i)
		yBar += y
	}
	xBar /= float64(n)
	yBar /= float64(n)

	var cov, varX float64
	for i, y := range series {
		dx := float64(i) - xBar
		cov += dx * (y - yBar)
		varX += dx * dx
	}

	if varX == 0 {
		return 0, yBar
	}
	slope = cov / varX
	intercept = yBar - slope*xBar
	return slope, intercept
}

// rSquared is the coefficient of determination for the fitted line. A constant
// series has zero total variance and reports 0, not NaN.
func rSquared(series []float64, slope, intercept float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}

	var yBar float64
	for _, y := range series {
		yBar += y
	}
	yBar /= float64(n)

	var ssTot, ssRes float64
	for i, y := range series {
		ssTot += (y - yBar) * (y - yBar)
		predicted := intercept + slope*float64(i)
		ssRes += (y - predicted) * (y - predicted)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// DirectionFor classifies a slope (or final Holt trend) against the stability
// threshold.
func DirectionFor(slope float64) domain.TrendDirection {
	if math.Abs(slope) < StableSlopeThreshold {
		return domain.TrendStable
	}
	if slope > 0 {
		return domain.TrendIncreasing
	}
	return domain.TrendDecreasing
}

// growthRate is the simple percent change from first to last, zero for
// single-point series or a zero starting value.
func growthRate(first, last float64, periods int) float64 {
	if periods <= 1 || first == 0 {
		return 0
	}
	return (last - first) / math.Abs(first)
}
