package models

import "fmt"

// StatisticsFingerprint holds per-column distribution summaries, keyed by
// "table.column".
type StatisticsFingerprint struct {
	NumericColumns     map[string]*NumericStats     `json:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns map[string]*CategoricalStats `json:"categorical_columns" yaml:"categorical_columns"`
	TemporalColumns    map[string]*TemporalStats    `json:"temporal_columns" yaml:"temporal_columns"`
	BenfordAnalysis    *BenfordStats                `json:"benford_analysis,omitempty" yaml:"benford_analysis,omitempty"`
}

// NewStatisticsFingerprint creates an empty statistics fingerprint.
func NewStatisticsFingerprint() *StatisticsFingerprint {
	return &StatisticsFingerprint{
		NumericColumns:     make(map[string]*NumericStats),
		CategoricalColumns: make(map[string]*CategoricalStats),
		TemporalColumns:    make(map[string]*TemporalStats),
	}
}

// ColumnKey builds the "table.column" key used throughout the fingerprint.
func ColumnKey(table, column string) string {
	return fmt.Sprintf("%s.%s", table, column)
}

// AddNumeric records numeric statistics for a column.
func (s *StatisticsFingerprint) AddNumeric(table, column string, stats *NumericStats) {
	s.NumericColumns[ColumnKey(table, column)] = stats
}

// AddCategorical records categorical statistics for a column.
func (s *StatisticsFingerprint) AddCategorical(table, column string, stats *CategoricalStats) {
	s.CategoricalColumns[ColumnKey(table, column)] = stats
}

// AddTemporal records temporal statistics for a column.
func (s *StatisticsFingerprint) AddTemporal(table, column string, stats *TemporalStats) {
	s.TemporalColumns[ColumnKey(table, column)] = stats
}

// NumericStats summarizes a numeric column after privacy processing.
type NumericStats struct {
	Count              uint64             `json:"count" yaml:"count"`
	Min                float64            `json:"min" yaml:"min"`
	Max                float64            `json:"max" yaml:"max"`
	Mean               float64            `json:"mean" yaml:"mean"`
	StdDev             float64            `json:"std_dev" yaml:"std_dev"`
	Percentiles        Percentiles        `json:"percentiles" yaml:"percentiles"`
	Distribution       DistributionType   `json:"distribution" yaml:"distribution"`
	DistributionParams DistributionParams `json:"distribution_params" yaml:"distribution_params"`
	ZeroRate           float64            `json:"zero_rate" yaml:"zero_rate"`
	NegativeRate       float64            `json:"negative_rate" yaml:"negative_rate"`
	BenfordFirstDigit  []float64          `json:"benford_first_digit,omitempty" yaml:"benford_first_digit,omitempty"`
}

// FollowsBenford reports whether the first-digit distribution is close to
// Benford's Law on the leading digit.
func (n *NumericStats) FollowsBenford() bool {
	if len(n.BenfordFirstDigit) != 9 {
		return false
	}
	d := n.BenfordFirstDigit[0] - 0.301
	return d > -0.05 && d < 0.05
}

// Percentiles holds the fixed percentile ladder [1,5,10,25,50,75,90,95,99].
type Percentiles struct {
	P1  float64 `json:"p1" yaml:"p1"`
	P5  float64 `json:"p5" yaml:"p5"`
	P10 float64 `json:"p10" yaml:"p10"`
	P25 float64 `json:"p25" yaml:"p25"`
	P50 float64 `json:"p50" yaml:"p50"`
	P75 float64 `json:"p75" yaml:"p75"`
	P90 float64 `json:"p90" yaml:"p90"`
	P95 float64 `json:"p95" yaml:"p95"`
	P99 float64 `json:"p99" yaml:"p99"`
}

// PercentileLevels are the probability levels of the ladder.
var PercentileLevels = [9]float64{0.01, 0.05, 0.10, 0.25, 0.50, 0.75, 0.90, 0.95, 0.99}

// PercentilesFromArray builds the ladder from nine values in level order.
func PercentilesFromArray(values [9]float64) Percentiles {
	return Percentiles{
		P1: values[0], P5: values[1], P10: values[2],
		P25: values[3], P50: values[4], P75: values[5],
		P90: values[6], P95: values[7], P99: values[8],
	}
}

// ToArray returns the ladder values in level order.
func (p Percentiles) ToArray() [9]float64 {
	return [9]float64{p.P1, p.P5, p.P10, p.P25, p.P50, p.P75, p.P90, p.P95, p.P99}
}

// IQR returns the interquartile range.
func (p Percentiles) IQR() float64 {
	return p.P75 - p.P25
}

// DistributionType enumerates the parametric families the fitter considers.
type DistributionType string

const (
	DistributionNormal      DistributionType = "normal"
	DistributionLogNormal   DistributionType = "log_normal"
	DistributionGamma       DistributionType = "gamma"
	DistributionExponential DistributionType = "exponential"
	DistributionUniform     DistributionType = "uniform"
	DistributionPointMass   DistributionType = "point_mass"
	DistributionEmpirical   DistributionType = "empirical"
	DistributionUnknown     DistributionType = "unknown"
)

// DistributionParams carries the fitted parameters. Param1/Param2 meaning
// depends on the family: mean/std_dev for normal, mu/sigma for log-normal,
// shape/rate for gamma, rate for exponential, min/max for uniform.
type DistributionParams struct {
	Param1    *float64  `json:"param1,omitempty" yaml:"param1,omitempty"`
	Param2    *float64  `json:"param2,omitempty" yaml:"param2,omitempty"`
	Shift     *float64  `json:"shift,omitempty" yaml:"shift,omitempty"`
	Scale     *float64  `json:"scale,omitempty" yaml:"scale,omitempty"`
	Quantiles []float64 `json:"quantiles,omitempty" yaml:"quantiles,omitempty"`
}

func f64ptr(v float64) *float64 { return &v }

// NormalParams builds parameters for a normal fit.
func NormalParams(mean, stdDev float64) DistributionParams {
	return DistributionParams{Param1: f64ptr(mean), Param2: f64ptr(stdDev)}
}

// LogNormalParams builds parameters for a log-normal fit.
func LogNormalParams(mu, sigma float64) DistributionParams {
	return DistributionParams{Param1: f64ptr(mu), Param2: f64ptr(sigma)}
}

// GammaParams builds parameters for a gamma fit.
func GammaParams(shape, rate float64) DistributionParams {
	return DistributionParams{Param1: f64ptr(shape), Param2: f64ptr(rate)}
}

// ExponentialParams builds parameters for an exponential fit.
func ExponentialParams(rate float64) DistributionParams {
	return DistributionParams{Param1: f64ptr(rate)}
}

// UniformParams builds parameters for a uniform fit.
func UniformParams(min, max float64) DistributionParams {
	return DistributionParams{Param1: f64ptr(min), Param2: f64ptr(max)}
}

// EmpiricalParams builds parameters carrying the percentile ladder itself.
func EmpiricalParams(quantiles []float64) DistributionParams {
	return DistributionParams{Quantiles: quantiles}
}

// CategoricalStats summarizes a categorical column after suppression.
type CategoricalStats struct {
	Count                uint64              `json:"count" yaml:"count"`
	Cardinality          uint64              `json:"cardinality" yaml:"cardinality"`
	TopValues            []CategoryFrequency `json:"top_values" yaml:"top_values"`
	RareValuesSuppressed bool                `json:"rare_values_suppressed" yaml:"rare_values_suppressed"`
	SuppressedCount      uint64              `json:"suppressed_count" yaml:"suppressed_count"`
	Entropy              float64             `json:"entropy" yaml:"entropy"`
}

// CategoryFrequency is a single category with its proportion.
type CategoryFrequency struct {
	Value     string  `json:"value" yaml:"value"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// TemporalStats summarizes a date or timestamp column.
type TemporalStats struct {
	Count                 uint64    `json:"count" yaml:"count"`
	Min                   string    `json:"min" yaml:"min"`
	Max                   string    `json:"max" yaml:"max"`
	DayOfWeekDistribution []float64 `json:"day_of_week_distribution" yaml:"day_of_week_distribution"`
	MonthDistribution     []float64 `json:"month_distribution" yaml:"month_distribution"`
	HourDistribution      []float64 `json:"hour_distribution,omitempty" yaml:"hour_distribution,omitempty"`
	WeekendEffect         bool      `json:"weekend_effect" yaml:"weekend_effect"`
	MonthEndEffect        bool      `json:"month_end_effect" yaml:"month_end_effect"`
	YearEndEffect         bool      `json:"year_end_effect" yaml:"year_end_effect"`
	SeasonalityStrength   float64   `json:"seasonality_strength" yaml:"seasonality_strength"`
}

// NewTemporalStats creates temporal stats with uniform weekday and month
// distributions.
func NewTemporalStats(count uint64, min, max string) *TemporalStats {
	dow := make([]float64, 7)
	for i := range dow {
		dow[i] = 1.0 / 7.0
	}
	months := make([]float64, 12)
	for i := range months {
		months[i] = 1.0 / 12.0
	}
	return &TemporalStats{
		Count:                 count,
		Min:                   min,
		Max:                   max,
		DayOfWeekDistribution: dow,
		MonthDistribution:     months,
	}
}

// BenfordStats holds a first-digit analysis over monetary columns.
type BenfordStats struct {
	SampleSize          uint64    `json:"sample_size" yaml:"sample_size"`
	ObservedFrequencies []float64 `json:"observed_frequencies" yaml:"observed_frequencies"`
	ExpectedFrequencies []float64 `json:"expected_frequencies" yaml:"expected_frequencies"`
	MAD                 float64   `json:"mad" yaml:"mad"`
	ChiSquared          float64   `json:"chi_squared" yaml:"chi_squared"`
	Conforms            bool      `json:"conforms" yaml:"conforms"`
}
