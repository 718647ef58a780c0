package extraction

import (
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/internal/synthesis"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// benfordConformanceMAD is the mean-absolute-deviation cutoff below
// which a first-digit distribution is considered Benford-conforming.
const benfordConformanceMAD = 0.015

// StatisticsExtractor computes per-column distribution summaries with
// differential-privacy noise on released aggregates.
type StatisticsExtractor struct{}

func (e *StatisticsExtractor) Name() string { return "statistics" }

func (e *StatisticsExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	if table.RowCount() == 0 {
		return nil, errors.NewStatisticalError(errors.CodeInsufficientData, "table has no rows")
	}

	stats := models.NewStatisticsFingerprint()
	var benfordDigits []uint64

	for i, column := range table.Columns {
		if engine.ShouldSuppressField(column) {
			continue
		}
		raw := table.ColumnValues(i)

		numeric := parseNumericColumn(raw)
		if numeric != nil {
			acc := NewStreamingNumericStats(0, 0)
			acc.AddBatch(numeric)
			ns, err := computeNumericStats(table.Name, column, numeric, acc, engine)
			if err != nil {
				return nil, err
			}
			if inferSemanticType(column, models.DataTypeFloat64) == "monetary" {
				ns.BenfordFirstDigit = acc.BenfordDistribution()
				benfordDigits = mergeDigitCounts(benfordDigits, acc.BenfordCounts())
			}
			stats.AddNumeric(table.Name, column, ns)
			continue
		}

		if times := parseTemporalColumn(raw); times != nil {
			stats.AddTemporal(table.Name, column, computeTemporalStats(times))
			continue
		}

		key := models.ColumnKey(table.Name, column)
		stats.AddCategorical(table.Name, column, computeCategoricalStats(key, raw, config, engine))
	}

	if benfordDigits != nil {
		stats.BenfordAnalysis = analyzeBenford(benfordDigits)
	}
	return statisticsComponent{fp: stats}, nil
}

// parseNumericColumn returns float values when more than half of the
// non-empty values parse, otherwise nil.
func parseNumericColumn(raw []string) []float64 {
	values := make([]float64, 0, len(raw))
	nonEmpty := 0
	for _, v := range raw {
		if v == "" {
			continue
		}
		nonEmpty++
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			values = append(values, f)
		}
	}
	if nonEmpty == 0 || len(values)*2 <= nonEmpty {
		return nil
	}
	return values
}

func parseTemporalColumn(raw []string) []time.Time {
	layouts := append(append([]string{}, dateLayouts...), timestampLayouts...)
	times := make([]time.Time, 0, len(raw))
	nonEmpty := 0
	for _, v := range raw {
		if v == "" {
			continue
		}
		nonEmpty++
		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				times = append(times, t)
				break
			}
		}
	}
	if nonEmpty == 0 || len(times)*2 <= nonEmpty {
		return nil
	}
	return times
}

// computeNumericStats winsorizes the column, releases noised moments,
// and fits a distribution to the percentile ladder. Winsorization runs
// first so the noise sensitivity is bounded by the clipped range. The
// accumulator carries the single-pass raw-value stats; a nil acc is
// filled here.
func computeNumericStats(tableName, column string, values []float64, acc *StreamingNumericStats, engine *privacy.Engine) (*models.NumericStats, error) {
	key := models.ColumnKey(tableName, column)

	if acc == nil {
		acc = NewStreamingNumericStats(0, 0)
		acc.AddBatch(values)
	}

	work := make([]float64, len(values))
	copy(work, values)
	engine.Winsorize(work, key)

	sorted := make([]float64, len(work))
	copy(sorted, work)
	sort.Float64s(sorted)

	min := sorted[0]
	max := sorted[len(sorted)-1]
	mean := stat.Mean(work, nil)
	stdDev := math.Sqrt(stat.PopVariance(work, nil))

	spread := max - min
	noisedMean, err := engine.AddNoise(mean, spread/float64(len(work)), key+".mean")
	if err != nil {
		return nil, err
	}
	noisedStdDev, err := engine.AddNoise(stdDev, spread/(2*float64(len(work))), key+".std_dev")
	if err != nil {
		return nil, err
	}
	if noisedStdDev < 0 {
		noisedStdDev = 0
	}

	ns := &models.NumericStats{
		Count:        acc.Count(),
		Min:          min,
		Max:          max,
		Mean:         noisedMean,
		StdDev:       noisedStdDev,
		Percentiles:  percentileLadder(sorted),
		ZeroRate:     acc.ZeroRate(),
		NegativeRate: acc.NegativeRate(),
	}
	ns.Distribution, ns.DistributionParams = synthesis.FitDistribution(ns)
	return ns, nil
}

// percentileLadder reads the fixed ladder off a sorted slice using
// nearest-rank interpolation.
func percentileLadder(sorted []float64) models.Percentiles {
	var arr [9]float64
	n := len(sorted)
	for i, level := range models.PercentileLevels {
		idx := int(math.Round(level * float64(n-1)))
		arr[i] = sorted[idx]
	}
	return models.PercentilesFromArray(arr)
}

func computeCategoricalStats(key string, raw []string, config *Config, engine *privacy.Engine) *models.CategoricalStats {
	acc := NewStreamingCategoricalStats(defaultMaxTrackedCategories)
	for _, v := range raw {
		acc.Add(v)
	}
	total := acc.Count()

	kept := engine.SuppressRareCategories(acc.OrderedCounts(), total, key)
	retained := 0
	for _, cf := range kept {
		if cf.Value != privacy.OtherCategory {
			retained++
		}
	}
	suppressed := int(acc.Cardinality()) - retained

	top := config.TopCategories
	if top > 0 && len(kept) > top {
		kept = kept[:top]
	}

	var entropy float64
	for _, cf := range kept {
		if cf.Frequency > 0 {
			entropy -= cf.Frequency * math.Log(cf.Frequency)
		}
	}

	return &models.CategoricalStats{
		Count:                total,
		Cardinality:          acc.Cardinality(),
		TopValues:            kept,
		RareValuesSuppressed: suppressed > 0,
		SuppressedCount:      uint64(suppressed),
		Entropy:              entropy,
	}
}

func computeTemporalStats(times []time.Time) *models.TemporalStats {
	min, max := times[0], times[0]
	dow := make([]float64, 7)
	months := make([]float64, 12)
	var monthEnd, yearEnd int

	for _, t := range times {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
		dow[int(t.Weekday())]++
		months[int(t.Month())-1]++
		if t.Day() >= daysInMonth(t)-2 {
			monthEnd++
		}
		if t.Month() == time.December && t.Day() >= 24 {
			yearEnd++
		}
	}

	n := float64(len(times))
	for i := range dow {
		dow[i] /= n
	}
	var seasonality float64
	for i := range months {
		months[i] /= n
		d := months[i] - 1.0/12.0
		seasonality += d * d
	}

	ts := models.NewTemporalStats(uint64(len(times)), min.Format("2006-01-02"), max.Format("2006-01-02"))
	ts.DayOfWeekDistribution = dow
	ts.MonthDistribution = months
	// Weekend share under a uniform week is 2/7; flag a marked deficit
	// or excess.
	weekendShare := dow[time.Saturday] + dow[time.Sunday]
	ts.WeekendEffect = math.Abs(weekendShare-2.0/7.0) > 0.5*(2.0/7.0)
	ts.MonthEndEffect = float64(monthEnd)/n > 0.2
	ts.YearEndEffect = float64(yearEnd)/n > 0.05
	ts.SeasonalityStrength = math.Sqrt(seasonality / 12.0)
	return ts
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// mergeDigitCounts pools one column's leading-digit counts into the
// table-wide accumulator.
func mergeDigitCounts(acc, counts []uint64) []uint64 {
	if acc == nil {
		acc = make([]uint64, 9)
	}
	for i, c := range counts {
		acc[i] += c
	}
	return acc
}

func firstDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	for v < 1 {
		v *= 10
	}
	return int(v)
}

// analyzeBenford compares pooled monetary first digits against the
// Benford expectation.
func analyzeBenford(digitCounts []uint64) *models.BenfordStats {
	var total uint64
	for _, c := range digitCounts {
		total += c
	}
	if total == 0 {
		return nil
	}

	observed := make([]float64, 9)
	expected := make([]float64, 9)
	var mad, chi float64
	for i := range digitCounts {
		observed[i] = float64(digitCounts[i]) / float64(total)
		expected[i] = math.Log10(1 + 1/float64(i+1))
		mad += math.Abs(observed[i] - expected[i])
		exp := expected[i] * float64(total)
		d := float64(digitCounts[i]) - exp
		chi += d * d / exp
	}
	mad /= 9

	return &models.BenfordStats{
		SampleSize:          total,
		ObservedFrequencies: observed,
		ExpectedFrequencies: expected,
		MAD:                 mad,
		ChiSquared:          chi,
		Conforms:            mad < benfordConformanceMAD,
	}
}
