package extraction

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

func newTestEngine(t *testing.T) *privacy.Engine {
	t.Helper()
	engine, err := privacy.NewEngine(models.PrivacyConfigForLevel(models.PrivacyStandard), 11, nil)
	require.NoError(t, err)
	return engine
}

func TestPercentileLadder(t *testing.T) {
	sorted := make([]float64, 101)
	for i := range sorted {
		sorted[i] = float64(i)
	}
	p := percentileLadder(sorted)
	assert.Equal(t, 1.0, p.P1)
	assert.Equal(t, 50.0, p.P50)
	assert.Equal(t, 99.0, p.P99)
}

func TestComputeNumericStats(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := make([]float64, 2000)
	for i := range values {
		values[i] = math.Exp(4 + 0.5*rng.NormFloat64())
	}
	engine, err := privacy.NewEngine(models.PrivacyConfigForLevel(models.PrivacyMinimal), 11, nil)
	require.NoError(t, err)

	ns, err := computeNumericStats("txn", "amount", values, nil, engine)
	require.NoError(t, err)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	trueMean := 0.0
	for _, v := range values {
		trueMean += v
	}
	trueMean /= float64(len(values))

	// Winsorization plus noise moves the mean, but not by much at this
	// sample size.
	assert.InDelta(t, trueMean, ns.Mean, 0.15*trueMean)
	assert.Equal(t, uint64(2000), ns.Count)
	assert.Equal(t, models.DistributionLogNormal, ns.Distribution)
	assert.Zero(t, ns.NegativeRate)
	assert.True(t, ns.Percentiles.P50 < ns.Mean)
}

func TestNumericStatsReleaseIsNoised(t *testing.T) {
	values := make([]float64, 500)
	for i := range values {
		values[i] = float64(i)
	}
	a, err := computeNumericStats("t", "c", values, nil, newTestEngine(t))
	require.NoError(t, err)

	engineB, err := privacy.NewEngine(models.PrivacyConfigForLevel(models.PrivacyStandard), 999, nil)
	require.NoError(t, err)
	b, err := computeNumericStats("t", "c", values, nil, engineB)
	require.NoError(t, err)

	assert.NotEqual(t, a.Mean, b.Mean)
}

func TestComputeCategoricalStats(t *testing.T) {
	raw := make([]string, 0, 1000)
	for i := 0; i < 600; i++ {
		raw = append(raw, "standard")
	}
	for i := 0; i < 397; i++ {
		raw = append(raw, "priority")
	}
	raw = append(raw, "rush", "rush", "manual")

	engine := newTestEngine(t)
	cs := computeCategoricalStats("orders.kind", raw, DefaultConfig(), engine)

	assert.Equal(t, uint64(1000), cs.Count)
	assert.Equal(t, uint64(4), cs.Cardinality)
	assert.True(t, cs.RareValuesSuppressed)
	assert.Equal(t, uint64(2), cs.SuppressedCount)

	byValue := map[string]float64{}
	for _, cf := range cs.TopValues {
		byValue[cf.Value] = cf.Frequency
	}
	assert.InDelta(t, 0.6, byValue["standard"], 1e-9)
	assert.InDelta(t, 0.003, byValue[privacy.OtherCategory], 1e-9)
	assert.NotContains(t, byValue, "rush")
	assert.Greater(t, cs.Entropy, 0.0)
}

func TestFirstDigit(t *testing.T) {
	assert.Equal(t, 1, firstDigit(123.45))
	assert.Equal(t, 9, firstDigit(0.0942))
	assert.Equal(t, 7, firstDigit(-7))
	assert.Equal(t, 0, firstDigit(0))
}

func TestBenfordAnalysisOnBenfordData(t *testing.T) {
	// Exponential growth series follow Benford closely.
	values := make([]float64, 3000)
	v := 1.0
	for i := range values {
		v *= 1.007
		values[i] = v
	}
	acc := NewStreamingNumericStats(0, 0)
	acc.AddBatch(values)
	bs := analyzeBenford(acc.BenfordCounts())
	require.NotNil(t, bs)
	assert.True(t, bs.Conforms, "MAD was %f", bs.MAD)
	assert.InDelta(t, 0.301, bs.ObservedFrequencies[0], 0.03)
}

func TestStatisticsExtractorColumnKinds(t *testing.T) {
	columns := []string{"amount", "posting_date", "region"}
	rows := make([][]string, 200)
	regions := []string{"north", "south", "east", "west"}
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%.2f", 100+float64(i)),
			fmt.Sprintf("2024-%02d-15", 1+i%12),
			regions[i%4],
		}
	}
	table, err := NewMemorySource("sales", columns, rows).Load()
	require.NoError(t, err)

	component, err := (&StatisticsExtractor{}).Extract(table, DefaultConfig(), newTestEngine(t))
	require.NoError(t, err)

	var set componentSet
	component.apply(&set)
	stats := set.statistics

	assert.Contains(t, stats.NumericColumns, "sales.amount")
	assert.Contains(t, stats.TemporalColumns, "sales.posting_date")
	assert.Contains(t, stats.CategoricalColumns, "sales.region")
	require.NotNil(t, stats.BenfordAnalysis)

	temporal := stats.TemporalColumns["sales.posting_date"]
	assert.Equal(t, "2024-01-15", temporal.Min)
	assert.Equal(t, "2024-12-15", temporal.Max)
	sum := 0.0
	for _, f := range temporal.MonthDistribution {
		sum += f
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
