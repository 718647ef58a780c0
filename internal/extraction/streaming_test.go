package extraction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamingNumericStats(t *testing.T) {
	acc := NewStreamingNumericStats(1000, 1)
	for i := 1; i <= 100; i++ {
		acc.Add(float64(i))
	}

	assert.Equal(t, uint64(100), acc.Count())
	assert.InDelta(t, 50.5, acc.Mean(), 1e-9)
	assert.Equal(t, 1.0, acc.Min())
	assert.Equal(t, 100.0, acc.Max())
	assert.InDelta(t, 5050.0, acc.Sum(), 1e-9)
	assert.InDelta(t, 833.25, acc.Variance(), 1e-9)
	assert.Zero(t, acc.ZeroRate())
	assert.Zero(t, acc.NegativeRate())

	// Capacity exceeds the input, so the ladder is exact nearest-rank.
	p := acc.Percentiles()
	assert.Equal(t, 51.0, p.P50)
	assert.Equal(t, 99.0, p.P99)
}

func TestStreamingNumericStatsRates(t *testing.T) {
	acc := NewStreamingNumericStats(0, 0)
	acc.AddBatch([]float64{0, 0, -3, 5, 10})

	assert.InDelta(t, 0.4, acc.ZeroRate(), 1e-9)
	assert.InDelta(t, 0.2, acc.NegativeRate(), 1e-9)
	assert.Equal(t, -3.0, acc.Min())

	// Zeros contribute no leading digit.
	counts := acc.BenfordCounts()
	assert.Equal(t, uint64(1), counts[2])
	assert.Equal(t, uint64(1), counts[4])
	assert.Equal(t, uint64(1), counts[0])
	dist := acc.BenfordDistribution()
	require.NotNil(t, dist)
	assert.InDelta(t, 1.0/3.0, dist[2], 1e-9)
}

func TestStreamingNumericStatsEmpty(t *testing.T) {
	acc := NewStreamingNumericStats(10, 1)
	assert.Zero(t, acc.Count())
	assert.Equal(t, 0.0, acc.Min())
	assert.Equal(t, 0.0, acc.Max())
	assert.Zero(t, acc.Variance())
	assert.Nil(t, acc.BenfordDistribution())
	assert.Equal(t, 0.0, acc.Percentiles().P50)
}

func TestStreamingReservoirBoundedAndDeterministic(t *testing.T) {
	run := func(seed int64) []float64 {
		acc := NewStreamingNumericStats(10, seed)
		for i := 0; i < 1000; i++ {
			acc.Add(float64(i))
		}
		sample := make([]float64, len(acc.reservoir))
		copy(sample, acc.reservoir)
		return sample
	}

	a := run(7)
	require.Len(t, a, 10)
	assert.Equal(t, a, run(7))
	assert.NotEqual(t, a, run(8))
}

func TestStreamingCategoricalStats(t *testing.T) {
	acc := NewStreamingCategoricalStats(100)
	for i := 0; i < 50; i++ {
		acc.Add("A")
	}
	for i := 0; i < 30; i++ {
		acc.Add("B")
	}
	for i := 0; i < 20; i++ {
		acc.Add("C")
	}
	acc.Add("")

	assert.Equal(t, uint64(100), acc.Count())
	assert.Equal(t, uint64(3), acc.Cardinality())
	assert.Greater(t, acc.Entropy(), 0.0)

	ordered := acc.OrderedCounts()
	require.Len(t, ordered, 3)
	assert.Equal(t, "A", ordered[0].Value)
	assert.Equal(t, uint64(50), ordered[0].Count)
	assert.Equal(t, "C", ordered[2].Value)
}

func TestStreamingCategoricalStatsCapped(t *testing.T) {
	acc := NewStreamingCategoricalStats(5)
	// Heavy hitters first, then a long tail of singletons.
	for i := 0; i < 100; i++ {
		acc.Add("common")
	}
	for i := 0; i < 50; i++ {
		acc.Add(fmt.Sprintf("rare_%03d", i))
	}

	assert.LessOrEqual(t, int(acc.Cardinality()), 5)
	ordered := acc.OrderedCounts()
	require.NotEmpty(t, ordered)
	assert.Equal(t, "common", ordered[0].Value)
	assert.Equal(t, uint64(100), ordered[0].Count)
}

func TestSampleRows(t *testing.T) {
	rows := make([][]string, 200)
	seen := map[string]bool{}
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("R%03d", i)}
		seen[rows[i][0]] = true
	}

	a := sampleRows(rows, 50, 42)
	require.Len(t, a, 50)
	for _, row := range a {
		assert.True(t, seen[row[0]])
	}

	assert.Equal(t, a, sampleRows(rows, 50, 42))
	assert.NotEqual(t, a, sampleRows(rows, 50, 43))

	small := sampleRows(rows[:30], 50, 42)
	assert.Len(t, small, 30)
}
