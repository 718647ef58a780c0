package synthesis

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datasynth/pkg/models"
)

func summarize(values []float64) *models.NumericStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	var arr [9]float64
	for i, level := range models.PercentileLevels {
		arr[i] = sorted[int(math.Round(level*float64(len(sorted)-1)))]
	}

	return &models.NumericStats{
		Count:       uint64(len(values)),
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Mean:        mean,
		StdDev:      math.Sqrt(variance),
		Percentiles: models.PercentilesFromArray(arr),
	}
}

func TestFitLogNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 5000)
	for i := range values {
		values[i] = math.Exp(3 + 0.8*rng.NormFloat64())
	}
	kind, params := FitDistribution(summarize(values))
	require.Equal(t, models.DistributionLogNormal, kind)
	assert.InDelta(t, 3.0, *params.Param1, 0.1)
	assert.InDelta(t, 0.8, *params.Param2, 0.1)
}

func TestFitNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	values := make([]float64, 5000)
	for i := range values {
		values[i] = 100 + 15*rng.NormFloat64()
	}
	kind, params := FitDistribution(summarize(values))
	require.Equal(t, models.DistributionNormal, kind)
	assert.InDelta(t, 100, *params.Param1, 2)
	assert.InDelta(t, 15, *params.Param2, 2)
}

func TestFitExponential(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := make([]float64, 5000)
	for i := range values {
		values[i] = rng.ExpFloat64() / 0.25
	}
	kind, _ := FitDistribution(summarize(values))
	// Exponential is a gamma with shape 1; either family is a faithful
	// fit for this data.
	assert.Contains(t, []models.DistributionType{models.DistributionExponential, models.DistributionGamma}, kind)
}

func TestFitPointMass(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 7.5
	}
	kind, params := FitDistribution(summarize(values))
	assert.Equal(t, models.DistributionPointMass, kind)
	assert.Equal(t, 7.5, *params.Param1)
}

func TestFitEmpiricalFallback(t *testing.T) {
	// Bimodal data fits none of the parametric families.
	values := make([]float64, 0, 2000)
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 1000; i++ {
		values = append(values, 10+rng.NormFloat64())
		values = append(values, 1000+rng.NormFloat64())
	}
	kind, params := FitDistribution(summarize(values))
	assert.Equal(t, models.DistributionEmpirical, kind)
	assert.Len(t, params.Quantiles, 9)
}

func TestFitDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 1000)
	for i := range values {
		values[i] = math.Exp(2 + 0.5*rng.NormFloat64())
	}
	stats := summarize(values)
	kindA, paramsA := FitDistribution(stats)
	kindB, paramsB := FitDistribution(stats)
	assert.Equal(t, kindA, kindB)
	assert.Equal(t, *paramsA.Param1, *paramsB.Param1)
}

func TestFitNilInput(t *testing.T) {
	kind, _ := FitDistribution(nil)
	assert.Equal(t, models.DistributionUnknown, kind)
}
