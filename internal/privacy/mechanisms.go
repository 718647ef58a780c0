package privacy

import (
	"math"
	"math/rand"
)

// LaplaceMechanism adds noise from a Laplace distribution calibrated to query
// sensitivity.
type LaplaceMechanism struct {
	randSource *rand.Rand
}

// NewLaplaceMechanism creates a Laplace mechanism. A nil randSource gets a
// fixed-seed source so extraction is reproducible by default.
func NewLaplaceMechanism(randSource *rand.Rand) *LaplaceMechanism {
	if randSource == nil {
		randSource = rand.New(rand.NewSource(42))
	}
	return &LaplaceMechanism{randSource: randSource}
}

// AddNoise returns value plus Laplace noise with scale sensitivity/epsilon.
func (lm *LaplaceMechanism) AddNoise(value, sensitivity, epsilon float64) float64 {
	scale := sensitivity / epsilon
	return value + lm.sampleLaplace(scale)
}

// AddNoiseToCount noises a count with unit sensitivity and clamps the result
// to a non-negative integer.
func (lm *LaplaceMechanism) AddNoiseToCount(count uint64, epsilon float64) uint64 {
	noised := lm.AddNoise(float64(count), 1.0, epsilon)
	if noised < 0 {
		return 0
	}
	return uint64(math.Round(noised))
}

func (lm *LaplaceMechanism) sampleLaplace(scale float64) float64 {
	// Inverse transform: Laplace CDF^(-1)(p) = -b*sign(p-0.5)*ln(1-2*|p-0.5|)
	u := lm.randSource.Float64()
	if u < 0.5 {
		return scale * math.Log(2*u)
	}
	return -scale * math.Log(2*(1-u))
}

// GaussianMechanism adds noise from a normal distribution sized for
// (epsilon, delta) differential privacy.
type GaussianMechanism struct {
	delta      float64
	randSource *rand.Rand
}

// NewGaussianMechanism creates a Gaussian mechanism with the given delta.
func NewGaussianMechanism(delta float64, randSource *rand.Rand) *GaussianMechanism {
	if randSource == nil {
		randSource = rand.New(rand.NewSource(42))
	}
	return &GaussianMechanism{delta: delta, randSource: randSource}
}

// AddNoise returns value plus Gaussian noise with sigma derived from the
// analytic bound sensitivity*sqrt(2*ln(1.25/delta))/epsilon.
func (gm *GaussianMechanism) AddNoise(value, sensitivity, epsilon float64) float64 {
	sigma := sensitivity * math.Sqrt(2*math.Log(1.25/gm.delta)) / epsilon
	return value + gm.randSource.NormFloat64()*sigma
}

// Sensitivity helpers for common queries.

// SensitivityCount is the sensitivity of a count query.
const SensitivityCount = 1.0

// SensitivitySum returns the sensitivity of a bounded sum query.
func SensitivitySum(minValue, maxValue float64) float64 {
	return maxValue - minValue
}

// SensitivityMean returns the sensitivity of a bounded mean over n values.
func SensitivityMean(minValue, maxValue float64, n int) float64 {
	if n <= 0 {
		return maxValue - minValue
	}
	return (maxValue - minValue) / float64(n)
}
