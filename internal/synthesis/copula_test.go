package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

func testCopula(columns []string, upper []float64) *models.GaussianCopula {
	return &models.GaussianCopula{
		Name:              "ledger_copula",
		Table:             "ledger",
		Columns:           columns,
		CorrelationMatrix: upper,
	}
}

func TestCopulaDeterministicForSeed(t *testing.T) {
	copula := testCopula([]string{"amount", "debit", "tax"}, []float64{0.6, 0.3, 0.5})

	a, err := NewCopulaGenerator(copula, 17)
	require.NoError(t, err)
	b, err := NewCopulaGenerator(copula, 17)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}

	c, err := NewCopulaGenerator(copula, 18)
	require.NoError(t, err)
	assert.NotEqual(t, a.Next(), c.Next())
}

func TestCopulaRejectsNonPositiveDefinite(t *testing.T) {
	copula := testCopula([]string{"a", "b", "c"}, []float64{0.9, 0.9, -0.9})

	_, err := NewCopulaGenerator(copula, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotPositiveDefinite)
}

func TestCopulaRejectsShapeMismatch(t *testing.T) {
	copula := testCopula([]string{"a", "b", "c"}, []float64{0.5})

	_, err := NewCopulaGenerator(copula, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoCopula)

	_, err = NewCopulaGenerator(testCopula([]string{"only"}, nil), 1)
	assert.ErrorIs(t, err, errors.ErrNoCopula)
}

func TestCopulaCorrelationConvergence(t *testing.T) {
	const rho = 0.7
	copula := testCopula([]string{"amount", "tax"}, []float64{rho})

	gen, err := NewCopulaGenerator(copula, 101)
	require.NoError(t, err)

	const n = 10000
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		v := gen.NextNormal()
		xs[i] = v[0]
		ys[i] = v[1]
	}
	assert.InDelta(t, rho, stat.Correlation(xs, ys, nil), 0.05)
}

func TestCopulaUniformMarginals(t *testing.T) {
	copula := testCopula([]string{"amount", "tax"}, []float64{0.4})

	gen, err := NewCopulaGenerator(copula, 5)
	require.NoError(t, err)

	const n = 10000
	var sum float64
	for i := 0; i < n; i++ {
		v := gen.Next()
		for _, u := range v {
			require.GreaterOrEqual(t, u, 0.0)
			require.LessOrEqual(t, u, 1.0)
		}
		sum += v[0]
	}
	assert.InDelta(t, 0.5, sum/n, 0.02)
}
