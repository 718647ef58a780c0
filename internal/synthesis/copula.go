package synthesis

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// CopulaGenerator produces correlated uniform vectors from a Gaussian
// copula. The stream is fully determined by the copula parameters and
// the seed; callers map the uniforms through their own marginal
// inverse CDFs.
type CopulaGenerator struct {
	table     string
	columns   []string
	lower     *mat.TriDense
	marginals []models.EmpiricalCDF
	rng       *rand.Rand
}

// NewCopulaGenerator factorizes the copula's correlation matrix. A
// matrix that is not positive definite fails here rather than
// producing an invalid decomposition.
func NewCopulaGenerator(copula *models.GaussianCopula, seed int64) (*CopulaGenerator, error) {
	dim := copula.Dimensions()
	if dim < 2 {
		return nil, errors.NewStatisticalError(errors.CodeNoCopula,
			"copula must span at least two columns")
	}
	if len(copula.CorrelationMatrix) != dim*(dim-1)/2 {
		return nil, errors.NewStatisticalError(errors.CodeNoCopula,
			"copula correlation matrix does not match its column count")
	}

	sym := mat.NewSymDense(dim, nil)
	idx := 0
	for i := 0; i < dim; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < dim; j++ {
			sym.SetSym(i, j, copula.CorrelationMatrix[idx])
			idx++
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errors.NewStatisticalError(errors.CodeNotPositiveDefinite,
			"correlation matrix for table "+copula.Table+" is not positive definite")
	}
	lower := mat.NewTriDense(dim, mat.Lower, nil)
	chol.LTo(lower)

	return &CopulaGenerator{
		table:     copula.Table,
		columns:   append([]string(nil), copula.Columns...),
		lower:     lower,
		marginals: copula.MarginalCDFs,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Table returns the source table the copula was fitted on.
func (g *CopulaGenerator) Table() string { return g.table }

// Columns returns the column order of generated vectors.
func (g *CopulaGenerator) Columns() []string { return g.columns }

// Marginals exposes the stored marginal CDFs so callers can apply
// inverse-CDF transforms to the uniforms.
func (g *CopulaGenerator) Marginals() []models.EmpiricalCDF { return g.marginals }

// NextNormal draws one correlated standard-normal vector L·z.
func (g *CopulaGenerator) NextNormal() []float64 {
	dim := len(g.columns)
	z := make([]float64, dim)
	for i := range z {
		z[i] = g.rng.NormFloat64()
	}
	out := make([]float64, dim)
	for i := 0; i < dim; i++ {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += g.lower.At(i, j) * z[j]
		}
		out[i] = sum
	}
	return out
}

// Next draws one correlated uniform vector by pushing the normal draw
// through the standard-normal CDF.
func (g *CopulaGenerator) Next() []float64 {
	normals := g.NextNormal()
	for i, v := range normals {
		normals[i] = distuv.UnitNormal.CDF(v)
	}
	return normals
}

// Sample draws n correlated uniform vectors.
func (g *CopulaGenerator) Sample(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
