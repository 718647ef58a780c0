package models

import "sort"

// CorrelationFingerprint carries pairwise correlation structure and the
// copulas used for multivariate generation.
type CorrelationFingerprint struct {
	Matrices map[string]*CorrelationMatrix `json:"matrices" yaml:"matrices"`
	Copulas  []GaussianCopula              `json:"copulas,omitempty" yaml:"copulas,omitempty"`
}

// NewCorrelationFingerprint creates an empty correlation fingerprint.
func NewCorrelationFingerprint() *CorrelationFingerprint {
	return &CorrelationFingerprint{
		Matrices: make(map[string]*CorrelationMatrix),
	}
}

// AddMatrix registers a correlation matrix for a table.
func (c *CorrelationFingerprint) AddMatrix(table string, matrix *CorrelationMatrix) {
	c.Matrices[table] = matrix
}

// AddCopula appends a copula.
func (c *CorrelationFingerprint) AddCopula(copula GaussianCopula) {
	c.Copulas = append(c.Copulas, copula)
}

// CopulaFor returns the first copula registered for a table, or nil.
func (c *CorrelationFingerprint) CopulaFor(table string) *GaussianCopula {
	for i := range c.Copulas {
		if c.Copulas[i].Table == table {
			return &c.Copulas[i]
		}
	}
	return nil
}

// CorrelationMatrix stores pairwise correlations for the numeric columns of a
// table as a flattened upper triangle without the diagonal, in order
// (0,1), (0,2), ..., (0,n-1), (1,2), ..., (n-2,n-1).
type CorrelationMatrix struct {
	Columns      []string        `json:"columns" yaml:"columns"`
	Correlations []float64       `json:"correlations" yaml:"correlations"`
	Type         CorrelationType `json:"correlation_type" yaml:"correlation_type"`
	SampleSize   uint64          `json:"sample_size" yaml:"sample_size"`
}

// NewCorrelationMatrix creates a zeroed matrix over the given columns.
func NewCorrelationMatrix(columns []string, corrType CorrelationType) *CorrelationMatrix {
	n := len(columns)
	return &CorrelationMatrix{
		Columns:      columns,
		Correlations: make([]float64, n*(n-1)/2),
		Type:         corrType,
	}
}

func (m *CorrelationMatrix) triIndex(i, j int) (int, bool) {
	if i == j {
		return 0, false
	}
	low, high := i, j
	if low > high {
		low, high = high, low
	}
	n := len(m.Columns)
	if high >= n || low < 0 {
		return 0, false
	}
	idx := high - low - 1
	for k := 0; k < low; k++ {
		idx += n - k - 1
	}
	return idx, idx < len(m.Correlations)
}

// Get returns the correlation between column indices i and j. The diagonal is
// always 1. Out-of-range indices return (0, false).
func (m *CorrelationMatrix) Get(i, j int) (float64, bool) {
	if i == j {
		if i < 0 || i >= len(m.Columns) {
			return 0, false
		}
		return 1.0, true
	}
	idx, ok := m.triIndex(i, j)
	if !ok {
		return 0, false
	}
	return m.Correlations[idx], true
}

// Set stores the correlation between column indices i and j. Setting the
// diagonal is a no-op.
func (m *CorrelationMatrix) Set(i, j int, value float64) {
	idx, ok := m.triIndex(i, j)
	if !ok {
		return
	}
	m.Correlations[idx] = value
}

// GetByName returns the correlation between two named columns.
func (m *CorrelationMatrix) GetByName(col1, col2 string) (float64, bool) {
	i := m.columnIndex(col1)
	j := m.columnIndex(col2)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Get(i, j)
}

func (m *CorrelationMatrix) columnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ToFullMatrix expands the triangle into a full symmetric n x n matrix in
// row-major order.
func (m *CorrelationMatrix) ToFullMatrix() []float64 {
	n := len(m.Columns)
	full := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, _ := m.Get(i, j)
			full[i*n+j] = v
		}
	}
	return full
}

// CorrelationMatrixFromFull builds a triangle-form matrix from a row-major
// full symmetric matrix.
func CorrelationMatrixFromFull(columns []string, full []float64, corrType CorrelationType) *CorrelationMatrix {
	n := len(columns)
	m := NewCorrelationMatrix(columns, corrType)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, full[i*n+j])
		}
	}
	return m
}

// CorrelationType enumerates correlation coefficients.
type CorrelationType string

const (
	CorrelationPearson  CorrelationType = "pearson"
	CorrelationSpearman CorrelationType = "spearman"
	CorrelationCramersV CorrelationType = "cramers_v"
)

// GaussianCopula preserves multivariate dependence for a set of columns. The
// correlation matrix is stored as a flattened upper triangle in the same
// order as CorrelationMatrix.
type GaussianCopula struct {
	Name              string         `json:"name" yaml:"name"`
	Table             string         `json:"table" yaml:"table"`
	Columns           []string       `json:"columns" yaml:"columns"`
	CorrelationMatrix []float64      `json:"correlation_matrix" yaml:"correlation_matrix"`
	MarginalCDFs      []EmpiricalCDF `json:"marginal_cdfs,omitempty" yaml:"marginal_cdfs,omitempty"`
}

// Dimensions returns the number of columns the copula spans.
func (g *GaussianCopula) Dimensions() int {
	return len(g.Columns)
}

// EmpiricalCDF is a piecewise-linear CDF over privacy-processed values.
type EmpiricalCDF struct {
	Column        string    `json:"column" yaml:"column"`
	Values        []float64 `json:"values" yaml:"values"`
	Probabilities []float64 `json:"probabilities" yaml:"probabilities"`
}

// NewEmpiricalCDF builds a CDF from already-sorted values, assigning
// probability i/n to the i-th value.
func NewEmpiricalCDF(column string, sorted []float64) EmpiricalCDF {
	n := len(sorted)
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = float64(i+1) / float64(n)
	}
	return EmpiricalCDF{Column: column, Values: sorted, Probabilities: probs}
}

// CDF evaluates the cumulative probability at x with linear interpolation.
func (e *EmpiricalCDF) CDF(x float64) float64 {
	if len(e.Values) == 0 {
		return 0
	}
	i := sort.SearchFloat64s(e.Values, x)
	if i < len(e.Values) && e.Values[i] == x {
		return e.Probabilities[i]
	}
	if i == 0 {
		return 0
	}
	if i >= len(e.Values) {
		return 1
	}
	x0, x1 := e.Values[i-1], e.Values[i]
	p0, p1 := e.Probabilities[i-1], e.Probabilities[i]
	if x1 == x0 {
		return p1
	}
	return p0 + (p1-p0)*(x-x0)/(x1-x0)
}

// Quantile evaluates the inverse CDF at probability p with linear
// interpolation, clamping to the value range.
func (e *EmpiricalCDF) Quantile(p float64) float64 {
	if len(e.Values) == 0 {
		return 0
	}
	if p <= 0 {
		return e.Values[0]
	}
	if p >= 1 {
		return e.Values[len(e.Values)-1]
	}
	i := sort.SearchFloat64s(e.Probabilities, p)
	if i < len(e.Probabilities) && e.Probabilities[i] == p {
		return e.Values[i]
	}
	if i == 0 {
		return e.Values[0]
	}
	if i >= len(e.Probabilities) {
		return e.Values[len(e.Values)-1]
	}
	p0, p1 := e.Probabilities[i-1], e.Probabilities[i]
	x0, x1 := e.Values[i-1], e.Values[i]
	if p1 == p0 {
		return x1
	}
	return x0 + (x1-x0)*(p-p0)/(p1-p0)
}
