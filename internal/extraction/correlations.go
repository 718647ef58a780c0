package extraction

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// cdfGridTarget caps the support points stored per marginal CDF so
// large columns do not bloat the fingerprint.
const cdfGridTarget = constants.DefaultCDFGridPoints

// CorrelationExtractor computes a Pearson correlation matrix over the
// numeric columns and captures a Gaussian copula with winsorized
// empirical marginals for later synthesis.
type CorrelationExtractor struct{}

func (e *CorrelationExtractor) Name() string { return "correlations" }

func (e *CorrelationExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	names, columns := numericColumns(table)
	if len(names) < 2 {
		return nil, errors.NewStatisticalError(errors.CodeInsufficientData,
			"need at least two numeric columns for correlation analysis")
	}
	if max := config.MaxCorrelatedColumns; max > 0 && len(names) > max {
		names = names[:max]
		columns = columns[:max]
	}

	// Rows with unparseable cells leave columns of different lengths;
	// align on the shortest so pairwise indices agree.
	minLen := len(columns[0])
	for _, c := range columns[1:] {
		if len(c) < minLen {
			minLen = len(c)
		}
	}
	if minLen < config.MinRows {
		return nil, &errors.InsufficientDataError{Table: table.Name, Required: config.MinRows, Actual: minLen}
	}

	matrix := models.NewCorrelationMatrix(names, models.CorrelationPearson)
	matrix.SampleSize = uint64(minLen)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			matrix.Set(i, j, stat.Correlation(columns[i][:minLen], columns[j][:minLen], nil))
		}
	}

	marginals := make([]models.EmpiricalCDF, len(names))
	for i, name := range names {
		values := make([]float64, minLen)
		copy(values, columns[i][:minLen])
		engine.Winsorize(values, models.ColumnKey(table.Name, name)+".cdf")
		sort.Float64s(values)
		marginals[i] = models.NewEmpiricalCDF(name, downsample(values, cdfGridTarget))
	}

	fp := models.NewCorrelationFingerprint()
	fp.AddMatrix(table.Name, matrix)
	fp.AddCopula(models.GaussianCopula{
		Name:              table.Name + "_copula",
		Table:             table.Name,
		Columns:           names,
		CorrelationMatrix: matrix.Correlations,
		MarginalCDFs:      marginals,
	})
	return correlationsComponent{fp: fp}, nil
}

// numericColumns returns the parsed numeric columns in table order.
func numericColumns(table *Table) ([]string, [][]float64) {
	var names []string
	var columns [][]float64
	for i, name := range table.Columns {
		if values := parseNumericColumn(table.ColumnValues(i)); values != nil {
			names = append(names, name)
			columns = append(columns, values)
		}
	}
	return names, columns
}

// downsample thins a sorted slice to at most target points, always
// keeping both endpoints.
func downsample(sorted []float64, target int) []float64 {
	if target <= 0 || len(sorted) <= target {
		return sorted
	}
	out := make([]float64, target)
	step := float64(len(sorted)-1) / float64(target-1)
	for i := range out {
		out[i] = sorted[int(float64(i)*step+0.5)]
	}
	out[target-1] = sorted[len(sorted)-1]
	return out
}
