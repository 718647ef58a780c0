package synthesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferloop/datasynth/pkg/models"
)

// fitTolerance is the maximum mean quantile error (relative to the
// inter-ladder spread) accepted for a parametric fit. Above this the
// fitter falls back to the empirical ladder.
const fitTolerance = 0.10

// skewThreshold separates roughly symmetric columns from right-skewed
// ones when deciding whether to try a log-normal fit first.
const skewThreshold = 0.05

// quantiler is the subset of gonum's distribution API the fitter needs.
type quantiler interface {
	Quantile(p float64) float64
}

// FitDistribution selects a distribution family and parameters for a
// numeric column summary. The decision depends only on the summary
// statistics, so identical inputs always produce identical fits.
func FitDistribution(stats *models.NumericStats) (models.DistributionType, models.DistributionParams) {
	if stats == nil || stats.Count == 0 {
		return models.DistributionUnknown, models.DistributionParams{}
	}
	if stats.StdDev == 0 || stats.Min == stats.Max {
		return models.DistributionPointMass, models.NormalParams(stats.Mean, 0)
	}

	arr := stats.Percentiles.ToArray()
	ladder := arr[:]

	// Strictly positive, right-skewed data is tried in the log domain
	// first. Monetary amounts almost always land here.
	if stats.Min > 0 && rightSkewed(stats) {
		mu, sigma := logNormalFromLadder(&stats.Percentiles)
		if sigma > 0 {
			dist := distuv.LogNormal{Mu: mu, Sigma: sigma}
			if ladderError(dist, ladder) <= fitTolerance {
				return models.DistributionLogNormal, models.LogNormalParams(mu, sigma)
			}
		}
	}

	type candidate struct {
		kind   models.DistributionType
		params models.DistributionParams
		dist   quantiler
	}

	variance := stats.StdDev * stats.StdDev
	candidates := []candidate{
		{
			kind:   models.DistributionNormal,
			params: models.NormalParams(stats.Mean, stats.StdDev),
			dist:   distuv.Normal{Mu: stats.Mean, Sigma: stats.StdDev},
		},
	}
	if stats.Min >= 0 && stats.Mean > 0 {
		shape := stats.Mean * stats.Mean / variance
		rate := stats.Mean / variance
		candidates = append(candidates, candidate{
			kind:   models.DistributionGamma,
			params: models.GammaParams(shape, rate),
			dist:   distuv.Gamma{Alpha: shape, Beta: rate},
		})
		candidates = append(candidates, candidate{
			kind:   models.DistributionExponential,
			params: models.ExponentialParams(1 / stats.Mean),
			dist:   distuv.Exponential{Rate: 1 / stats.Mean},
		})
	}

	bestKind := models.DistributionEmpirical
	bestParams := models.EmpiricalParams(ladder)
	bestErr := math.Inf(1)
	for _, c := range candidates {
		err := ladderError(c.dist, ladder)
		if err < bestErr {
			bestErr = err
			bestKind = c.kind
			bestParams = c.params
		}
	}
	if bestErr > fitTolerance {
		return models.DistributionEmpirical, models.EmpiricalParams(ladder)
	}
	return bestKind, bestParams
}

// rightSkewed reports whether the summary indicates a right-skewed
// shape: the mean sits noticeably above the median relative to spread.
func rightSkewed(stats *models.NumericStats) bool {
	if stats.StdDev == 0 {
		return false
	}
	return (stats.Mean-stats.Percentiles.P50)/stats.StdDev > skewThreshold
}

// logNormalFromLadder estimates log-normal parameters from the
// percentile ladder: the log of the median gives mu, and the spread of
// the log-transformed 10th/90th percentiles gives sigma.
func logNormalFromLadder(p *models.Percentiles) (mu, sigma float64) {
	if p.P50 <= 0 || p.P10 <= 0 || p.P90 <= 0 {
		return 0, 0
	}
	mu = math.Log(p.P50)
	// z(0.90) - z(0.10) = 2 * 1.2816
	sigma = (math.Log(p.P90) - math.Log(p.P10)) / (2 * 1.281552)
	return mu, sigma
}

// ladderError measures how far a candidate distribution's quantiles sit
// from the observed percentile ladder, normalized by the observed
// spread so columns of any magnitude compare on the same scale.
func ladderError(dist quantiler, ladder []float64) float64 {
	spread := ladder[len(ladder)-1] - ladder[0]
	if spread <= 0 {
		return math.Inf(1)
	}
	var total float64
	for i, level := range models.PercentileLevels {
		q := dist.Quantile(level)
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return math.Inf(1)
		}
		total += math.Abs(q-ladder[i]) / spread
	}
	return total / float64(len(models.PercentileLevels))
}
