package evaluation

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// Metric weights for the overall score. Weights of absent metrics are
// redistributed proportionally across the present ones.
const (
	weightStatistical = 0.30
	weightCorrelation = 0.20
	weightSchema      = 0.20
	weightRules       = 0.20
	weightAnomaly     = 0.10
)

// ruleRateTolerance is how far a synthetic compliance rate may drift from
// the original before the rule counts as violated.
const ruleRateTolerance = 0.05

// Config controls pass/fail thresholds for fidelity evaluation.
type Config struct {
	Threshold        float64 `json:"threshold" yaml:"threshold"`
	StatisticalFloor float64 `json:"statistical_floor" yaml:"statistical_floor"`
	CorrelationFloor float64 `json:"correlation_floor" yaml:"correlation_floor"`
	SchemaFloor      float64 `json:"schema_floor" yaml:"schema_floor"`
	RulesFloor       float64 `json:"rules_floor" yaml:"rules_floor"`
	AnomalyFloor     float64 `json:"anomaly_floor" yaml:"anomaly_floor"`
}

// DefaultConfig returns the standard threshold with uniform metric floors.
func DefaultConfig() Config {
	return Config{
		Threshold:        constants.DefaultFidelityThreshold,
		StatisticalFloor: 0.5,
		CorrelationFloor: 0.5,
		SchemaFloor:      0.5,
		RulesFloor:       0.5,
		AnomalyFloor:     0.5,
	}
}

// FidelityReport scores how closely a synthetic fingerprint reproduces the
// original. Optional metrics are nil when neither side carries the
// corresponding component.
type FidelityReport struct {
	OverallScore        float64  `json:"overall_score" yaml:"overall_score"`
	StatisticalFidelity float64  `json:"statistical_fidelity" yaml:"statistical_fidelity"`
	SchemaFidelity      float64  `json:"schema_fidelity" yaml:"schema_fidelity"`
	CorrelationFidelity *float64 `json:"correlation_fidelity,omitempty" yaml:"correlation_fidelity,omitempty"`
	RuleCompliance      *float64 `json:"rule_compliance,omitempty" yaml:"rule_compliance,omitempty"`
	AnomalyFidelity     *float64 `json:"anomaly_fidelity,omitempty" yaml:"anomaly_fidelity,omitempty"`
	Threshold           float64  `json:"threshold" yaml:"threshold"`
	Passes              bool     `json:"passes" yaml:"passes"`
}

// Evaluator compares an original fingerprint against a synthetic one.
type Evaluator struct {
	config Config
	logger *logrus.Logger
}

// NewEvaluator creates an evaluator. A nil logger falls back to the
// standard logrus logger.
func NewEvaluator(config Config, logger *logrus.Logger) *Evaluator {
	if config.Threshold <= 0 {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Evaluator{config: config, logger: logger}
}

// Evaluate produces a fidelity report. Both fingerprints must carry the
// required schema and statistics components.
func (e *Evaluator) Evaluate(original, synthetic *models.Fingerprint) (*FidelityReport, error) {
	if original == nil || synthetic == nil {
		return nil, errors.NewConfigurationError(errors.CodeInvalidInput,
			"both fingerprints are required")
	}
	if original.Schema == nil || original.Statistics == nil ||
		synthetic.Schema == nil || synthetic.Statistics == nil {
		return nil, errors.NewFormatError(errors.CodeMissingEntry,
			"fingerprint is missing a required component")
	}

	report := &FidelityReport{
		Threshold:           e.config.Threshold,
		StatisticalFidelity: e.statisticalFidelity(original.Statistics, synthetic.Statistics),
		SchemaFidelity:      e.schemaFidelity(original.Schema, synthetic.Schema),
	}
	if original.HasCorrelations() && synthetic.HasCorrelations() {
		v := e.correlationFidelity(original.Correlations, synthetic.Correlations)
		report.CorrelationFidelity = &v
	}
	if original.HasRules() && synthetic.HasRules() {
		v := e.ruleCompliance(original.Rules, synthetic.Rules)
		report.RuleCompliance = &v
	}
	if original.HasAnomalies() && synthetic.HasAnomalies() {
		v := e.anomalyFidelity(original.Anomalies, synthetic.Anomalies)
		report.AnomalyFidelity = &v
	}

	report.OverallScore = e.overall(report)
	report.Passes = e.passes(report)

	e.logger.WithFields(logrus.Fields{
		"overall":     report.OverallScore,
		"statistical": report.StatisticalFidelity,
		"schema":      report.SchemaFidelity,
		"passes":      report.Passes,
	}).Info("Fidelity evaluation complete")

	return report, nil
}

func (e *Evaluator) overall(r *FidelityReport) float64 {
	sum := weightStatistical*r.StatisticalFidelity + weightSchema*r.SchemaFidelity
	weight := weightStatistical + weightSchema
	if r.CorrelationFidelity != nil {
		sum += weightCorrelation * *r.CorrelationFidelity
		weight += weightCorrelation
	}
	if r.RuleCompliance != nil {
		sum += weightRules * *r.RuleCompliance
		weight += weightRules
	}
	if r.AnomalyFidelity != nil {
		sum += weightAnomaly * *r.AnomalyFidelity
		weight += weightAnomaly
	}
	return sum / weight
}

func (e *Evaluator) passes(r *FidelityReport) bool {
	if r.OverallScore < e.config.Threshold {
		return false
	}
	if r.StatisticalFidelity < e.config.StatisticalFloor {
		return false
	}
	if r.SchemaFidelity < e.config.SchemaFloor {
		return false
	}
	if r.CorrelationFidelity != nil && *r.CorrelationFidelity < e.config.CorrelationFloor {
		return false
	}
	if r.RuleCompliance != nil && *r.RuleCompliance < e.config.RulesFloor {
		return false
	}
	if r.AnomalyFidelity != nil && *r.AnomalyFidelity < e.config.AnomalyFloor {
		return false
	}
	return true
}

func (e *Evaluator) statisticalFidelity(a, b *models.StatisticsFingerprint) float64 {
	var scores []float64

	keys := sharedKeys(a.NumericColumns, b.NumericColumns)
	for _, key := range keys {
		scores = append(scores, numericColumnScore(a.NumericColumns[key], b.NumericColumns[key]))
	}

	ckeys := make([]string, 0, len(a.CategoricalColumns))
	for k := range a.CategoricalColumns {
		if _, ok := b.CategoricalColumns[k]; ok {
			ckeys = append(ckeys, k)
		}
	}
	sort.Strings(ckeys)
	for _, key := range ckeys {
		scores = append(scores, categoricalColumnScore(a.CategoricalColumns[key], b.CategoricalColumns[key]))
	}

	if len(scores) == 0 {
		return 0
	}
	return mean(scores)
}

func numericColumnScore(a, b *models.NumericStats) float64 {
	parts := []float64{
		relativeScore(a.Mean, b.Mean),
		relativeScore(a.StdDev, b.StdDev),
		ladderKSScore(a.Percentiles, b.Percentiles),
		ladderAlignmentScore(a.Percentiles, b.Percentiles),
	}
	if len(a.BenfordFirstDigit) == 9 && len(b.BenfordFirstDigit) == 9 {
		parts = append(parts, 1-totalVariation(a.BenfordFirstDigit, b.BenfordFirstDigit))
	}
	return mean(parts)
}

func categoricalColumnScore(a, b *models.CategoricalStats) float64 {
	fa := frequencyMap(a.TopValues)
	fb := frequencyMap(b.TopValues)
	var tv float64
	for v, p := range fa {
		tv += math.Abs(p - fb[v])
	}
	for v, p := range fb {
		if _, ok := fa[v]; !ok {
			tv += p
		}
	}
	return clamp01(1 - tv/2)
}

// relativeScore maps relative error |a-b|/|a| onto [0,1].
func relativeScore(a, b float64) float64 {
	denom := math.Abs(a)
	if denom < 1e-12 {
		denom = 1
	}
	return clamp01(1 - math.Abs(a-b)/denom)
}

// ladderKSScore approximates a Kolmogorov-Smirnov statistic by reading the
// level of one ladder at the other's quantiles and taking the largest
// vertical gap.
func ladderKSScore(a, b models.Percentiles) float64 {
	av := a.ToArray()
	bv := b.ToArray()
	var ks float64
	for i, level := range models.PercentileLevels {
		gap := math.Abs(level - ladderLevelAt(bv[:], av[i]))
		if gap > ks {
			ks = gap
		}
		gap = math.Abs(level - ladderLevelAt(av[:], bv[i]))
		if gap > ks {
			ks = gap
		}
	}
	return clamp01(1 - ks)
}

// ladderLevelAt interpolates the cumulative level of a ladder at value x.
func ladderLevelAt(ladder []float64, x float64) float64 {
	levels := models.PercentileLevels
	if x <= ladder[0] {
		return levels[0]
	}
	if x >= ladder[len(ladder)-1] {
		return levels[len(levels)-1]
	}
	for i := 1; i < len(ladder); i++ {
		if x <= ladder[i] {
			lo, hi := ladder[i-1], ladder[i]
			if hi == lo {
				return levels[i]
			}
			frac := (x - lo) / (hi - lo)
			return levels[i-1] + frac*(levels[i]-levels[i-1])
		}
	}
	return levels[len(levels)-1]
}

// ladderAlignmentScore averages per-level quantile error normalized by the
// original's spread.
func ladderAlignmentScore(a, b models.Percentiles) float64 {
	av := a.ToArray()
	bv := b.ToArray()
	spread := av[8] - av[0]
	if spread < 1e-12 {
		spread = 1
	}
	var total float64
	for i := range av {
		total += math.Abs(av[i]-bv[i]) / spread
	}
	return clamp01(1 - total/float64(len(av)))
}

func (e *Evaluator) correlationFidelity(a, b *models.CorrelationFingerprint) float64 {
	var scores []float64

	tables := make([]string, 0, len(a.Matrices))
	for t := range a.Matrices {
		if _, ok := b.Matrices[t]; ok {
			tables = append(tables, t)
		}
	}
	sort.Strings(tables)
	for _, t := range tables {
		if s, ok := matrixRMSEScore(a.Matrices[t], b.Matrices[t]); ok {
			scores = append(scores, s)
		}
	}

	for i := range a.Copulas {
		if bc := b.CopulaFor(a.Copulas[i].Table); bc != nil {
			if s, ok := copulaDistanceScore(&a.Copulas[i], bc); ok {
				scores = append(scores, s)
			}
		}
	}

	if len(scores) == 0 {
		return 0
	}
	return mean(scores)
}

// matrixRMSEScore compares entries for columns present in both matrices.
func matrixRMSEScore(a, b *models.CorrelationMatrix) (float64, bool) {
	var shared []string
	for _, c := range a.Columns {
		for _, d := range b.Columns {
			if c == d {
				shared = append(shared, c)
				break
			}
		}
	}
	if len(shared) < 2 {
		return 0, false
	}
	var sumSq float64
	var n int
	for i := 0; i < len(shared); i++ {
		for j := i + 1; j < len(shared); j++ {
			va, _ := a.GetByName(shared[i], shared[j])
			vb, _ := b.GetByName(shared[i], shared[j])
			d := va - vb
			sumSq += d * d
			n++
		}
	}
	rmse := math.Sqrt(sumSq / float64(n))
	return clamp01(1 - rmse), true
}

func copulaDistanceScore(a, b *models.GaussianCopula) (float64, bool) {
	if len(a.CorrelationMatrix) != len(b.CorrelationMatrix) || len(a.CorrelationMatrix) == 0 {
		return 0, false
	}
	var sumSq float64
	for i := range a.CorrelationMatrix {
		d := a.CorrelationMatrix[i] - b.CorrelationMatrix[i]
		sumSq += d * d
	}
	rmse := math.Sqrt(sumSq / float64(len(a.CorrelationMatrix)))
	return clamp01(1 - rmse), true
}

// schemaFidelity counts matching schema declarations over the original's
// declarations. Missing tables or columns count every declaration as a miss.
func (e *Evaluator) schemaFidelity(a, b *models.SchemaFingerprint) float64 {
	var total, matched int
	names := make([]string, 0, len(a.Tables))
	for n := range a.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		at := a.Tables[name]
		bt := b.Tables[name]
		for i := range at.Columns {
			ac := &at.Columns[i]
			total += 3
			if bt == nil {
				continue
			}
			bc := bt.GetColumn(ac.Name)
			if bc == nil {
				continue
			}
			if ac.DataType == bc.DataType {
				matched++
			}
			if ac.Nullable == bc.Nullable {
				matched++
			}
			if ac.IsPrimaryKey == bc.IsPrimaryKey {
				matched++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// ruleCompliance is the fraction of the original's rules the synthetic
// fingerprint remains consistent with.
func (e *Evaluator) ruleCompliance(a, b *models.RulesFingerprint) float64 {
	var total, consistent int

	check := func(name string, origRate float64) {
		total++
		stats, ok := b.ComplianceStats[name]
		if !ok {
			return
		}
		if math.Abs(stats.ComplianceRate-origRate) <= ruleRateTolerance {
			consistent++
		}
	}
	for _, r := range a.BalanceRules {
		check(r.Name, r.ComplianceRate)
	}
	for _, r := range a.ApprovalThresholds {
		check(r.Name, r.ComplianceRate)
	}
	for _, r := range a.RangeConstraints {
		check(r.Name, r.ComplianceRate)
	}
	for _, r := range a.TemporalRules {
		check(r.Name, r.ComplianceRate)
	}

	if total == 0 {
		return 1
	}
	return float64(consistent) / float64(total)
}

func (e *Evaluator) anomalyFidelity(a, b *models.AnomalyFingerprint) float64 {
	rateScore := relativeScore(a.Overall.AnomalyRate, b.Overall.AnomalyRate)

	var tv float64
	for c, p := range a.Overall.CategoryDistribution {
		tv += math.Abs(p - b.Overall.CategoryDistribution[c])
	}
	for c, p := range b.Overall.CategoryDistribution {
		if _, ok := a.Overall.CategoryDistribution[c]; !ok {
			tv += p
		}
	}
	var mass float64
	for _, p := range a.Overall.CategoryDistribution {
		mass += p
	}
	if mass < 1e-12 {
		return rateScore
	}
	catScore := clamp01(1 - tv/(2*mass))
	return (rateScore + catScore) / 2
}

func sharedKeys(a, b map[string]*models.NumericStats) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func frequencyMap(values []models.CategoryFrequency) map[string]float64 {
	out := make(map[string]float64, len(values))
	for _, v := range values {
		out[v.Value] = v.Frequency
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func totalVariation(a, b []float64) float64 {
	var tv float64
	for i := range a {
		tv += math.Abs(a[i] - b[i])
	}
	return clamp01(tv / 2)
}
