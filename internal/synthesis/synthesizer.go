package synthesis

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// Options controls how a fingerprint is turned into generator
// configuration.
type Options struct {
	Scale                float64 `json:"scale" yaml:"scale"`
	Seed                 int64   `json:"seed" yaml:"seed"`
	PreserveCorrelations bool    `json:"preserve_correlations" yaml:"preserve_correlations"`
	InjectAnomalies      bool    `json:"inject_anomalies" yaml:"inject_anomalies"`
}

// DefaultOptions returns synthesis options at original scale with
// correlations and anomaly injection enabled.
func DefaultOptions() Options {
	return Options{
		Scale:                1.0,
		Seed:                 42,
		PreserveCorrelations: true,
		InjectAnomalies:      true,
	}
}

// ConfigPatch holds generator settings keyed by dotted path, e.g.
// "tables.ledger.row_count" or
// "tables.ledger.columns.amount.distribution".
type ConfigPatch map[string]interface{}

// SortedKeys returns the patch keys in lexical order.
func (p ConfigPatch) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Synthesizer translates a fingerprint into a generator configuration
// patch plus copula generators for correlated sampling.
type Synthesizer struct {
	logger *logrus.Logger
}

// NewSynthesizer creates a synthesizer. A nil logger falls back to the
// standard logrus logger.
func NewSynthesizer(logger *logrus.Logger) *Synthesizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Synthesizer{logger: logger}
}

// Synthesize builds the configuration patch and, when requested, one
// copula generator per stored correlation group. A correlation matrix
// that cannot be factorized aborts the whole run.
func (s *Synthesizer) Synthesize(fp *models.Fingerprint, opts Options) (ConfigPatch, []*CopulaGenerator, error) {
	if fp == nil {
		return nil, nil, errors.NewConfigurationError(errors.CodeInvalidInput,
			"fingerprint is required")
	}
	if opts.Scale <= 0 {
		opts.Scale = 1.0
	}

	patch := make(ConfigPatch)
	s.patchTables(patch, fp, opts.Scale)
	s.patchNumericColumns(patch, fp)
	if opts.InjectAnomalies && fp.HasAnomalies() {
		s.patchAnomalies(patch, fp.Anomalies)
	}

	var generators []*CopulaGenerator
	if opts.PreserveCorrelations && fp.HasCorrelations() {
		for i := range fp.Correlations.Copulas {
			copula := &fp.Correlations.Copulas[i]
			gen, err := NewCopulaGenerator(copula, opts.Seed+int64(i))
			if err != nil {
				return nil, nil, err
			}
			generators = append(generators, gen)
			patch[fmt.Sprintf("tables.%s.copula.columns", copula.Table)] = append([]string(nil), copula.Columns...)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"patch_entries": len(patch),
		"copulas":       len(generators),
		"scale":         opts.Scale,
		"seed":          opts.Seed,
	}).Info("Synthesized generator configuration")

	return patch, generators, nil
}

func (s *Synthesizer) patchTables(patch ConfigPatch, fp *models.Fingerprint, scale float64) {
	names := make([]string, 0, len(fp.Schema.Tables))
	for name := range fp.Schema.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ts := fp.Schema.Tables[name]
		scaled := uint64(math.Round(float64(ts.RowCount) * scale))
		patch[fmt.Sprintf("tables.%s.row_count", name)] = scaled
	}
}

func (s *Synthesizer) patchNumericColumns(patch ConfigPatch, fp *models.Fingerprint) {
	keys := make([]string, 0, len(fp.Statistics.NumericColumns))
	for k := range fp.Statistics.NumericColumns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ns := fp.Statistics.NumericColumns[key]
		prefix := "tables." + dottedColumnPath(key)
		patch[prefix+".distribution"] = string(ns.Distribution)
		if ns.DistributionParams.Param1 != nil {
			patch[prefix+".param1"] = *ns.DistributionParams.Param1
		}
		if ns.DistributionParams.Param2 != nil {
			patch[prefix+".param2"] = *ns.DistributionParams.Param2
		}
		if len(ns.DistributionParams.Quantiles) > 0 {
			patch[prefix+".quantiles"] = append([]float64(nil), ns.DistributionParams.Quantiles...)
		}
		patch[prefix+".min"] = ns.Min
		patch[prefix+".max"] = ns.Max
		if ns.ZeroRate > 0 {
			patch[prefix+".zero_rate"] = ns.ZeroRate
		}
		if ns.NegativeRate > 0 {
			patch[prefix+".negative_rate"] = ns.NegativeRate
		}
	}

	ckeys := make([]string, 0, len(fp.Statistics.CategoricalColumns))
	for k := range fp.Statistics.CategoricalColumns {
		ckeys = append(ckeys, k)
	}
	sort.Strings(ckeys)
	for _, key := range ckeys {
		cs := fp.Statistics.CategoricalColumns[key]
		prefix := "tables." + dottedColumnPath(key)
		weights := make(map[string]float64, len(cs.TopValues))
		for _, tv := range cs.TopValues {
			weights[tv.Value] = tv.Frequency
		}
		patch[prefix+".category_weights"] = weights
	}
}

func (s *Synthesizer) patchAnomalies(patch ConfigPatch, anomalies *models.AnomalyFingerprint) {
	patch["anomaly_injection.enabled"] = anomalies.Overall.AnomalyRate > 0
	patch["anomaly_injection.overall_rate"] = anomalies.Overall.AnomalyRate
	cats := make([]string, 0, len(anomalies.Overall.CategoryDistribution))
	for c := range anomalies.Overall.CategoryDistribution {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		patch["anomaly_injection.categories."+c] = anomalies.Overall.CategoryDistribution[c]
	}
	if anomalies.TemporalPatterns.MonthEndMultiplier > 0 {
		patch["anomaly_injection.month_end_multiplier"] = anomalies.TemporalPatterns.MonthEndMultiplier
	}
	if anomalies.TemporalPatterns.YearEndMultiplier > 0 {
		patch["anomaly_injection.year_end_multiplier"] = anomalies.TemporalPatterns.YearEndMultiplier
	}
}

// dottedColumnPath turns "table.column" into "table.columns.column" so
// patch paths group all column settings under the table.
func dottedColumnPath(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i] + ".columns." + key[i+1:]
		}
	}
	return key
}
