package extraction

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// Config controls a single extraction run.
type Config struct {
	Privacy models.PrivacyConfig `json:"privacy" yaml:"privacy"`

	// Seed drives the noise stream so runs are reproducible.
	Seed int64 `json:"seed" yaml:"seed"`

	ExtractCorrelations bool `json:"extract_correlations" yaml:"extract_correlations"`
	ExtractIntegrity    bool `json:"extract_integrity" yaml:"extract_integrity"`
	ExtractRules        bool `json:"extract_rules" yaml:"extract_rules"`
	ExtractAnomalies    bool `json:"extract_anomalies" yaml:"extract_anomalies"`

	// Strict aborts the run when an optional extractor fails. The
	// default is best-effort: the failure is logged, a warning lands in
	// the audit trail, and the component is omitted.
	Strict bool `json:"strict" yaml:"strict"`

	MinRows              int `json:"min_rows" yaml:"min_rows"`
	MaxSampleSize        int `json:"max_sample_size" yaml:"max_sample_size"`
	TopCategories        int `json:"top_categories" yaml:"top_categories"`
	MaxCorrelatedColumns int `json:"max_correlated_columns" yaml:"max_correlated_columns"`
}

// DefaultConfig returns a configuration with the standard privacy level
// and all optional extractors enabled.
func DefaultConfig() *Config {
	return &Config{
		Privacy:              models.PrivacyConfigForLevel(models.PrivacyStandard),
		Seed:                 42,
		ExtractCorrelations:  true,
		ExtractIntegrity:     true,
		ExtractRules:         true,
		ExtractAnomalies:     true,
		MinRows:              constants.DefaultMinRows,
		MaxSampleSize:        0,
		TopCategories:        constants.DefaultTopCategories,
		MaxCorrelatedColumns: constants.DefaultMaxCorrelated,
	}
}

// componentSet accumulates extractor outputs before the fingerprint is
// assembled.
type componentSet struct {
	schema       *models.SchemaFingerprint
	statistics   *models.StatisticsFingerprint
	correlations *models.CorrelationFingerprint
	integrity    *models.IntegrityFingerprint
	rules        *models.RulesFingerprint
	anomalies    *models.AnomalyFingerprint
}

// Component is one typed extractor output.
type Component interface {
	apply(set *componentSet)
}

type schemaComponent struct{ fp *models.SchemaFingerprint }
type statisticsComponent struct{ fp *models.StatisticsFingerprint }
type correlationsComponent struct{ fp *models.CorrelationFingerprint }
type integrityComponent struct{ fp *models.IntegrityFingerprint }
type rulesComponent struct{ fp *models.RulesFingerprint }
type anomaliesComponent struct{ fp *models.AnomalyFingerprint }

func (c schemaComponent) apply(set *componentSet)       { set.schema = c.fp }
func (c statisticsComponent) apply(set *componentSet)   { set.statistics = c.fp }
func (c correlationsComponent) apply(set *componentSet) { set.correlations = c.fp }
func (c integrityComponent) apply(set *componentSet)    { set.integrity = c.fp }
func (c rulesComponent) apply(set *componentSet)        { set.rules = c.fp }
func (c anomaliesComponent) apply(set *componentSet)    { set.anomalies = c.fp }

// Extractor produces one fingerprint component from a loaded table.
// Extractors run strictly in sequence over a shared privacy engine, so
// budget consumption is deterministic for a given configuration.
type Extractor interface {
	Name() string
	Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error)
}

// FingerprintExtractor coordinates the extractor sequence and assembles
// the final fingerprint. Each run gets its own privacy engine.
type FingerprintExtractor struct {
	config *Config
	logger *logrus.Logger
}

// NewFingerprintExtractor creates an extraction coordinator.
func NewFingerprintExtractor(config *Config, logger *logrus.Logger) *FingerprintExtractor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &FingerprintExtractor{config: config, logger: logger}
}

// Extract runs the full pipeline against one data source. Schema and
// statistics extraction are required; failures there abort the run.
// Optional extractors follow the configured strictness policy.
func (x *FingerprintExtractor) Extract(source DataSource) (*models.Fingerprint, error) {
	table, err := source.Load()
	if err != nil {
		return nil, err
	}
	if table.RowCount() < x.config.MinRows {
		return nil, &errors.InsufficientDataError{
			Table:    table.Name,
			Required: x.config.MinRows,
			Actual:   table.RowCount(),
		}
	}
	if x.config.MaxSampleSize > 0 && table.RowCount() > x.config.MaxSampleSize {
		// Reservoir sample rather than head truncation so sorted or
		// time-ordered sources do not bias the released statistics.
		table = &Table{
			Name:    table.Name,
			Columns: table.Columns,
			Rows:    sampleRows(table.Rows, x.config.MaxSampleSize, x.config.Seed),
		}
	}

	engine, err := privacy.NewEngine(x.config.Privacy, x.config.Seed, x.logger)
	if err != nil {
		return nil, err
	}

	type step struct {
		extractor Extractor
		required  bool
		enabled   bool
	}
	steps := []step{
		{&SchemaExtractor{}, true, true},
		{&StatisticsExtractor{}, true, true},
		{&CorrelationExtractor{}, false, x.config.ExtractCorrelations},
		{&IntegrityExtractor{}, false, x.config.ExtractIntegrity},
		{&RulesExtractor{}, false, x.config.ExtractRules},
		{&AnomalyExtractor{}, false, x.config.ExtractAnomalies},
	}

	var set componentSet
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		log := x.logger.WithFields(logrus.Fields{
			"extractor": s.extractor.Name(),
			"table":     table.Name,
		})
		component, err := s.extractor.Extract(table, x.config, engine)
		if err != nil {
			if s.required || x.config.Strict {
				errType, code := classifyExtractionError(err)
				return nil, errors.WrapError(err, errType, code,
					fmt.Sprintf("%s extraction failed", s.extractor.Name()))
			}
			log.WithError(err).Warn("Optional extractor failed, component omitted")
			engine.AddWarning(models.NewPrivacyWarning(models.WarningCaution,
				fmt.Sprintf("%s extraction skipped: %v", s.extractor.Name(), err)))
			continue
		}
		component.apply(&set)
		log.WithField("epsilon_spent", engine.Audit().TotalEpsilonSpent).Debug("Extractor completed")
	}

	meta := buildSourceMetadata(table, set.schema)
	manifest := models.NewManifest(meta, engine.Config())

	fp := models.NewFingerprint(manifest, set.schema, set.statistics, engine.Audit())
	if set.correlations != nil {
		fp.WithCorrelations(set.correlations)
	}
	if set.integrity != nil {
		fp.WithIntegrity(set.integrity)
	}
	if set.rules != nil {
		fp.WithRules(set.rules)
	}
	if set.anomalies != nil {
		fp.WithAnomalies(set.anomalies)
	}

	x.logger.WithFields(logrus.Fields{
		"table":         table.Name,
		"epsilon_spent": engine.Audit().TotalEpsilonSpent,
		"components":    componentCount(fp),
	}).Info("Fingerprint extraction complete")

	return fp, nil
}

// classifyExtractionError picks the wrap taxonomy from the cause so a
// budget failure surfaces as a privacy error rather than a statistical
// one. Unrecognized causes default to the statistical bucket.
func classifyExtractionError(err error) (errors.ErrorType, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type, appErr.Code
	}
	if stderrors.Is(err, errors.ErrBudgetExhausted) {
		return errors.ErrorTypePrivacy, errors.CodeBudgetExhausted
	}
	return errors.ErrorTypeStatistical, errors.CodeInsufficientData
}

// buildSourceMetadata derives the manifest's source description. Row
// counts come from the schema component, which already carries noise.
func buildSourceMetadata(table *Table, schema *models.SchemaFingerprint) models.SourceMetadata {
	var totalRows uint64
	tables := make([]string, 0, len(schema.Tables))
	for name, ts := range schema.Tables {
		tables = append(tables, name)
		totalRows += ts.RowCount
	}
	sort.Strings(tables)
	return models.NewSourceMetadata(fmt.Sprintf("extracted from %s", table.Name), tables, totalRows)
}

func componentCount(fp *models.Fingerprint) int {
	n := 2
	if fp.HasCorrelations() {
		n++
	}
	if fp.HasIntegrity() {
		n++
	}
	if fp.HasRules() {
		n++
	}
	if fp.HasAnomalies() {
		n++
	}
	return n
}
