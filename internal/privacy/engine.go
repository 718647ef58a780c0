package privacy

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// OtherCategory is the bucket rare categorical values are folded into.
const OtherCategory = "__other__"

// noiseQueries is the divisor splitting the epsilon budget across the many
// noise queries a full extraction makes.
const noiseQueries = 100.0

// CategoryCount is a raw categorical value with its occurrence count.
type CategoryCount struct {
	Value string
	Count uint64
}

// Engine applies privacy mechanisms during extraction and keeps the audit
// trail. One engine serves one extraction run; its budget is never reused.
//
// All methods are safe for concurrent use. The budget check and commit happen
// under one lock, so concurrent spends never overshoot the limit.
type Engine struct {
	mu      sync.Mutex
	config  models.PrivacyConfig
	audit   *models.PrivacyAudit
	laplace *LaplaceMechanism
	logger  *logrus.Logger
}

// NewEngine creates an engine for one extraction run. A nil logger gets a
// default logrus logger.
func NewEngine(config models.PrivacyConfig, seed int64, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if config.Epsilon <= 0 {
		return nil, errors.NewPrivacyError(errors.CodeInvalidEpsilon,
			fmt.Sprintf("epsilon must be positive, got %f", config.Epsilon))
	}
	if config.KAnonymity < 1 {
		return nil, errors.NewPrivacyError(errors.CodeInvalidKAnon,
			fmt.Sprintf("k-anonymity threshold must be at least 1, got %d", config.KAnonymity))
	}
	return &Engine{
		config:  config,
		audit:   models.NewPrivacyAudit(config.Epsilon, config.KAnonymity),
		laplace: NewLaplaceMechanism(rand.New(rand.NewSource(seed))),
		logger:  logger,
	}, nil
}

// NewEngineForLevel creates an engine from a privacy preset.
func NewEngineForLevel(level models.PrivacyLevel, seed int64, logger *logrus.Logger) (*Engine, error) {
	return NewEngine(models.PrivacyConfigForLevel(level), seed, logger)
}

// Config returns the privacy parameters the engine was built with.
func (e *Engine) Config() models.PrivacyConfig {
	return e.config
}

// CanSpend reports whether the remaining budget covers epsilon.
func (e *Engine) CanSpend(epsilon float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audit.RemainingBudget() >= epsilon
}

// RemainingBudget returns epsilon still available.
func (e *Engine) RemainingBudget() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audit.RemainingBudget()
}

// spendLocked checks and commits epsilon under the already-held lock. On
// failure nothing is committed and the spent total is unchanged.
func (e *Engine) spendLocked(epsilon float64) error {
	if e.audit.TotalEpsilonSpent+epsilon > e.audit.EpsilonBudget {
		return &errors.BudgetExhaustedError{
			Spent: e.audit.TotalEpsilonSpent + epsilon,
			Limit: e.audit.EpsilonBudget,
		}
	}
	return nil
}

// Spend commits epsilon against the budget for a caller-applied mechanism.
// The check and the commit are atomic: a failed spend leaves the spent total
// untouched.
func (e *Engine) Spend(epsilon float64, target, description string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.spendLocked(epsilon); err != nil {
		return err
	}
	action := models.NewPrivacyAction(models.ActionLaplaceNoise, target, description,
		"Differential privacy protection").WithEpsilon(epsilon)
	e.audit.RecordAction(action)
	return nil
}

// AddNoise noises value with the Laplace mechanism, spending a per-query
// share of the budget first. If the spend would exceed the budget the value
// is returned unmodified alongside the error and nothing is recorded.
func (e *Engine) AddNoise(value, sensitivity float64, target string) (float64, error) {
	epsilonPerQuery := e.config.Epsilon / noiseQueries

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.spendLocked(epsilonPerQuery); err != nil {
		e.logger.WithFields(logrus.Fields{
			"target":  target,
			"epsilon": epsilonPerQuery,
		}).Warn("Privacy budget exhausted, value not released")
		return value, err
	}

	noised := e.laplace.AddNoise(value, sensitivity, epsilonPerQuery)

	action := models.NewPrivacyAction(models.ActionLaplaceNoise, target,
		fmt.Sprintf("Added Laplace noise with sensitivity=%g, epsilon=%g", sensitivity, epsilonPerQuery),
		"Differential privacy protection").
		WithEpsilon(epsilonPerQuery).
		WithParameter("sensitivity", fmt.Sprintf("%g", sensitivity)).
		WithParameter("mechanism", "laplace")
	e.audit.RecordAction(action)

	return noised, nil
}

// AddNoiseToCount noises a count with unit sensitivity, clamped non-negative.
func (e *Engine) AddNoiseToCount(count uint64, target string) (uint64, error) {
	noised, err := e.AddNoise(float64(count), SensitivityCount, target)
	if err != nil {
		return count, err
	}
	if noised < 0 {
		return 0, nil
	}
	return uint64(noised + 0.5), nil
}

// SuppressRareCategories drops categories occurring fewer than the k-anonymity
// threshold times and folds their mass into a single OtherCategory bucket.
// One summarizing audit record covers the whole column.
func (e *Engine) SuppressRareCategories(counts []CategoryCount, total uint64, target string) []models.CategoryFrequency {
	threshold := uint64(e.config.KAnonymity)
	if mo := uint64(e.config.MinOccurrence); mo > threshold {
		threshold = mo
	}

	kept := make([]models.CategoryFrequency, 0, len(counts))
	var suppressedCount int
	var suppressedTotal uint64

	for _, cc := range counts {
		if cc.Count >= threshold && total > 0 {
			kept = append(kept, models.CategoryFrequency{
				Value:     cc.Value,
				Frequency: float64(cc.Count) / float64(total),
			})
		} else {
			suppressedCount++
			suppressedTotal += cc.Count
		}
	}

	if suppressedTotal > 0 && total > 0 {
		kept = append(kept, models.CategoryFrequency{
			Value:     OtherCategory,
			Frequency: float64(suppressedTotal) / float64(total),
		})
	}

	if suppressedCount > 0 {
		e.mu.Lock()
		action := models.NewPrivacyAction(models.ActionSuppression, target,
			fmt.Sprintf("Suppressed %d rare categories below k=%d", suppressedCount, e.config.KAnonymity),
			"K-anonymity protection").
			WithParameter("k", fmt.Sprintf("%d", e.config.KAnonymity)).
			WithParameter("suppressed_values", fmt.Sprintf("%d", suppressedCount)).
			WithParameter("suppressed_rows", fmt.Sprintf("%d", suppressedTotal))
		e.audit.RecordAction(action)
		e.audit.Summary.CategoricalValuesSuppressed += uint64(suppressedCount)
		e.mu.Unlock()
	}

	return kept
}

// Winsorize clips values outside the [100-p, p] percentile band in place and
// returns the clip counts. Consumes no budget; it bounds sensitivity for
// later noise queries.
func (e *Engine) Winsorize(values []float64, target string) (lowClipped, highClipped int) {
	if len(values) == 0 {
		return 0, 0
	}
	p := e.config.OutlierPercentile

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	lowIdx := int((100.0 - p) / 100.0 * float64(n))
	highIdx := int((p/100.0)*float64(n) + 0.999999)
	if highIdx > n-1 {
		highIdx = n - 1
	}
	lowThreshold := sorted[lowIdx]
	highThreshold := sorted[highIdx]

	for i, v := range values {
		if v < lowThreshold {
			values[i] = lowThreshold
			lowClipped++
		} else if v > highThreshold {
			values[i] = highThreshold
			highClipped++
		}
	}

	if lowClipped > 0 || highClipped > 0 {
		e.mu.Lock()
		action := models.NewPrivacyAction(models.ActionWinsorization, target,
			fmt.Sprintf("Winsorized %d low and %d high outliers at p%g", lowClipped, highClipped, p),
			"Outlier protection").
			WithParameter("percentile", fmt.Sprintf("%g", p))
		e.audit.RecordAction(action)
		e.mu.Unlock()
	}

	return lowClipped, highClipped
}

// ShouldSuppressField reports whether a field is on the always-suppress list.
func (e *Engine) ShouldSuppressField(field string) bool {
	for _, f := range e.config.SuppressedFields {
		if f == field {
			return true
		}
	}
	return false
}

// RecordAction appends a custom action to the audit.
func (e *Engine) RecordAction(action models.PrivacyAction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audit.RecordAction(action)
}

// AddWarning appends a warning to the audit.
func (e *Engine) AddWarning(warning models.PrivacyWarning) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audit.AddWarning(warning)
}

// Audit returns the accumulated audit trail.
func (e *Engine) Audit() *models.PrivacyAudit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audit
}
