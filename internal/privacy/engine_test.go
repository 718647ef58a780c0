package privacy

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

func newTestEngine(t *testing.T, config models.PrivacyConfig) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	engine, err := NewEngine(config, 42, logger)
	require.NoError(t, err)
	return engine
}

func TestNewEngineValidation(t *testing.T) {
	logger := logrus.New()

	_, err := NewEngine(models.PrivacyConfig{Epsilon: 0, KAnonymity: 5}, 1, logger)
	assert.Error(t, err)

	_, err = NewEngine(models.PrivacyConfig{Epsilon: 1.0, KAnonymity: 0}, 1, logger)
	assert.Error(t, err)

	engine, err := NewEngine(models.PrivacyConfigForLevel(models.PrivacyStandard), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, engine.Config().Epsilon)
	assert.Equal(t, 5, engine.Config().KAnonymity)
}

func TestSpendAtomicCheckAndCommit(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	require.NoError(t, engine.Spend(0.6, "transactions.amount", "noised mean"))
	assert.InDelta(t, 0.4, engine.RemainingBudget(), 1e-12)

	err := engine.Spend(0.5, "transactions.amount", "noised std dev")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBudgetExhausted))

	var budgetErr *apperrors.BudgetExhaustedError
	require.True(t, errors.As(err, &budgetErr))
	assert.InDelta(t, 1.1, budgetErr.Spent, 1e-12)
	assert.Equal(t, 1.0, budgetErr.Limit)

	// A failed spend commits nothing.
	assert.InDelta(t, 0.6, engine.Audit().TotalEpsilonSpent, 1e-12)
	require.NoError(t, engine.Spend(0.4, "transactions.amount", "noised count"))
}

func TestAddNoiseSpendsPerQueryShare(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	noised, err := engine.AddNoise(100.0, 1.0, "transactions.amount.mean")
	require.NoError(t, err)
	assert.NotEqual(t, 100.0, noised)

	audit := engine.Audit()
	require.Len(t, audit.Actions, 1)
	assert.Equal(t, models.ActionLaplaceNoise, audit.Actions[0].Type)
	assert.Equal(t, 0, audit.Actions[0].Sequence)
	require.NotNil(t, audit.Actions[0].EpsilonSpent)
	assert.InDelta(t, 0.01, *audit.Actions[0].EpsilonSpent, 1e-12)
	assert.InDelta(t, 0.01, audit.TotalEpsilonSpent, 1e-12)
}

func TestAddNoiseDeterministicPerSeed(t *testing.T) {
	logger := logrus.New()
	config := models.PrivacyConfigForLevel(models.PrivacyStandard)

	a, err := NewEngine(config, 7, logger)
	require.NoError(t, err)
	b, err := NewEngine(config, 7, logger)
	require.NoError(t, err)

	va, err := a.AddNoise(500.0, 2.0, "t.c")
	require.NoError(t, err)
	vb, err := b.AddNoise(500.0, 2.0, "t.c")
	require.NoError(t, err)
	assert.Equal(t, va, vb)

	c, err := NewEngine(config, 8, logger)
	require.NoError(t, err)
	vc, err := c.AddNoise(500.0, 2.0, "t.c")
	require.NoError(t, err)
	assert.NotEqual(t, va, vc)
}

func TestAddNoiseBudgetExhaustion(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	// Drain the whole budget, then no noise query can be served.
	require.NoError(t, engine.Spend(0.5, "t.c", "noised sum"))
	require.NoError(t, engine.Spend(0.5, "t.c", "noised sum"))

	original := 10.0
	v, err := engine.AddNoise(original, 1.0, "t.c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBudgetExhausted))
	assert.Equal(t, original, v)
	assert.Len(t, engine.Audit().Actions, 2)
}

func TestSuppressRareCategories(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	counts := []CategoryCount{
		{Value: "A", Count: 400},
		{Value: "B", Count: 598},
		{Value: "C", Count: 2},
	}
	kept := engine.SuppressRareCategories(counts, 1000, "transactions.status")

	require.Len(t, kept, 3)
	assert.Equal(t, "A", kept[0].Value)
	assert.InDelta(t, 0.4, kept[0].Frequency, 1e-12)
	assert.Equal(t, "B", kept[1].Value)
	assert.InDelta(t, 0.598, kept[1].Frequency, 1e-12)
	assert.Equal(t, OtherCategory, kept[2].Value)
	assert.InDelta(t, 0.002, kept[2].Frequency, 1e-12)

	audit := engine.Audit()
	require.Len(t, audit.Actions, 1)
	assert.Equal(t, models.ActionSuppression, audit.Actions[0].Type)
	assert.Equal(t, "transactions.status", audit.Actions[0].Target)
	assert.Equal(t, uint64(1), audit.Summary.CategoricalValuesSuppressed)
}

func TestSuppressRareCategoriesNoSuppression(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	kept := engine.SuppressRareCategories([]CategoryCount{
		{Value: "X", Count: 50},
		{Value: "Y", Count: 50},
	}, 100, "t.c")

	require.Len(t, kept, 2)
	assert.Empty(t, engine.Audit().Actions)
}

func TestWinsorizeClipsOutliers(t *testing.T) {
	engine := newTestEngine(t, models.CustomPrivacyConfig(1.0, 5, 95.0))

	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	values[99] = 1e9

	// p95 on 100 values clips below sorted[5]=6 and above sorted[95]=96.
	low, high := engine.Winsorize(values, "transactions.amount")
	assert.Equal(t, 5, low)
	assert.Equal(t, 4, high)

	for _, v := range values {
		assert.GreaterOrEqual(t, v, 6.0)
		assert.LessOrEqual(t, v, 96.0)
	}

	audit := engine.Audit()
	require.Len(t, audit.Actions, 1)
	assert.Equal(t, models.ActionWinsorization, audit.Actions[0].Type)
	assert.Equal(t, uint64(0), audit.Summary.NoiseAdditions)
	assert.InDelta(t, 0.0, audit.TotalEpsilonSpent, 1e-12)
}

func TestWinsorizeEmptyInput(t *testing.T) {
	engine := newTestEngine(t, models.PrivacyConfigForLevel(models.PrivacyStandard))
	low, high := engine.Winsorize(nil, "t.c")
	assert.Equal(t, 0, low)
	assert.Equal(t, 0, high)
}

func TestShouldSuppressField(t *testing.T) {
	config := models.CustomPrivacyConfig(1.0, 5, 95.0)
	config.SuppressedFields = []string{"ssn", "account_number"}
	engine := newTestEngine(t, config)

	assert.True(t, engine.ShouldSuppressField("ssn"))
	assert.False(t, engine.ShouldSuppressField("amount"))
}
