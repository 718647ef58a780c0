package extraction

import (
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// ledgerSource builds a small general-ledger style table with enough
// structure to exercise every extractor.
func ledgerSource(rows int) *MemorySource {
	rng := rand.New(rand.NewSource(7))
	columns := []string{"entry_id", "posting_date", "account", "amount", "debit", "credit", "is_anomaly"}
	data := make([][]string, 0, rows)
	accounts := []string{"1000", "1200", "4000", "5000"}
	for i := 0; i < rows; i++ {
		amount := 10 + rng.Float64()*990
		anomaly := "0"
		if i%50 == 0 {
			anomaly = "1"
		}
		data = append(data, []string{
			fmt.Sprintf("E%05d", i),
			fmt.Sprintf("2024-%02d-%02d", 1+i%12, 1+i%28),
			accounts[i%len(accounts)],
			fmt.Sprintf("%.2f", amount),
			fmt.Sprintf("%.2f", amount),
			fmt.Sprintf("%.2f", amount),
			anomaly,
		})
	}
	return NewMemorySource("ledger", columns, data)
}

func TestExtractFullPipeline(t *testing.T) {
	x := NewFingerprintExtractor(DefaultConfig(), nil)
	fp, err := x.Extract(ledgerSource(500))
	require.NoError(t, err)

	require.NotNil(t, fp.Schema)
	require.NotNil(t, fp.Statistics)
	require.NotNil(t, fp.PrivacyAudit)
	assert.True(t, fp.HasCorrelations())
	assert.True(t, fp.HasIntegrity())
	assert.True(t, fp.HasRules())
	assert.True(t, fp.HasAnomalies())

	table := fp.Schema.GetTable("ledger")
	require.NotNil(t, table)
	assert.Len(t, table.Columns, 7)

	assert.Greater(t, fp.PrivacyAudit.TotalEpsilonSpent, 0.0)
	assert.LessOrEqual(t, fp.PrivacyAudit.TotalEpsilonSpent, fp.PrivacyAudit.EpsilonBudget)
	assert.Equal(t, fp.Manifest.Privacy.Epsilon, fp.PrivacyAudit.EpsilonBudget)
}

func TestExtractDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99

	a, err := NewFingerprintExtractor(cfg, nil).Extract(ledgerSource(300))
	require.NoError(t, err)
	b, err := NewFingerprintExtractor(cfg, nil).Extract(ledgerSource(300))
	require.NoError(t, err)

	assert.Equal(t, a.Schema.GetTable("ledger").RowCount, b.Schema.GetTable("ledger").RowCount)
	keyA := models.ColumnKey("ledger", "amount")
	assert.Equal(t, a.Statistics.NumericColumns[keyA].Mean, b.Statistics.NumericColumns[keyA].Mean)
	assert.Equal(t, a.PrivacyAudit.TotalEpsilonSpent, b.PrivacyAudit.TotalEpsilonSpent)
}

func TestExtractRejectsTinyTables(t *testing.T) {
	x := NewFingerprintExtractor(DefaultConfig(), nil)
	_, err := x.Extract(ledgerSource(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")
}

func TestOptionalExtractorBestEffort(t *testing.T) {
	// One numeric column: correlations cannot run, but the pipeline
	// still yields a fingerprint without that component.
	columns := []string{"ref", "amount"}
	rows := make([][]string, 50)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("R%03d", i), fmt.Sprintf("%.2f", float64(100+i))}
	}
	source := NewMemorySource("simple", columns, rows)

	cfg := DefaultConfig()
	fp, err := NewFingerprintExtractor(cfg, nil).Extract(source)
	require.NoError(t, err)
	assert.False(t, fp.HasCorrelations())
	require.NotEmpty(t, fp.PrivacyAudit.Warnings)

	cfg.Strict = true
	_, err = NewFingerprintExtractor(cfg, nil).Extract(source)
	require.Error(t, err)
}

func TestMaxSampleSizeDrawsReservoirSample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSampleSize = 100

	fp, err := NewFingerprintExtractor(cfg, nil).Extract(ledgerSource(500))
	require.NoError(t, err)

	key := models.ColumnKey("ledger", "amount")
	require.Contains(t, fp.Statistics.NumericColumns, key)
	assert.Equal(t, uint64(100), fp.Statistics.NumericColumns[key].Count)

	// Same seed, same sample, same released statistics.
	again, err := NewFingerprintExtractor(cfg, nil).Extract(ledgerSource(500))
	require.NoError(t, err)
	assert.Equal(t, fp.Statistics.NumericColumns[key].Percentiles,
		again.Statistics.NumericColumns[key].Percentiles)
}

func TestRequiredExtractorBudgetFailureTaxonomy(t *testing.T) {
	// 60 numeric columns cost two noise queries each, exhausting the
	// 100-query allowance mid statistics. The failure must surface as a
	// privacy error, not a statistical one.
	columns := make([]string, 60)
	for i := range columns {
		columns[i] = fmt.Sprintf("amount_%02d", i)
	}
	rows := make([][]string, 20)
	for i := range rows {
		row := make([]string, len(columns))
		for j := range row {
			row[j] = fmt.Sprintf("%.2f", float64(10+i*j))
		}
		rows[i] = row
	}

	cfg := DefaultConfig()
	cfg.ExtractCorrelations = false
	_, err := NewFingerprintExtractor(cfg, nil).Extract(NewMemorySource("wide", columns, rows))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrBudgetExhausted))

	var appErr *apperrors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypePrivacy, appErr.Type)
	assert.Equal(t, apperrors.CodeBudgetExhausted, appErr.Code)
}

func TestExtractCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.csv")
	content := "payment_id,amount,status\n"
	for i := 0; i < 100; i++ {
		content += fmt.Sprintf("P%03d,%.2f,%s\n", i, 50.0+float64(i), []string{"posted", "pending"}[i%2])
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	source := NewCSVSource(path)
	assert.Equal(t, "payments", source.Name())

	fp, err := NewFingerprintExtractor(DefaultConfig(), nil).Extract(source)
	require.NoError(t, err)
	require.NotNil(t, fp.Schema.GetTable("payments"))
	assert.Contains(t, fp.Statistics.CategoricalColumns, models.ColumnKey("payments", "status"))
}
