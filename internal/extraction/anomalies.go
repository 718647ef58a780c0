package extraction

import (
	"strings"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

var anomalyLabelColumns = []string{"is_anomaly", "anomaly", "is_fraud", "fraud", "is_outlier", "label"}

var anomalyTypeColumns = []string{"anomaly_type", "fraud_type", "anomaly_category"}

// AnomalyExtractor reads labeled anomaly columns when the dataset
// carries them. Without labels it records an empty overview so the
// component still states "no anomalies observed" explicitly.
type AnomalyExtractor struct{}

func (e *AnomalyExtractor) Name() string { return "anomalies" }

func (e *AnomalyExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	labelIdx := findColumn(table, anomalyLabelColumns...)
	if labelIdx < 0 {
		overview := models.NewAnomalyOverview(uint64(table.RowCount()), 0)
		return anomaliesComponent{fp: models.NewAnomalyFingerprint(overview)}, nil
	}

	typeIdx := findColumn(table, anomalyTypeColumns...)

	var total, anomalies uint64
	typeCounts := make(map[string]uint64)
	for _, row := range table.Rows {
		if labelIdx >= len(row) {
			continue
		}
		total++
		if !isTruthy(row[labelIdx]) {
			continue
		}
		anomalies++
		if typeIdx >= 0 && typeIdx < len(row) && row[typeIdx] != "" {
			typeCounts[row[typeIdx]]++
		}
	}

	overview := models.NewAnomalyOverview(total, anomalies)
	overview.HasLabels = true
	overview.LabelField = table.Columns[labelIdx]
	overview.TypeCount = len(typeCounts)

	fp := models.NewAnomalyFingerprint(overview)
	for name, count := range typeCounts {
		rate := 0.0
		if total > 0 {
			rate = float64(count) / float64(total)
		}
		fp.Overall.CategoryDistribution[name] = rate
		fp.AddProfile(models.AnomalyProfile{
			AnomalyType: name,
			Name:        name,
			Category:    categorizeAnomaly(name),
			Rate:        rate,
			Count:       count,
			Severity:    3,
		})
	}
	return anomaliesComponent{fp: fp}, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func categorizeAnomaly(name string) models.AnomalyCategory {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "fraud"), strings.Contains(lower, "duplicate_payment"):
		return models.AnomalyFraud
	case strings.Contains(lower, "error"), strings.Contains(lower, "typo"):
		return models.AnomalyError
	case strings.Contains(lower, "process"), strings.Contains(lower, "approval"):
		return models.AnomalyProcessIssue
	default:
		return models.AnomalyStatistical
	}
}
