package models

// AnomalyFingerprint captures labeled anomaly rates and patterns so synthesis
// can reproduce realistic irregularities.
type AnomalyFingerprint struct {
	Overall          AnomalyOverview         `json:"overall" yaml:"overall"`
	Profiles         []AnomalyProfile        `json:"profiles" yaml:"profiles"`
	TemporalPatterns TemporalAnomalyPatterns `json:"temporal_patterns" yaml:"temporal_patterns"`
}

// NewAnomalyFingerprint creates a fingerprint around an overview.
func NewAnomalyFingerprint(overall AnomalyOverview) *AnomalyFingerprint {
	return &AnomalyFingerprint{Overall: overall}
}

// AddProfile appends a per-type profile.
func (a *AnomalyFingerprint) AddProfile(profile AnomalyProfile) {
	a.Profiles = append(a.Profiles, profile)
}

// AnomalyOverview aggregates anomaly counts for the whole dataset.
type AnomalyOverview struct {
	TotalRecords         uint64             `json:"total_records" yaml:"total_records"`
	TotalAnomalies       uint64             `json:"total_anomalies" yaml:"total_anomalies"`
	AnomalyRate          float64            `json:"anomaly_rate" yaml:"anomaly_rate"`
	CategoryDistribution map[string]float64 `json:"category_distribution" yaml:"category_distribution"`
	TypeCount            int                `json:"type_count" yaml:"type_count"`
	HasLabels            bool               `json:"has_labels" yaml:"has_labels"`
	LabelField           string             `json:"label_field,omitempty" yaml:"label_field,omitempty"`
}

// NewAnomalyOverview creates an overview from counts.
func NewAnomalyOverview(totalRecords, totalAnomalies uint64) AnomalyOverview {
	rate := 0.0
	if totalRecords > 0 {
		rate = float64(totalAnomalies) / float64(totalRecords)
	}
	return AnomalyOverview{
		TotalRecords:         totalRecords,
		TotalAnomalies:       totalAnomalies,
		AnomalyRate:          rate,
		CategoryDistribution: make(map[string]float64),
	}
}

// AnomalyProfile describes one anomaly type.
type AnomalyProfile struct {
	AnomalyType string          `json:"anomaly_type" yaml:"anomaly_type"`
	Name        string          `json:"name" yaml:"name"`
	Category    AnomalyCategory `json:"category" yaml:"category"`
	Rate        float64         `json:"rate" yaml:"rate"`
	Count       uint64          `json:"count" yaml:"count"`
	Severity    int             `json:"severity" yaml:"severity"`
}

// AnomalyCategory classifies anomalies.
type AnomalyCategory string

const (
	AnomalyFraud        AnomalyCategory = "fraud"
	AnomalyError        AnomalyCategory = "error"
	AnomalyProcessIssue AnomalyCategory = "process_issue"
	AnomalyStatistical  AnomalyCategory = "statistical"
	AnomalyRelational   AnomalyCategory = "relational"
)

// TemporalAnomalyPatterns describes how anomaly rates vary over time.
type TemporalAnomalyPatterns struct {
	YearEndMultiplier    float64 `json:"year_end_multiplier" yaml:"year_end_multiplier"`
	QuarterEndMultiplier float64 `json:"quarter_end_multiplier" yaml:"quarter_end_multiplier"`
	MonthEndMultiplier   float64 `json:"month_end_multiplier" yaml:"month_end_multiplier"`
	SeasonalityStrength  float64 `json:"seasonality_strength" yaml:"seasonality_strength"`
}
