package models

// RulesFingerprint captures business rules observed in the data together with
// how often the data satisfies them.
type RulesFingerprint struct {
	BalanceRules       []BalanceRule                  `json:"balance_rules" yaml:"balance_rules"`
	ApprovalThresholds []ApprovalThreshold            `json:"approval_thresholds" yaml:"approval_thresholds"`
	TemporalRules      []TemporalRule                 `json:"temporal_rules,omitempty" yaml:"temporal_rules,omitempty"`
	RangeConstraints   []RangeConstraint              `json:"range_constraints,omitempty" yaml:"range_constraints,omitempty"`
	ComplianceStats    map[string]RuleComplianceStats `json:"compliance_stats" yaml:"compliance_stats"`
}

// NewRulesFingerprint creates an empty rules fingerprint.
func NewRulesFingerprint() *RulesFingerprint {
	return &RulesFingerprint{
		ComplianceStats: make(map[string]RuleComplianceStats),
	}
}

// AddBalanceRule appends a balance rule.
func (r *RulesFingerprint) AddBalanceRule(rule BalanceRule) {
	r.BalanceRules = append(r.BalanceRules, rule)
}

// AddApprovalThreshold appends an approval threshold rule.
func (r *RulesFingerprint) AddApprovalThreshold(threshold ApprovalThreshold) {
	r.ApprovalThresholds = append(r.ApprovalThresholds, threshold)
}

// AddCompliance records compliance statistics under a rule name.
func (r *RulesFingerprint) AddCompliance(ruleName string, stats RuleComplianceStats) {
	r.ComplianceStats[ruleName] = stats
}

// BalanceRule states that one aggregated column equals another within a
// tolerance, per group. The canonical example is debits equal credits per
// journal entry.
type BalanceRule struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Table          string   `json:"table" yaml:"table"`
	GroupBy        []string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	LeftColumn     string   `json:"left_column" yaml:"left_column"`
	RightColumn    string   `json:"right_column" yaml:"right_column"`
	Tolerance      float64  `json:"tolerance" yaml:"tolerance"`
	ComplianceRate float64  `json:"compliance_rate" yaml:"compliance_rate"`
}

// ApprovalThreshold records amount thresholds that gate approval levels.
type ApprovalThreshold struct {
	Name           string           `json:"name" yaml:"name"`
	Description    string           `json:"description,omitempty" yaml:"description,omitempty"`
	Table          string           `json:"table" yaml:"table"`
	Column         string           `json:"column" yaml:"column"`
	Levels         []ThresholdLevel `json:"levels" yaml:"levels"`
	ComplianceRate float64          `json:"compliance_rate" yaml:"compliance_rate"`
}

// ThresholdLevel is one amount boundary with the observed proportion of rows
// at or above it.
type ThresholdLevel struct {
	Amount        float64 `json:"amount" yaml:"amount"`
	ApprovalLevel string  `json:"approval_level" yaml:"approval_level"`
	Proportion    float64 `json:"proportion" yaml:"proportion"`
}

// TemporalRule states that one date column never precedes another.
type TemporalRule struct {
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Table          string         `json:"table" yaml:"table"`
	BeforeColumn   string         `json:"before_column" yaml:"before_column"`
	AfterColumn    string         `json:"after_column" yaml:"after_column"`
	ComplianceRate float64        `json:"compliance_rate" yaml:"compliance_rate"`
	GapStats       *GapStatistics `json:"gap_stats,omitempty" yaml:"gap_stats,omitempty"`
}

// GapStatistics summarizes the day gaps between two date columns.
type GapStatistics struct {
	MinDays    float64 `json:"min_days" yaml:"min_days"`
	MaxDays    float64 `json:"max_days" yaml:"max_days"`
	MeanDays   float64 `json:"mean_days" yaml:"mean_days"`
	MedianDays float64 `json:"median_days" yaml:"median_days"`
	StdDevDays float64 `json:"std_dev_days" yaml:"std_dev_days"`
}

// RangeConstraint bounds a column's values.
type RangeConstraint struct {
	Name           string   `json:"name" yaml:"name"`
	Table          string   `json:"table" yaml:"table"`
	Column         string   `json:"column" yaml:"column"`
	MinValue       *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue       *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	ComplianceRate float64  `json:"compliance_rate" yaml:"compliance_rate"`
}

// RuleComplianceStats counts how a rule fared against the data.
type RuleComplianceStats struct {
	TotalChecked   uint64  `json:"total_checked" yaml:"total_checked"`
	Passed         uint64  `json:"passed" yaml:"passed"`
	Failed         uint64  `json:"failed" yaml:"failed"`
	ComplianceRate float64 `json:"compliance_rate" yaml:"compliance_rate"`
}

// ComplianceFromCounts builds compliance stats from raw counts. An empty
// check counts as full compliance.
func ComplianceFromCounts(total, passed uint64) RuleComplianceStats {
	var failed uint64
	if total > passed {
		failed = total - passed
	}
	rate := 1.0
	if total > 0 {
		rate = float64(passed) / float64(total)
	}
	return RuleComplianceStats{
		TotalChecked:   total,
		Passed:         passed,
		Failed:         failed,
		ComplianceRate: rate,
	}
}
