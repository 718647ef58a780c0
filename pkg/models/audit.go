package models

import "time"

// PrivacyAudit documents every privacy decision taken during extraction.
type PrivacyAudit struct {
	EpsilonBudget     float64          `json:"epsilon_budget"`
	TotalEpsilonSpent float64          `json:"total_epsilon_spent"`
	KAnonymity        int              `json:"k_anonymity"`
	Actions           []PrivacyAction  `json:"actions"`
	Summary           PrivacySummary   `json:"summary"`
	CreatedAt         time.Time        `json:"created_at"`
	Warnings          []PrivacyWarning `json:"warnings,omitempty"`
}

// NewPrivacyAudit creates an empty audit for the given budget.
func NewPrivacyAudit(epsilonBudget float64, kAnonymity int) *PrivacyAudit {
	return &PrivacyAudit{
		EpsilonBudget: epsilonBudget,
		KAnonymity:    kAnonymity,
		CreatedAt:     time.Now().UTC(),
	}
}

// RecordAction appends an action, assigns its sequence index, and updates the
// spent total and summary counters.
func (a *PrivacyAudit) RecordAction(action PrivacyAction) {
	action.Sequence = len(a.Actions)
	if action.EpsilonSpent != nil {
		a.TotalEpsilonSpent += *action.EpsilonSpent
	}
	switch action.Type {
	case ActionLaplaceNoise:
		a.Summary.NoiseAdditions++
	case ActionSuppression:
		a.Summary.Suppressions++
	case ActionGeneralization:
		a.Summary.Generalizations++
	case ActionWinsorization:
		a.Summary.Winsorizations++
	case ActionBinning:
		a.Summary.Binnings++
	case ActionRounding:
		a.Summary.Roundings++
	}
	a.Actions = append(a.Actions, action)
}

// RemainingBudget returns epsilon still available.
func (a *PrivacyAudit) RemainingBudget() float64 {
	r := a.EpsilonBudget - a.TotalEpsilonSpent
	if r < 0 {
		return 0
	}
	return r
}

// IsBudgetExhausted reports whether the full budget has been spent.
func (a *PrivacyAudit) IsBudgetExhausted() bool {
	return a.TotalEpsilonSpent >= a.EpsilonBudget
}

// AddWarning appends a warning.
func (a *PrivacyAudit) AddWarning(warning PrivacyWarning) {
	a.Warnings = append(a.Warnings, warning)
}

// PrivacyAction is one privacy mechanism application.
type PrivacyAction struct {
	Sequence       int               `json:"sequence"`
	Type           PrivacyActionType `json:"action_type"`
	Target         string            `json:"target"`
	Description    string            `json:"description"`
	EpsilonSpent   *float64          `json:"epsilon_spent,omitempty"`
	Parameters     map[string]string `json:"parameters,omitempty"`
	ResultingValue string            `json:"resulting_value,omitempty"`
	Reason         string            `json:"reason"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewPrivacyAction creates an action for a target; the sequence index is
// assigned when the action is recorded.
func NewPrivacyAction(actionType PrivacyActionType, target, description, reason string) PrivacyAction {
	return PrivacyAction{
		Type:        actionType,
		Target:      target,
		Description: description,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}
}

// WithEpsilon sets the epsilon spent by this action.
func (p PrivacyAction) WithEpsilon(epsilon float64) PrivacyAction {
	p.EpsilonSpent = &epsilon
	return p
}

// WithParameter records a mechanism parameter.
func (p PrivacyAction) WithParameter(key, value string) PrivacyAction {
	if p.Parameters == nil {
		p.Parameters = make(map[string]string)
	}
	p.Parameters[key] = value
	return p
}

// PrivacyActionType enumerates the mechanisms the engine applies.
type PrivacyActionType string

const (
	ActionLaplaceNoise   PrivacyActionType = "laplace_noise"
	ActionSuppression    PrivacyActionType = "suppression"
	ActionGeneralization PrivacyActionType = "generalization"
	ActionWinsorization  PrivacyActionType = "winsorization"
	ActionBinning        PrivacyActionType = "binning"
	ActionRounding       PrivacyActionType = "rounding"
)

// PrivacySummary aggregates the applied measures.
type PrivacySummary struct {
	NoiseAdditions              uint64 `json:"noise_additions"`
	Suppressions                uint64 `json:"suppressions"`
	Generalizations             uint64 `json:"generalizations"`
	Winsorizations              uint64 `json:"winsorizations"`
	Binnings                    uint64 `json:"binnings"`
	Roundings                   uint64 `json:"roundings"`
	ColumnsProcessed            uint64 `json:"columns_processed"`
	ColumnsModified             uint64 `json:"columns_modified"`
	CategoricalValuesSuppressed uint64 `json:"categorical_values_suppressed"`
}

// TotalActions returns the total number of recorded mechanism applications.
func (s *PrivacySummary) TotalActions() uint64 {
	return s.NoiseAdditions + s.Suppressions + s.Generalizations +
		s.Winsorizations + s.Binnings + s.Roundings
}

// PrivacyWarning flags a condition that may affect privacy or utility.
type PrivacyWarning struct {
	Level          WarningLevel `json:"level"`
	Message        string       `json:"message"`
	Target         string       `json:"target,omitempty"`
	Recommendation string       `json:"recommendation,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// NewPrivacyWarning creates a warning.
func NewPrivacyWarning(level WarningLevel, message string) PrivacyWarning {
	return PrivacyWarning{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WarningLevel grades warnings.
type WarningLevel string

const (
	WarningInfo     WarningLevel = "info"
	WarningCaution  WarningLevel = "warning"
	WarningSerious  WarningLevel = "serious"
	WarningCritical WarningLevel = "critical"
)
