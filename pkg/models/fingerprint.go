package models

// Fingerprint is the root structure holding every extracted component.
//
// A fingerprint captures the statistical properties of a dataset without
// storing any individual records, enabling privacy-preserving synthetic data
// generation.
type Fingerprint struct {
	Manifest     *Manifest               `json:"manifest"`
	Schema       *SchemaFingerprint      `json:"schema"`
	Statistics   *StatisticsFingerprint  `json:"statistics"`
	Correlations *CorrelationFingerprint `json:"correlations,omitempty"`
	Integrity    *IntegrityFingerprint   `json:"integrity,omitempty"`
	Rules        *RulesFingerprint       `json:"rules,omitempty"`
	Anomalies    *AnomalyFingerprint     `json:"anomalies,omitempty"`
	PrivacyAudit *PrivacyAudit           `json:"privacy_audit"`
}

// NewFingerprint creates a fingerprint with the required components.
func NewFingerprint(manifest *Manifest, schema *SchemaFingerprint, statistics *StatisticsFingerprint, audit *PrivacyAudit) *Fingerprint {
	return &Fingerprint{
		Manifest:     manifest,
		Schema:       schema,
		Statistics:   statistics,
		PrivacyAudit: audit,
	}
}

// WithCorrelations attaches a correlation component.
func (f *Fingerprint) WithCorrelations(correlations *CorrelationFingerprint) *Fingerprint {
	f.Correlations = correlations
	return f
}

// WithIntegrity attaches an integrity component.
func (f *Fingerprint) WithIntegrity(integrity *IntegrityFingerprint) *Fingerprint {
	f.Integrity = integrity
	return f
}

// WithRules attaches a rules component.
func (f *Fingerprint) WithRules(rules *RulesFingerprint) *Fingerprint {
	f.Rules = rules
	return f
}

// WithAnomalies attaches an anomaly component.
func (f *Fingerprint) WithAnomalies(anomalies *AnomalyFingerprint) *Fingerprint {
	f.Anomalies = anomalies
	return f
}

// Version returns the container format version.
func (f *Fingerprint) Version() string {
	return f.Manifest.Version
}

// HasCorrelations reports whether correlation data is present.
func (f *Fingerprint) HasCorrelations() bool { return f.Correlations != nil }

// HasIntegrity reports whether integrity constraints are present.
func (f *Fingerprint) HasIntegrity() bool { return f.Integrity != nil }

// HasRules reports whether business rules are present.
func (f *Fingerprint) HasRules() bool { return f.Rules != nil }

// HasAnomalies reports whether anomaly patterns are present.
func (f *Fingerprint) HasAnomalies() bool { return f.Anomalies != nil }

// EpsilonSpent returns the total privacy budget consumed during extraction.
func (f *Fingerprint) EpsilonSpent() float64 {
	if f.PrivacyAudit == nil {
		return 0
	}
	return f.PrivacyAudit.TotalEpsilonSpent
}
