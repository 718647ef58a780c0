package models

import (
	"time"

	"github.com/inferloop/datasynth/pkg/constants"
)

// Manifest carries fingerprint metadata and per-entry checksums. The manifest
// is the signing surface: a detached signature entry covers its canonical
// JSON form, so the checksums transitively cover every other entry.
type Manifest struct {
	Version   string            `json:"version"`
	Format    string            `json:"format"`
	CreatedAt time.Time         `json:"created_at"`
	Source    SourceMetadata    `json:"source"`
	Privacy   PrivacyConfig     `json:"privacy"`
	Checksums map[string]string `json:"checksums"`
}

// NewManifest creates a manifest at the current format version.
func NewManifest(source SourceMetadata, privacy PrivacyConfig) *Manifest {
	return &Manifest{
		Version:   constants.FormatVersion,
		Format:    constants.FormatName,
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Privacy:   privacy,
		Checksums: make(map[string]string),
	}
}

// AddChecksum records the checksum for a container entry.
func (m *Manifest) AddChecksum(entry, checksum string) {
	if m.Checksums == nil {
		m.Checksums = make(map[string]string)
	}
	m.Checksums[entry] = checksum
}

// HasRequiredChecksums reports whether the mandatory entries are covered.
func (m *Manifest) HasRequiredChecksums() bool {
	for _, entry := range []string{constants.EntrySchema, constants.EntryStatistics} {
		if _, ok := m.Checksums[entry]; !ok {
			return false
		}
	}
	return true
}

// SourceMetadata describes the fingerprinted dataset without exposing rows.
type SourceMetadata struct {
	Description string            `json:"description"`
	TableCount  int               `json:"table_count"`
	TotalRows   uint64            `json:"total_rows"`
	Tables      []string          `json:"tables"`
	DateRange   *DateRange        `json:"date_range,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewSourceMetadata creates source metadata for the given tables.
func NewSourceMetadata(description string, tables []string, totalRows uint64) SourceMetadata {
	return SourceMetadata{
		Description: description,
		TableCount:  len(tables),
		TotalRows:   totalRows,
		Tables:      tables,
	}
}

// DateRange is an ISO 8601 date interval.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PrivacyLevel names a privacy preset.
type PrivacyLevel string

const (
	// PrivacyMinimal favors utility: epsilon=5.0, k=3, winsorize at p99.
	PrivacyMinimal PrivacyLevel = "minimal"
	// PrivacyStandard is the balanced default: epsilon=1.0, k=5, winsorize at p95.
	PrivacyStandard PrivacyLevel = "standard"
	// PrivacyStrict is for sensitive data: epsilon=0.5, k=10, winsorize at p90.
	PrivacyStrict PrivacyLevel = "strict"
	// PrivacyCustom marks explicitly supplied parameters.
	PrivacyCustom PrivacyLevel = "custom"
)

// PrivacyConfig is the privacy parameter set used during extraction and
// recorded in the manifest.
type PrivacyConfig struct {
	Level             PrivacyLevel `json:"level" yaml:"level"`
	Epsilon           float64      `json:"epsilon" yaml:"epsilon"`
	KAnonymity        int          `json:"k_anonymity" yaml:"k_anonymity"`
	OutlierPercentile float64      `json:"outlier_percentile" yaml:"outlier_percentile"`
	MinOccurrence     int          `json:"min_occurrence" yaml:"min_occurrence"`
	SuppressedFields  []string     `json:"suppressed_fields,omitempty" yaml:"suppressed_fields,omitempty"`
}

// PrivacyConfigForLevel returns the preset parameters for a level. Custom
// falls back to the standard parameters; callers override them afterwards.
func PrivacyConfigForLevel(level PrivacyLevel) PrivacyConfig {
	switch level {
	case PrivacyMinimal:
		return PrivacyConfig{Level: level, Epsilon: 5.0, KAnonymity: 3, OutlierPercentile: 99.0, MinOccurrence: 3}
	case PrivacyStrict:
		return PrivacyConfig{Level: level, Epsilon: 0.5, KAnonymity: 10, OutlierPercentile: 90.0, MinOccurrence: 10}
	default:
		return PrivacyConfig{Level: PrivacyStandard, Epsilon: 1.0, KAnonymity: 5, OutlierPercentile: 95.0, MinOccurrence: 5}
	}
}

// CustomPrivacyConfig builds a custom parameter set.
func CustomPrivacyConfig(epsilon float64, kAnonymity int, outlierPercentile float64) PrivacyConfig {
	return PrivacyConfig{
		Level:             PrivacyCustom,
		Epsilon:           epsilon,
		KAnonymity:        kAnonymity,
		OutlierPercentile: outlierPercentile,
		MinOccurrence:     kAnonymity,
	}
}

// SignatureEnvelope is the detached signature entry. It covers the canonical
// JSON form of the manifest.
type SignatureEnvelope struct {
	Algorithm string    `json:"algorithm"`
	KeyID     string    `json:"key_id"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at"`
}
