package dsf

import (
	"fmt"
	"math"
	"sort"

	"github.com/inferloop/datasynth/pkg/models"
)

// FingerprintDiff summarizes how two fingerprints differ. It drives the
// CLI diff output and is intentionally shallower than the fidelity
// evaluator: it reports structural changes, not scores.
type FingerprintDiff struct {
	VersionChanged    bool         `json:"version_changed"`
	AddedTables       []string     `json:"added_tables,omitempty"`
	RemovedTables     []string     `json:"removed_tables,omitempty"`
	ComponentChanges  []string     `json:"component_changes,omitempty"`
	NumericDeltas     []ColumnDiff `json:"numeric_deltas,omitempty"`
	EpsilonSpentDelta float64      `json:"epsilon_spent_delta"`
}

// ColumnDiff is the change in one numeric column's released moments.
type ColumnDiff struct {
	Column     string  `json:"column"`
	MeanDelta  float64 `json:"mean_delta"`
	StdDelta   float64 `json:"std_delta"`
	CountDelta int64   `json:"count_delta"`
}

// IsEmpty reports whether the two fingerprints were structurally
// identical.
func (d *FingerprintDiff) IsEmpty() bool {
	return !d.VersionChanged &&
		len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 &&
		len(d.ComponentChanges) == 0 && len(d.NumericDeltas) == 0
}

// DiffFingerprints compares two fingerprints, treating a as the
// baseline.
func DiffFingerprints(a, b *models.Fingerprint) *FingerprintDiff {
	diff := &FingerprintDiff{
		VersionChanged:    a.Version() != b.Version(),
		EpsilonSpentDelta: b.EpsilonSpent() - a.EpsilonSpent(),
	}

	for name := range b.Schema.Tables {
		if a.Schema.GetTable(name) == nil {
			diff.AddedTables = append(diff.AddedTables, name)
		}
	}
	for name := range a.Schema.Tables {
		if b.Schema.GetTable(name) == nil {
			diff.RemovedTables = append(diff.RemovedTables, name)
		}
	}
	sort.Strings(diff.AddedTables)
	sort.Strings(diff.RemovedTables)

	for _, c := range []struct {
		name   string
		before bool
		after  bool
	}{
		{"correlations", a.HasCorrelations(), b.HasCorrelations()},
		{"integrity", a.HasIntegrity(), b.HasIntegrity()},
		{"rules", a.HasRules(), b.HasRules()},
		{"anomalies", a.HasAnomalies(), b.HasAnomalies()},
	} {
		if c.before != c.after {
			verb := "added"
			if c.before {
				verb = "removed"
			}
			diff.ComponentChanges = append(diff.ComponentChanges, fmt.Sprintf("%s %s", c.name, verb))
		}
	}

	keys := make([]string, 0, len(a.Statistics.NumericColumns))
	for key := range a.Statistics.NumericColumns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		before := a.Statistics.NumericColumns[key]
		after, ok := b.Statistics.NumericColumns[key]
		if !ok {
			continue
		}
		cd := ColumnDiff{
			Column:     key,
			MeanDelta:  after.Mean - before.Mean,
			StdDelta:   after.StdDev - before.StdDev,
			CountDelta: int64(after.Count) - int64(before.Count),
		}
		if math.Abs(cd.MeanDelta) > 1e-12 || math.Abs(cd.StdDelta) > 1e-12 || cd.CountDelta != 0 {
			diff.NumericDeltas = append(diff.NumericDeltas, cd)
		}
	}

	return diff
}
