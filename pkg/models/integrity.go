package models

// IntegrityFingerprint captures referential integrity structure. Extraction
// of these facts consumes no privacy budget; only structure is recorded.
type IntegrityFingerprint struct {
	ForeignKeys       []ForeignKeyDef             `json:"foreign_keys" yaml:"foreign_keys"`
	CardinalityStats  map[string]CardinalityStats `json:"cardinality_stats" yaml:"cardinality_stats"`
	UniqueConstraints []UniqueConstraint          `json:"unique_constraints,omitempty" yaml:"unique_constraints,omitempty"`
	CheckConstraints  []CheckConstraint           `json:"check_constraints,omitempty" yaml:"check_constraints,omitempty"`
}

// NewIntegrityFingerprint creates an empty integrity fingerprint.
func NewIntegrityFingerprint() *IntegrityFingerprint {
	return &IntegrityFingerprint{
		CardinalityStats: make(map[string]CardinalityStats),
	}
}

// AddForeignKey appends a foreign key definition.
func (f *IntegrityFingerprint) AddForeignKey(fk ForeignKeyDef) {
	f.ForeignKeys = append(f.ForeignKeys, fk)
}

// AddCardinality records cardinality statistics under a relationship name.
func (f *IntegrityFingerprint) AddCardinality(name string, stats CardinalityStats) {
	f.CardinalityStats[name] = stats
}

// ForeignKeyDef describes a parent/child relationship.
type ForeignKeyDef struct {
	Name        string   `json:"name" yaml:"name"`
	FromTable   string   `json:"from_table" yaml:"from_table"`
	FromColumns []string `json:"from_columns" yaml:"from_columns"`
	ToTable     string   `json:"to_table" yaml:"to_table"`
	ToColumns   []string `json:"to_columns" yaml:"to_columns"`
	Inferred    bool     `json:"inferred" yaml:"inferred"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Coverage    float64  `json:"coverage" yaml:"coverage"`
	OrphanRate  float64  `json:"orphan_rate" yaml:"orphan_rate"`
}

// NewForeignKeyDef creates a declared foreign key with full coverage.
func NewForeignKeyDef(name, fromTable string, fromColumns []string, toTable string, toColumns []string) ForeignKeyDef {
	return ForeignKeyDef{
		Name:        name,
		FromTable:   fromTable,
		FromColumns: fromColumns,
		ToTable:     toTable,
		ToColumns:   toColumns,
		Confidence:  1.0,
		Coverage:    1.0,
	}
}

// AsInferred marks the definition as detected rather than declared.
func (f ForeignKeyDef) AsInferred(confidence float64) ForeignKeyDef {
	f.Inferred = true
	f.Confidence = confidence
	return f
}

// HasOrphans reports whether any child values lack a parent.
func (f ForeignKeyDef) HasOrphans() bool {
	return f.OrphanRate > 0
}

// CardinalityStats summarizes children-per-parent counts for a relationship.
type CardinalityStats struct {
	MinChildren    uint64  `json:"min_children" yaml:"min_children"`
	MaxChildren    uint64  `json:"max_children" yaml:"max_children"`
	MeanChildren   float64 `json:"mean_children" yaml:"mean_children"`
	MedianChildren float64 `json:"median_children" yaml:"median_children"`
	StdDevChildren float64 `json:"std_dev_children" yaml:"std_dev_children"`
	OneToOneRate   float64 `json:"one_to_one_rate" yaml:"one_to_one_rate"`
}

// RelationshipType classifies a relationship by its cardinality shape.
type RelationshipType string

const (
	RelOneToOne   RelationshipType = "one_to_one"
	RelZeroOrOne  RelationshipType = "zero_or_one"
	RelOneToMany  RelationshipType = "one_to_many"
	RelZeroToMany RelationshipType = "zero_to_many"
)

// InferRelationshipType classifies the relationship from its statistics.
func (c CardinalityStats) InferRelationshipType() RelationshipType {
	switch {
	case c.MaxChildren == 1:
		return RelOneToOne
	case c.MinChildren == 0 && c.OneToOneRate > 0.8:
		return RelZeroOrOne
	default:
		return RelOneToMany
	}
}

// UniqueConstraint records an observed or declared uniqueness constraint.
type UniqueConstraint struct {
	Table           string   `json:"table" yaml:"table"`
	Columns         []string `json:"columns" yaml:"columns"`
	IsSatisfied     bool     `json:"is_satisfied" yaml:"is_satisfied"`
	DuplicateGroups uint64   `json:"duplicate_groups" yaml:"duplicate_groups"`
}

// CheckConstraint records a column-level rule and how often the data meets it.
type CheckConstraint struct {
	Table            string   `json:"table" yaml:"table"`
	Name             string   `json:"name" yaml:"name"`
	Expression       string   `json:"expression" yaml:"expression"`
	Columns          []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	SatisfactionRate float64  `json:"satisfaction_rate" yaml:"satisfaction_rate"`
}
