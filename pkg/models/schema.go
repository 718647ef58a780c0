package models

// SchemaFingerprint captures table and column structure without row-level data.
type SchemaFingerprint struct {
	Tables        map[string]*TableSchema `json:"tables" yaml:"tables"`
	Relationships []TableRelationship     `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// NewSchemaFingerprint creates an empty schema fingerprint.
func NewSchemaFingerprint() *SchemaFingerprint {
	return &SchemaFingerprint{
		Tables: make(map[string]*TableSchema),
	}
}

// AddTable registers a table schema under its name.
func (s *SchemaFingerprint) AddTable(schema *TableSchema) {
	s.Tables[schema.Name] = schema
}

// GetTable returns a table schema by name, or nil.
func (s *SchemaFingerprint) GetTable(name string) *TableSchema {
	return s.Tables[name]
}

// TotalColumns counts columns across all tables.
func (s *SchemaFingerprint) TotalColumns() int {
	total := 0
	for _, t := range s.Tables {
		total += len(t.Columns)
	}
	return total
}

// TableSchema describes a single table.
type TableSchema struct {
	Name       string            `json:"name" yaml:"name"`
	RowCount   uint64            `json:"row_count" yaml:"row_count"`
	Columns    []FieldSchema     `json:"columns" yaml:"columns"`
	PrimaryKey []string          `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewTableSchema creates a table schema with the given name and row count.
// The row count may carry calibrated noise.
func NewTableSchema(name string, rowCount uint64) *TableSchema {
	return &TableSchema{
		Name:     name,
		RowCount: rowCount,
	}
}

// AddColumn appends a column schema.
func (t *TableSchema) AddColumn(column FieldSchema) {
	t.Columns = append(t.Columns, column)
}

// GetColumn returns a column by name, or nil.
func (t *TableSchema) GetColumn(name string) *FieldSchema {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// FieldSchema describes a single column.
type FieldSchema struct {
	Name          string            `json:"name" yaml:"name"`
	DataType      DataType          `json:"data_type" yaml:"data_type"`
	Nullable      bool              `json:"nullable" yaml:"nullable"`
	NullRate      float64           `json:"null_rate" yaml:"null_rate"`
	Cardinality   uint64            `json:"cardinality" yaml:"cardinality"`
	IsPrimaryKey  bool              `json:"is_primary_key,omitempty" yaml:"is_primary_key,omitempty"`
	IsForeignKey  bool              `json:"is_foreign_key,omitempty" yaml:"is_foreign_key,omitempty"`
	ForeignKeyRef *ForeignKeyRef    `json:"foreign_key_ref,omitempty" yaml:"foreign_key_ref,omitempty"`
	SemanticType  string            `json:"semantic_type,omitempty" yaml:"semantic_type,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DataType enumerates the column types the engine distinguishes.
type DataType string

const (
	DataTypeBoolean   DataType = "boolean"
	DataTypeInt32     DataType = "int32"
	DataTypeInt64     DataType = "int64"
	DataTypeFloat32   DataType = "float32"
	DataTypeFloat64   DataType = "float64"
	DataTypeDecimal   DataType = "decimal"
	DataTypeString    DataType = "string"
	DataTypeDate      DataType = "date"
	DataTypeTimestamp DataType = "timestamp"
	DataTypeTime      DataType = "time"
	DataTypeUUID      DataType = "uuid"
	DataTypeBinary    DataType = "binary"
	DataTypeJSON      DataType = "json"
	DataTypeUnknown   DataType = "unknown"
)

// IsNumeric reports whether the type carries numeric values.
func (d DataType) IsNumeric() bool {
	switch d {
	case DataTypeInt32, DataTypeInt64, DataTypeFloat32, DataTypeFloat64, DataTypeDecimal:
		return true
	}
	return false
}

// IsTemporal reports whether the type carries dates or timestamps.
func (d DataType) IsTemporal() bool {
	switch d {
	case DataTypeDate, DataTypeTimestamp, DataTypeTime:
		return true
	}
	return false
}

// IsCategorical reports whether the type is expected to have low cardinality.
func (d DataType) IsCategorical() bool {
	return d == DataTypeBoolean || d == DataTypeString
}

// ForeignKeyRef points at the referenced table and column.
type ForeignKeyRef struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// TableRelationship records a detected link between two tables.
type TableRelationship struct {
	FromTable   string                  `json:"from_table" yaml:"from_table"`
	FromColumn  string                  `json:"from_column" yaml:"from_column"`
	ToTable     string                  `json:"to_table" yaml:"to_table"`
	ToColumn    string                  `json:"to_column" yaml:"to_column"`
	Cardinality RelationshipCardinality `json:"cardinality" yaml:"cardinality"`
	Confidence  float64                 `json:"confidence" yaml:"confidence"`
}

// RelationshipCardinality enumerates relationship shapes.
type RelationshipCardinality string

const (
	OneToOne   RelationshipCardinality = "one_to_one"
	OneToMany  RelationshipCardinality = "one_to_many"
	ManyToOne  RelationshipCardinality = "many_to_one"
	ManyToMany RelationshipCardinality = "many_to_many"
)
