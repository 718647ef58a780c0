package extraction

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

// typeInferenceSample caps how many rows participate in type inference.
const typeInferenceSample = 1000

var dateLayouts = []string{"2006-01-02", "01/02/2006", "02.01.2006"}

var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// SchemaExtractor infers table structure: column types, null rates,
// cardinalities, and a noised row count.
type SchemaExtractor struct{}

func (e *SchemaExtractor) Name() string { return "schema" }

func (e *SchemaExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	rowCount := table.RowCount()
	noisedRows, err := engine.AddNoiseToCount(uint64(rowCount), "schema.row_count")
	if err != nil {
		return nil, err
	}

	ts := models.NewTableSchema(table.Name, noisedRows)

	sample := rowCount
	if sample > typeInferenceSample {
		sample = typeInferenceSample
	}

	for i, name := range table.Columns {
		values := table.ColumnValues(i)
		nulls := 0
		distinct := make(map[string]struct{})
		dataType := models.DataTypeUnknown
		typed := false

		for j, v := range values {
			if v == "" {
				nulls++
				continue
			}
			distinct[v] = struct{}{}
			if j < sample {
				t := inferValueType(v)
				if !typed {
					dataType = t
					typed = true
				} else {
					dataType = widenType(dataType, t)
				}
			}
		}

		nullRate := 0.0
		if len(values) > 0 {
			nullRate = float64(nulls) / float64(len(values))
		}

		field := models.FieldSchema{
			Name:         name,
			DataType:     dataType,
			Nullable:     nulls > 0,
			NullRate:     nullRate,
			Cardinality:  uint64(len(distinct)),
			SemanticType: inferSemanticType(name, dataType),
		}
		if engine.ShouldSuppressField(name) {
			field.SemanticType = "suppressed"
		}
		if isLikelyPrimaryKey(name, len(distinct), len(values)-nulls, nulls) {
			field.IsPrimaryKey = true
			ts.PrimaryKey = append(ts.PrimaryKey, name)
		}
		ts.AddColumn(field)
	}

	schema := models.NewSchemaFingerprint()
	schema.AddTable(ts)
	return schemaComponent{fp: schema}, nil
}

// inferValueType classifies a single non-empty value. Order matters:
// every int parses as a float and every value parses as a string.
func inferValueType(v string) models.DataType {
	lower := strings.ToLower(v)
	if lower == "true" || lower == "false" {
		return models.DataTypeBoolean
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return models.DataTypeInt64
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		if strings.Contains(v, ".") {
			return models.DataTypeDecimal
		}
		return models.DataTypeFloat64
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return models.DataTypeDate
		}
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return models.DataTypeTimestamp
		}
	}
	if _, err := uuid.Parse(v); err == nil {
		return models.DataTypeUUID
	}
	return models.DataTypeString
}

// widenType merges two observed value types into the narrowest type
// that accepts both.
func widenType(a, b models.DataType) models.DataType {
	if a == b {
		return a
	}
	numeric := func(t models.DataType) bool {
		return t == models.DataTypeInt64 || t == models.DataTypeFloat64 || t == models.DataTypeDecimal
	}
	if numeric(a) && numeric(b) {
		if a == models.DataTypeDecimal || b == models.DataTypeDecimal {
			return models.DataTypeDecimal
		}
		return models.DataTypeFloat64
	}
	return models.DataTypeString
}

var monetaryHints = []string{"amount", "price", "balance", "debit", "credit", "total", "cost", "fee", "value"}

// inferSemanticType tags columns that downstream consumers treat
// specially, in particular monetary columns for Benford analysis.
func inferSemanticType(name string, dataType models.DataType) string {
	lower := strings.ToLower(name)
	if dataType.IsNumeric() {
		for _, hint := range monetaryHints {
			if strings.Contains(lower, hint) {
				return "monetary"
			}
		}
	}
	if strings.HasSuffix(lower, "_id") || lower == "id" {
		return "identifier"
	}
	if dataType.IsTemporal() {
		return "temporal"
	}
	return ""
}

func isLikelyPrimaryKey(name string, distinct, nonNull, nulls int) bool {
	if nulls > 0 || nonNull == 0 || distinct != nonNull {
		return false
	}
	lower := strings.ToLower(name)
	return lower == "id" || strings.HasSuffix(lower, "_id")
}
