package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

func TestInferValueType(t *testing.T) {
	cases := map[string]models.DataType{
		"true":                                 models.DataTypeBoolean,
		"42":                                   models.DataTypeInt64,
		"3.14":                                 models.DataTypeDecimal,
		"1e6":                                  models.DataTypeFloat64,
		"2024-03-15":                           models.DataTypeDate,
		"2024-03-15T10:30:00Z":                 models.DataTypeTimestamp,
		"550e8400-e29b-41d4-a716-446655440000": models.DataTypeUUID,
		"hello":                                models.DataTypeString,
	}
	for value, want := range cases {
		assert.Equal(t, want, inferValueType(value), "value %q", value)
	}
}

func TestWidenType(t *testing.T) {
	assert.Equal(t, models.DataTypeDecimal, widenType(models.DataTypeInt64, models.DataTypeDecimal))
	assert.Equal(t, models.DataTypeInt64, widenType(models.DataTypeInt64, models.DataTypeInt64))
	assert.Equal(t, models.DataTypeString, widenType(models.DataTypeInt64, models.DataTypeDate))
}

func TestSchemaExtractorFields(t *testing.T) {
	columns := []string{"invoice_id", "amount", "notes"}
	rows := [][]string{}
	for i := 0; i < 40; i++ {
		note := "paid"
		if i%4 == 0 {
			note = ""
		}
		rows = append(rows, []string{
			"INV-" + string(rune('A'+i%26)) + string(rune('A'+i/26)),
			"12.50",
			note,
		})
	}
	table, err := NewMemorySource("invoices", columns, rows).Load()
	require.NoError(t, err)

	engine, err := privacy.NewEngine(models.PrivacyConfigForLevel(models.PrivacyStandard), 1, nil)
	require.NoError(t, err)

	component, err := (&SchemaExtractor{}).Extract(table, DefaultConfig(), engine)
	require.NoError(t, err)

	var set componentSet
	component.apply(&set)
	ts := set.schema.GetTable("invoices")
	require.NotNil(t, ts)

	id := ts.GetColumn("invoice_id")
	require.NotNil(t, id)
	assert.True(t, id.IsPrimaryKey)
	assert.Equal(t, "identifier", id.SemanticType)
	assert.False(t, id.Nullable)

	amount := ts.GetColumn("amount")
	require.NotNil(t, amount)
	assert.Equal(t, models.DataTypeDecimal, amount.DataType)
	assert.Equal(t, "monetary", amount.SemanticType)

	notes := ts.GetColumn("notes")
	require.NotNil(t, notes)
	assert.True(t, notes.Nullable)
	assert.InDelta(t, 0.25, notes.NullRate, 0.01)
}

func TestSchemaExtractorSuppressesSensitiveFields(t *testing.T) {
	columns := []string{"ssn", "amount"}
	rows := make([][]string, 20)
	for i := range rows {
		rows[i] = []string{"123-45-6789", "10.00"}
	}
	table, err := NewMemorySource("people", columns, rows).Load()
	require.NoError(t, err)

	config := models.PrivacyConfigForLevel(models.PrivacyStandard)
	config.SuppressedFields = []string{"ssn"}
	engine, err := privacy.NewEngine(config, 1, nil)
	require.NoError(t, err)

	component, err := (&SchemaExtractor{}).Extract(table, DefaultConfig(), engine)
	require.NoError(t, err)

	var set componentSet
	component.apply(&set)
	ssn := set.schema.GetTable("people").GetColumn("ssn")
	require.NotNil(t, ssn)
	assert.Equal(t, "suppressed", ssn.SemanticType)

	amount := set.schema.GetTable("people").GetColumn("amount")
	require.NotNil(t, amount)
	assert.Equal(t, "monetary", amount.SemanticType)
}
