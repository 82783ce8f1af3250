package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampledStatsUnmarshalTolerant(t *testing.T) {
	payload := `{
		"table_name": "Orders",
		"row_count": "10000",
		"fields": [
			{"name": "OrderID", "type": "integer", "cardinality": "10000", "null_percent": "0.5"},
			{"name": "Amount", "type": "decimal", "cardinality": 8000, "sample_values": [12.5, "19.99", true]}
		]
	}`

	var stats SampledStats
	require.NoError(t, json.Unmarshal([]byte(payload), &stats))

	assert.Equal(t, "Orders", stats.TableName)
	assert.Equal(t, int64(10_000), stats.RowCount)
	require.Len(t, stats.Fields, 2)

	assert.Equal(t, int64(10_000), stats.Fields[0].Cardinality)
	assert.InDelta(t, 0.5, stats.Fields[0].NullPercent, 1e-9)

	assert.Equal(t, int64(8000), stats.Fields[1].Cardinality)
	assert.Equal(t, []string{"12.5", "19.99", "true"}, stats.Fields[1].SampleValues)
}

func TestSampledStatsUnmarshalRejectsMalformed(t *testing.T) {
	var stats SampledStats
	err := json.Unmarshal([]byte(`{"table_name": [}`), &stats)
	require.Error(t, err)
}

func TestFieldLookup(t *testing.T) {
	stats := SampledStats{
		TableName: "Customers",
		Fields: []FieldStats{
			{Name: "CustomerID", Cardinality: 100},
			{Name: "Country", Cardinality: 12},
		},
	}

	field := stats.Field("Country")
	require.NotNil(t, field)
	assert.Equal(t, int64(12), field.Cardinality)

	assert.Nil(t, stats.Field("Missing"))
}
