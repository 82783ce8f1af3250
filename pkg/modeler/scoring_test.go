package modeler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qlikfox/qlikfox/pkg/models"
)

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name     string
		signals  TableSignals
		expected models.TableClass
	}{
		{
			name: "date-dominated table is a calendar",
			signals: TableSignals{
				RowCount:       3650,
				FieldCount:     6,
				DateFieldRatio: 0.8,
				UniqueKeyRatio: 1.0,
				AttributeCount: 6,
			},
			expected: models.ClassCalendar,
		},
		{
			name: "huge date-dominated table is not a calendar",
			signals: TableSignals{
				RowCount:        2_000_000,
				FieldCount:      4,
				DateFieldRatio:  0.75,
				RelativeRowSize: 1.0,
				FKLikeCount:     1,
				AttributeCount:  3,
			},
			expected: models.ClassFact,
		},
		{
			name: "two keys and nothing else is a bridge",
			signals: TableSignals{
				RowCount:       5000,
				FieldCount:     2,
				FKLikeCount:    2,
				AttributeCount: 0,
			},
			expected: models.ClassBridge,
		},
		{
			name: "dominant row count with foreign keys is a fact",
			signals: TableSignals{
				RowCount:        100_000,
				FieldCount:      8,
				RelativeRowSize: 1.0,
				FKLikeCount:     3,
				UniqueKeyRatio:  1.0,
				AttributeCount:  5,
			},
			expected: models.ClassFact,
		},
		{
			name: "selective key with few rows is a dimension",
			signals: TableSignals{
				RowCount:        200,
				FieldCount:      5,
				RelativeRowSize: 0.002,
				UniqueKeyRatio:  1.0,
				AttributeCount:  5,
			},
			expected: models.ClassDimension,
		},
		{
			name: "nothing distinctive falls back to lookup",
			signals: TableSignals{
				RowCount:        50,
				FieldCount:      2,
				RelativeRowSize: 0.001,
				UniqueKeyRatio:  0.4,
				AttributeCount:  2,
			},
			expected: models.ClassLookup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, confidence := ClassifyTable(tt.signals)
			assert.Equal(t, tt.expected, class)
			assert.Greater(t, confidence, 0.0)
			assert.LessOrEqual(t, confidence, 1.0)
		})
	}
}

func TestScoreFactRequiresDominance(t *testing.T) {
	small := TableSignals{RelativeRowSize: 0.2, FKLikeCount: 2}
	large := TableSignals{RelativeRowSize: 1.0, FKLikeCount: 2}

	assert.Less(t, scoreFact(small), scoreFact(large))
	// Below the dominance threshold the score is halved on top of the
	// proportional drop.
	assert.InDelta(t, 0.1, scoreFact(small), 1e-9)
	assert.InDelta(t, 1.0, scoreFact(large), 1e-9)
}

func TestScoreDimensionPenalizedByForeignKeys(t *testing.T) {
	clean := TableSignals{UniqueKeyRatio: 1.0, FKLikeCount: 0}
	snowflaked := TableSignals{UniqueKeyRatio: 1.0, FKLikeCount: 1}
	fanned := TableSignals{UniqueKeyRatio: 1.0, FKLikeCount: 4}

	assert.InDelta(t, 1.0, scoreDimension(clean), 1e-9)
	assert.InDelta(t, 0.7, scoreDimension(snowflaked), 1e-9)
	assert.Equal(t, 0.0, scoreDimension(fanned))
}

func TestScoreBridgeAllOrNothing(t *testing.T) {
	assert.Equal(t, 0.95, scoreBridge(TableSignals{FKLikeCount: 2, AttributeCount: 0}))
	assert.Equal(t, 0.0, scoreBridge(TableSignals{FKLikeCount: 2, AttributeCount: 1}))
	assert.Equal(t, 0.0, scoreBridge(TableSignals{FKLikeCount: 3, AttributeCount: 0}))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
}
