package modeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// customersOrdersInput is the canonical two-table star: a small
// customer dimension referenced by a large order fact.
func customersOrdersInput() (*models.TableInput, []models.SampledStats) {
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{
				Name:       "Customers",
				SourceName: "customers.qvd",
				Fields: []models.FieldSpec{
					{Name: "CustomerID", Type: "integer"},
					{Name: "CustomerName", Type: "string"},
					{Name: "Country", Type: "string"},
				},
			},
			{
				Name:       "Orders",
				SourceName: "orders.qvd",
				Fields: []models.FieldSpec{
					{Name: "OrderID", Type: "integer"},
					{Name: "CustomerID", Type: "integer"},
					{Name: "OrderDate", Type: "date"},
					{Name: "Amount", Type: "decimal"},
				},
			},
		},
	}

	stats := []models.SampledStats{
		{
			TableName: "Customers",
			RowCount:  100,
			Fields: []models.FieldStats{
				{Name: "CustomerID", Type: "integer", Cardinality: 100},
				{Name: "CustomerName", Type: "string", Cardinality: 98},
				{Name: "Country", Type: "string", Cardinality: 12},
			},
		},
		{
			TableName: "Orders",
			RowCount:  10_000,
			Fields: []models.FieldStats{
				{Name: "OrderID", Type: "integer", Cardinality: 10_000},
				{Name: "CustomerID", Type: "integer", Cardinality: 100},
				{Name: "OrderDate", Type: "date", Cardinality: 365},
				{Name: "Amount", Type: "decimal", Cardinality: 8000},
			},
		},
	}

	return input, stats
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(zap.NewNop())
}

func TestAnalyzeRequiresInput(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.Analyze(nil, []models.SampledStats{{TableName: "X"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	input, _ := customersOrdersInput()
	_, err = a.Analyze(input, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAnalyzeRejectsUnknownStatsTable(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	stats[0].TableName = "Ghosts"

	_, err := a.Analyze(input, stats)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Ghosts")
}

func TestAnalyzeCustomersOrders(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	customers := result.TableFor("Customers")
	require.NotNil(t, customers)
	assert.Equal(t, models.ClassDimension, customers.Classification)
	assert.Equal(t, "CustomerID", customers.KeyField)

	orders := result.TableFor("Orders")
	require.NotNil(t, orders)
	assert.Equal(t, models.ClassFact, orders.Classification)

	require.Len(t, result.Relationships, 1)
	rel := result.Relationships[0]
	assert.Equal(t, "Orders", rel.ChildTable)
	assert.Equal(t, "CustomerID", rel.ChildField)
	assert.Equal(t, "Customers", rel.ParentTable)
	assert.Equal(t, "CustomerID", rel.ParentField)
	assert.Equal(t, models.CardinalityOneToMany, rel.Cardinality)
	assert.Equal(t, models.RelationshipInferred, rel.Source)
	assert.InDelta(t, InferredEdgeConfidence, rel.Confidence, 1e-9)

	assert.Equal(t, models.ModelStarSchema, result.Recommendation.ModelType)
	assert.NotEmpty(t, result.Recommendation.Rationale)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()

	first, err := a.Analyze(input, stats)
	require.NoError(t, err)
	second, err := a.Analyze(input, stats)
	require.NoError(t, err)

	assert.Equal(t, first.Tables, second.Tables)
	assert.Equal(t, first.Relationships, second.Relationships)
	assert.Equal(t, first.Recommendation, second.Recommendation)
}

func TestAnalyzeHintOverridesInference(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	input.Hints = []models.RelationshipHint{
		{From: "Orders.CustomerID", To: "Customers.CustomerID", Type: "many-to-one"},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	require.Len(t, result.Relationships, 1)
	rel := result.Relationships[0]
	assert.Equal(t, models.RelationshipFromHint, rel.Source)
	assert.Equal(t, 1.0, rel.Confidence)
	assert.Equal(t, models.CardinalityOneToMany, rel.Cardinality)
	assert.Equal(t, "Orders", rel.ChildTable)
}

func TestAnalyzeOneToManyHintNormalizesSides(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	// Declared parent-first; the resolved edge is still child-to-parent.
	input.Hints = []models.RelationshipHint{
		{From: "Customers.CustomerID", To: "Orders.CustomerID", Type: "one-to-many"},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	require.Len(t, result.Relationships, 1)
	rel := result.Relationships[0]
	assert.Equal(t, "Orders", rel.ChildTable)
	assert.Equal(t, "Customers", rel.ParentTable)
	assert.Equal(t, models.CardinalityOneToMany, rel.Cardinality)
}

func TestAnalyzeBadHintBecomesWarning(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	input.Hints = []models.RelationshipHint{
		{From: "Orders.CustomerID", To: "Nowhere.ID", Type: "many-to-one"},
		{From: "not-a-field-ref", To: "Customers.CustomerID"},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	assert.Len(t, result.Warnings, 2)
	// The inferred edge still resolves after the bad hints are skipped.
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, models.RelationshipInferred, result.Relationships[0].Source)
}

func TestAnalyzeInflectedForeignKeyMatch(t *testing.T) {
	a := newTestAnalyzer()
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{
				Name: "Customers",
				Fields: []models.FieldSpec{
					{Name: "ID", Type: "integer"},
					{Name: "Name", Type: "string"},
				},
			},
			{
				Name: "Orders",
				Fields: []models.FieldSpec{
					{Name: "OrderID", Type: "integer"},
					{Name: "customer_id", Type: "integer"},
					{Name: "Amount", Type: "decimal"},
				},
			},
		},
	}
	stats := []models.SampledStats{
		{TableName: "Customers", RowCount: 50, Fields: []models.FieldStats{
			{Name: "ID", Cardinality: 50},
			{Name: "Name", Cardinality: 49},
		}},
		{TableName: "Orders", RowCount: 2000, Fields: []models.FieldStats{
			{Name: "OrderID", Cardinality: 2000},
			{Name: "customer_id", Cardinality: 50},
			{Name: "Amount", Cardinality: 1500},
		}},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	require.Len(t, result.Relationships, 1)
	rel := result.Relationships[0]
	assert.Equal(t, "customer_id", rel.ChildField)
	assert.Equal(t, "Customers", rel.ParentTable)
	assert.Equal(t, "ID", rel.ParentField)
	assert.InDelta(t, InflectedEdgeConfidence, rel.Confidence, 1e-9)
}

func TestAnalyzeDropsImpossibleEdge(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	// More distinct child values than the parent has rows.
	stats[1].Fields[1].Cardinality = 500

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	assert.Empty(t, result.Relationships)
	require.Len(t, result.Unresolved, 1)
	assert.Contains(t, result.Unresolved[0], "Orders.CustomerID")
}

func TestAnalyzeBridgeTableRecommendsLinkTable(t *testing.T) {
	a := newTestAnalyzer()
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{Name: "Students", Fields: []models.FieldSpec{
				{Name: "StudentID", Type: "integer"},
				{Name: "StudentName", Type: "string"},
			}},
			{Name: "Courses", Fields: []models.FieldSpec{
				{Name: "CourseID", Type: "integer"},
				{Name: "Title", Type: "string"},
			}},
			{Name: "Enrollment", Fields: []models.FieldSpec{
				{Name: "StudentID", Type: "integer"},
				{Name: "CourseID", Type: "integer"},
			}},
		},
	}
	stats := []models.SampledStats{
		{TableName: "Students", RowCount: 100, Fields: []models.FieldStats{
			{Name: "StudentID", Cardinality: 100},
			{Name: "StudentName", Cardinality: 99},
		}},
		{TableName: "Courses", RowCount: 40, Fields: []models.FieldStats{
			{Name: "CourseID", Cardinality: 40},
			{Name: "Title", Cardinality: 40},
		}},
		{TableName: "Enrollment", RowCount: 5000, Fields: []models.FieldStats{
			{Name: "StudentID", Cardinality: 100},
			{Name: "CourseID", Cardinality: 40},
		}},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	enrollment := result.TableFor("Enrollment")
	require.NotNil(t, enrollment)
	assert.Equal(t, models.ClassBridge, enrollment.Classification)

	require.Len(t, result.Relationships, 2)
	for _, rel := range result.Relationships {
		assert.Equal(t, models.CardinalityManyToMany, rel.Cardinality)
	}

	assert.Equal(t, models.ModelLinkTable, result.Recommendation.ModelType)
}

func TestAnalyzeSnowflakedDimensions(t *testing.T) {
	a := newTestAnalyzer()
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{Name: "Orders", Fields: []models.FieldSpec{
				{Name: "OrderID", Type: "integer"},
				{Name: "CustomerID", Type: "integer"},
				{Name: "Amount", Type: "decimal"},
			}},
			{Name: "Customers", Fields: []models.FieldSpec{
				{Name: "CustomerID", Type: "integer"},
				{Name: "RegionID", Type: "integer"},
			}},
			{Name: "Regions", Fields: []models.FieldSpec{
				{Name: "RegionID", Type: "integer"},
				{Name: "RegionName", Type: "string"},
			}},
		},
	}
	stats := []models.SampledStats{
		{TableName: "Orders", RowCount: 10_000, Fields: []models.FieldStats{
			{Name: "OrderID", Cardinality: 10_000},
			{Name: "CustomerID", Cardinality: 480},
			{Name: "Amount", Cardinality: 9000},
		}},
		{TableName: "Customers", RowCount: 500, Fields: []models.FieldStats{
			{Name: "CustomerID", Cardinality: 500},
			{Name: "RegionID", Cardinality: 10},
		}},
		{TableName: "Regions", RowCount: 10, Fields: []models.FieldStats{
			{Name: "RegionID", Cardinality: 10},
			{Name: "RegionName", Cardinality: 10},
		}},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	require.Len(t, result.Relationships, 2)
	assert.Equal(t, models.ModelSnowflake, result.Recommendation.ModelType)
	assert.Contains(t, result.Recommendation.Rationale, "Customers")
}

func TestAnalyzeSingleTableIsNormalized(t *testing.T) {
	a := newTestAnalyzer()
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{Name: "Events", Fields: []models.FieldSpec{
				{Name: "EventID", Type: "integer"},
				{Name: "Payload", Type: "string"},
			}},
		},
	}
	stats := []models.SampledStats{
		{TableName: "Events", RowCount: 100, Fields: []models.FieldStats{
			{Name: "EventID", Cardinality: 100},
			{Name: "Payload", Cardinality: 100},
		}},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)
	assert.Equal(t, models.ModelNormalized, result.Recommendation.ModelType)
	assert.Equal(t, 0.5, result.Recommendation.Confidence)
}

func TestAnalyzeDisconnectedGraphIsNormalized(t *testing.T) {
	a := newTestAnalyzer()
	input := &models.TableInput{
		Tables: []models.RawTableSpec{
			{Name: "Alpha", Fields: []models.FieldSpec{
				{Name: "AlphaID", Type: "integer"},
				{Name: "AlphaName", Type: "string"},
			}},
			{Name: "Beta", Fields: []models.FieldSpec{
				{Name: "BetaID", Type: "integer"},
				{Name: "BetaName", Type: "string"},
			}},
		},
	}
	stats := []models.SampledStats{
		{TableName: "Alpha", RowCount: 100, Fields: []models.FieldStats{
			{Name: "AlphaID", Cardinality: 100},
			{Name: "AlphaName", Cardinality: 100},
		}},
		{TableName: "Beta", RowCount: 100, Fields: []models.FieldStats{
			{Name: "BetaID", Cardinality: 100},
			{Name: "BetaName", Cardinality: 100},
		}},
	}

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)
	assert.Empty(t, result.Relationships)
	assert.Equal(t, models.ModelNormalized, result.Recommendation.ModelType)
	assert.Contains(t, result.Recommendation.Rationale, "disconnected")
}

func TestAnalyzeMissingStatsYieldsZeroConfidence(t *testing.T) {
	a := newTestAnalyzer()
	input, stats := customersOrdersInput()
	stats = stats[1:] // drop the Customers sample

	result, err := a.Analyze(input, stats)
	require.NoError(t, err)

	customers := result.TableFor("Customers")
	require.NotNil(t, customers)
	assert.Equal(t, models.ClassLookup, customers.Classification)
	assert.Equal(t, 0.0, customers.Confidence)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "Customers")
}

func TestSplitFieldRef(t *testing.T) {
	table, field, err := splitFieldRef("Orders.CustomerID")
	require.NoError(t, err)
	assert.Equal(t, "Orders", table)
	assert.Equal(t, "CustomerID", field)

	table, field, err = splitFieldRef("Orders.Line.Item")
	require.NoError(t, err)
	assert.Equal(t, "Orders", table)
	assert.Equal(t, "Line.Item", field)

	for _, bad := range []string{"", "Orders", "Orders.", ".CustomerID"} {
		_, _, err := splitFieldRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "customerid", normalizeName("Customer_ID"))
	assert.Equal(t, "customerid", normalizeName("customer-id"))
	assert.Equal(t, "customerid", normalizeName("Customer ID"))
}

func TestIsDateType(t *testing.T) {
	assert.True(t, isDateType("date"))
	assert.True(t, isDateType("DATETIME"))
	assert.True(t, isDateType("timestamp"))
	assert.False(t, isDateType("integer"))
	assert.False(t, isDateType("string"))
}
