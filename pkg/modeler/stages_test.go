package modeler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlikfox/qlikfox/pkg/models"
)

// starFragmentInput analyzes the two-table star and wraps it as
// fragment input.
func starFragmentInput(t *testing.T) FragmentInput {
	t.Helper()

	input, stats := customersOrdersInput()
	analysis, err := newTestAnalyzer().Analyze(input, stats)
	require.NoError(t, err)

	return FragmentInput{
		ProjectName: "fragment-test",
		Input:       input,
		Stats:       stats,
		Analysis:    analysis,
		Config:      testBuildConfig(),
		ModelType:   models.ModelStarSchema,
	}
}

func TestFragmentSetRejectsUnknownStage(t *testing.T) {
	_, err := NewFragmentSet().Generate("Q", starFragmentInput(t))
	require.Error(t, err)
}

func TestFragmentSetRequiresAnalysis(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis = nil

	_, err := NewFragmentSet().Generate(models.StageConfiguration, in)
	require.Error(t, err)
}

func TestConfigFragment(t *testing.T) {
	script, err := (&configFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)

	assert.Contains(t, script, "SET DateFormat='YYYY-MM-DD';")
	assert.Contains(t, script, "SET vDataPath = 'lib://DataFiles';")
	assert.Contains(t, script, "SET vCalendarLanguage = 'en';")
	assert.Contains(t, script, "QUALIFY *;")
	assert.Contains(t, script, "UNQUALIFY [%*];")
	// The directive order matters: qualify everything, then exempt keys.
	assert.Less(t, strings.Index(script, "QUALIFY *;"), strings.Index(script, "UNQUALIFY [%*];"))
}

func TestConfigFragmentUsesSessionConfig(t *testing.T) {
	in := starFragmentInput(t)
	in.Config.DestinationPath = "lib://SalesData"
	in.Config.DateFormat = "DD.MM.YYYY"

	script, err := (&configFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "SET vDataPath = 'lib://SalesData';")
	assert.Contains(t, script, "SET DateFormat='DD.MM.YYYY';")
}

func TestDimensionsFragment(t *testing.T) {
	script, err := (&dimensionsFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)

	assert.Contains(t, script, "[Customers]:")
	// The parent-side key is exposed under its %-prefixed association name.
	assert.Contains(t, script, "[CustomerID] AS [%CustomerID]")
	assert.Contains(t, script, "FROM [$(vDataPath)/customers.qvd] (qvd);")
	// Fact tables are not loaded in stage B.
	assert.NotContains(t, script, "[Orders]:")
}

func TestFactsFragment(t *testing.T) {
	script, err := (&factsFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)

	assert.Contains(t, script, "[Orders]:")
	// Child foreign key rewritten onto the parent's key name.
	assert.Contains(t, script, "[CustomerID] AS [%CustomerID]")
	// The first date field drives calendar association.
	assert.Contains(t, script, "[OrderDate] AS [%CalendarDate]")
	assert.Contains(t, script, "FROM [$(vDataPath)/orders.qvd] (qvd);")
	assert.NotContains(t, script, "[Customers]:")
}

func TestCalendarFragmentAutogenerates(t *testing.T) {
	script, err := (&calendarFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)

	assert.Contains(t, script, "SET MonthNames='Jan;Feb;Mar;Apr;May;Jun;Jul;Aug;Sep;Oct;Nov;Dec';")
	assert.Contains(t, script, "[TempCalendarRange]:")
	assert.Contains(t, script, "RESIDENT [Orders];")
	assert.Contains(t, script, "[MasterCalendar]:")
	assert.Contains(t, script, "AUTOGENERATE 1")
	assert.Contains(t, script, "WHILE $(vCalMin) + IterNo() - 1 <= $(vCalMax);")
	assert.Contains(t, script, "Date(TempDate) AS [%CalendarDate],")
}

func TestCalendarFragmentLocale(t *testing.T) {
	in := starFragmentInput(t)
	in.Config.CalendarLanguage = "de"

	script, err := (&calendarFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "SET DayNames='Mo;Di;Mi;Do;Fr;Sa;So';")
	assert.Contains(t, script, "Dezember")
}

func TestCalendarFragmentFormalizesExistingCalendar(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis.Tables = append(in.Analysis.Tables, models.TableAnalysis{
		Table:          "FiscalCalendar",
		Classification: models.ClassCalendar,
		Confidence:     0.9,
	})

	script, err := (&calendarFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "FiscalCalendar")
	assert.NotContains(t, script, "MasterCalendar")
}

func TestCalendarFragmentSkipsWithoutDates(t *testing.T) {
	in := starFragmentInput(t)
	// Strip the date field from the fact table.
	in.Input.Tables[1].Fields = []models.FieldSpec{
		{Name: "OrderID", Type: "integer"},
		{Name: "CustomerID", Type: "integer"},
		{Name: "Amount", Type: "decimal"},
	}

	script, err := (&calendarFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "master calendar skipped")
	assert.NotContains(t, script, "MasterCalendar")
}

func TestBridgeFragmentWithoutManyToMany(t *testing.T) {
	script, err := (&bridgeFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)
	assert.Contains(t, script, "No many-to-many relationships")
}

func TestBridgeFragmentLoadsBridgeTable(t *testing.T) {
	in := starFragmentInput(t)
	in.Input.Tables = append(in.Input.Tables, models.RawTableSpec{
		Name: "OrderTags",
		Fields: []models.FieldSpec{
			{Name: "OrderID", Type: "integer"},
			{Name: "TagID", Type: "integer"},
		},
	})
	in.Analysis.Tables = append(in.Analysis.Tables, models.TableAnalysis{
		Table:          "OrderTags",
		Classification: models.ClassBridge,
		Confidence:     0.9,
	})

	script, err := (&bridgeFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "[OrderTags]:")
	assert.Contains(t, script, "FROM [$(vDataPath)/ordertags.qvd] (qvd);")
}

func TestBridgeFragmentSynthesizesLinkTable(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis.Relationships = []models.Relationship{
		{
			ChildTable:  "Orders",
			ChildField:  "CustomerID",
			ParentTable: "Customers",
			ParentField: "CustomerID",
			Cardinality: models.CardinalityManyToMany,
			Confidence:  1.0,
			Source:      models.RelationshipFromHint,
		},
	}

	script, err := (&bridgeFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "[Link_Orders_Customers]:")
	assert.Contains(t, script, "LOAD DISTINCT")
	assert.Contains(t, script, "[CustomerID] AS [%CustomerID],")
	assert.Contains(t, script, "AS [%LinkKey]")
	assert.Contains(t, script, "FROM [$(vDataPath)/orders.qvd] (qvd);")
}

func TestAssemblyFragment(t *testing.T) {
	script, err := (&assemblyFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)

	assert.Contains(t, script, "STORE [Customers] INTO [$(vDataPath)/model/customers.qvd] (qvd);")
	assert.Contains(t, script, "STORE [Orders] INTO [$(vDataPath)/model/orders.qvd] (qvd);")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(script), "EXIT Script;"))
	// Both tables resolve into the graph; no consistency warnings.
	assert.NotContains(t, script, "// WARNING:")
}

func TestAssemblyFragmentStoresSynthesizedCalendar(t *testing.T) {
	// The star input has no calendar-classified table, so stage D
	// synthesizes MasterCalendar and stage F must persist it.
	script, err := (&assemblyFragment{}).Generate(starFragmentInput(t))
	require.NoError(t, err)
	assert.Contains(t, script, "STORE [MasterCalendar] INTO [$(vDataPath)/model/mastercalendar.qvd] (qvd);")
}

func TestAssemblyFragmentSkipsCalendarStoreWhenFormalized(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis.Tables = append(in.Analysis.Tables, models.TableAnalysis{
		Table:          "FiscalCalendar",
		Classification: models.ClassCalendar,
		Confidence:     0.9,
	})

	script, err := (&assemblyFragment{}).Generate(in)
	require.NoError(t, err)
	assert.NotContains(t, script, "STORE [MasterCalendar]")
}

func TestAssemblyFragmentStoresSynthesizedLinkTable(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis.Relationships = []models.Relationship{
		{
			ChildTable:  "Orders",
			ChildField:  "CustomerID",
			ParentTable: "Customers",
			ParentField: "CustomerID",
			Cardinality: models.CardinalityManyToMany,
			Confidence:  1.0,
			Source:      models.RelationshipFromHint,
		},
	}

	script, err := (&assemblyFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "STORE [Link_Orders_Customers] INTO [$(vDataPath)/model/link_orders_customers.qvd] (qvd);")
}

func TestAssemblyFragmentWarnsOnUnreferencedTable(t *testing.T) {
	in := starFragmentInput(t)
	in.Analysis.Tables = append(in.Analysis.Tables, models.TableAnalysis{
		Table:          "Orphan",
		Classification: models.ClassLookup,
	})

	script, err := (&assemblyFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "// WARNING: table [Orphan] has no resolved relationships")
}

func TestAssemblyFragmentWarnsOnDuplicateFields(t *testing.T) {
	in := starFragmentInput(t)
	in.Input.Tables[0].Fields = append(in.Input.Tables[0].Fields,
		models.FieldSpec{Name: "Amount", Type: "decimal"})

	script, err := (&assemblyFragment{}).Generate(in)
	require.NoError(t, err)
	assert.Contains(t, script, "field [Amount] appears in both")
	assert.Contains(t, script, "kept apart by QUALIFY")
}

func TestQvdSource(t *testing.T) {
	assert.Equal(t, "orders.qvd", qvdSource(&models.RawTableSpec{Name: "Orders"}))
	assert.Equal(t, "raw_orders.qvd", qvdSource(&models.RawTableSpec{Name: "Orders", SourceName: "raw_orders"}))
	assert.Equal(t, "raw_orders.qvd", qvdSource(&models.RawTableSpec{Name: "Orders", SourceName: "raw_orders.qvd"}))
}

func TestKeyAliases(t *testing.T) {
	in := starFragmentInput(t)

	parentSide := keyAliases("Customers", in.Analysis)
	assert.Equal(t, "%CustomerID", parentSide["CustomerID"])

	childSide := keyAliases("Orders", in.Analysis)
	assert.Equal(t, "%CustomerID", childSide["CustomerID"])

	// Unrelated tables fall back to their business key.
	in.Analysis.Tables = append(in.Analysis.Tables, models.TableAnalysis{
		Table:          "Standalone",
		Classification: models.ClassLookup,
		KeyField:       "Code",
	})
	standalone := keyAliases("Standalone", in.Analysis)
	assert.Equal(t, "%Code", standalone["Code"])
}
