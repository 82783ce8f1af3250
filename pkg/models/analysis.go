package models

import "time"

// TableClass is the inferred role of a table in the data model.
type TableClass string

const (
	ClassFact      TableClass = "fact"
	ClassDimension TableClass = "dimension"
	ClassBridge    TableClass = "bridge"
	ClassLookup    TableClass = "lookup"
	ClassCalendar  TableClass = "calendar"
)

// Cardinality describes the resolved cardinality of a relationship
// edge, expressed parent-to-child (the "one" side is the parent).
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "one-to-one"
	CardinalityOneToMany  Cardinality = "one-to-many"
	CardinalityManyToMany Cardinality = "many-to-many"
)

// RelationshipSource records how an edge was established.
type RelationshipSource string

const (
	// RelationshipFromHint marks edges declared by the caller.
	// Hints are authoritative and carry confidence 1.0.
	RelationshipFromHint RelationshipSource = "hint"
	// RelationshipInferred marks edges resolved by field-name and
	// cardinality matching.
	RelationshipInferred RelationshipSource = "inferred"
)

// ModelType enumerates the supported modeling patterns.
type ModelType string

const (
	ModelStarSchema ModelType = "star_schema"
	ModelSnowflake  ModelType = "snowflake"
	ModelLinkTable  ModelType = "link_table"
	ModelNormalized ModelType = "normalized"
)

// ValidModelTypes is the closed set accepted by select_model_type.
var ValidModelTypes = map[ModelType]bool{
	ModelStarSchema: true,
	ModelSnowflake:  true,
	ModelLinkTable:  true,
	ModelNormalized: true,
}

// TableAnalysis is the classification result for one table.
type TableAnalysis struct {
	Table          string     `json:"table"`
	Classification TableClass `json:"classification"`
	Confidence     float64    `json:"confidence"`
	// Signals preserved for the rationale and downstream stages.
	RowCount       int64   `json:"row_count"`
	UniqueKeyRatio float64 `json:"unique_key_ratio"`
	DateFieldRatio float64 `json:"date_field_ratio"`
	ForeignKeys    int     `json:"foreign_key_count"`
	// KeyField is the most selective field, used as the table key in
	// generated script.
	KeyField string `json:"key_field,omitempty"`
}

// Relationship is one resolved edge of the relationship graph,
// normalized child-to-parent: ChildTable.ChildField references
// ParentTable.ParentField.
type Relationship struct {
	ChildTable  string             `json:"child_table"`
	ChildField  string             `json:"child_field"`
	ParentTable string             `json:"parent_table"`
	ParentField string             `json:"parent_field"`
	Cardinality Cardinality        `json:"cardinality"`
	Confidence  float64            `json:"confidence"`
	Source      RelationshipSource `json:"source"`
}

// Recommendation is the suggested modeling pattern with rationale.
type Recommendation struct {
	ModelType  ModelType `json:"model_type"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
}

// AnalysisResult is the derived output of input analysis, owned by
// the session. Every table in the input appears exactly once in
// Tables; every relationship references two existing tables.
type AnalysisResult struct {
	Tables         []TableAnalysis `json:"tables"`
	Relationships  []Relationship  `json:"relationships"`
	Unresolved     []string        `json:"unresolved,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
	Recommendation Recommendation  `json:"recommendation"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
}

// TableFor returns the analysis entry for the named table, or nil.
func (r *AnalysisResult) TableFor(name string) *TableAnalysis {
	for i := range r.Tables {
		if r.Tables[i].Table == name {
			return &r.Tables[i]
		}
	}
	return nil
}

// TablesOf returns the analysis entries matching any of the given classes.
func (r *AnalysisResult) TablesOf(classes ...TableClass) []TableAnalysis {
	want := make(map[TableClass]bool, len(classes))
	for _, c := range classes {
		want[c] = true
	}
	var out []TableAnalysis
	for _, t := range r.Tables {
		if want[t.Classification] {
			out = append(out, t)
		}
	}
	return out
}
