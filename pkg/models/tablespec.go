package models

// FieldSpec declares a single field of a raw table.
type FieldSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RawTableSpec is the structural declaration of one source table as
// supplied by the upstream extraction collaborator. It is immutable
// once submitted; re-submission replaces the whole analysis.
type RawTableSpec struct {
	Name       string      `json:"name"`
	SourceName string      `json:"source_name"`
	Fields     []FieldSpec `json:"fields"`
}

// RelationshipHint is an authoritative, caller-declared relationship
// between two table fields, e.g. Orders.CustomerID -> Customers.CustomerID.
type RelationshipHint struct {
	// From and To are "Table.Field" references; From is the
	// referencing (child) side.
	From string `json:"from"`
	To   string `json:"to"`
	// Type is the declared cardinality, e.g. "many-to-one".
	Type string `json:"type"`
}

// TableInput bundles the raw table declarations and hints submitted
// in a single analyze call.
type TableInput struct {
	Tables []RawTableSpec     `json:"tables"`
	Hints  []RelationshipHint `json:"relationship_hints,omitempty"`
}

// Field returns the field spec with the given name, or nil.
func (t *RawTableSpec) Field(name string) *FieldSpec {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}
