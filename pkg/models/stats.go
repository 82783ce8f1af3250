package models

import (
	"encoding/json"

	"github.com/qlikfox/qlikfox/pkg/jsonutil"
)

// FieldStats carries the sampled profile of one field.
type FieldStats struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Cardinality  int64    `json:"cardinality"`
	NullPercent  float64  `json:"null_percent"`
	SampleValues []string `json:"sample_values,omitempty"`
}

// UnmarshalJSON tolerates stringified numbers and numeric sample
// values, which agents produce when echoing profiler output verbatim.
func (f *FieldStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name         json.RawMessage   `json:"name"`
		Type         json.RawMessage   `json:"type"`
		Cardinality  json.RawMessage   `json:"cardinality"`
		NullPercent  json.RawMessage   `json:"null_percent"`
		SampleValues []json.RawMessage `json:"sample_values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = jsonutil.FlexibleStringValue(raw.Name)
	f.Type = jsonutil.FlexibleStringValue(raw.Type)
	f.Cardinality = int64(jsonutil.FlexibleFloatValue(raw.Cardinality))
	f.NullPercent = jsonutil.FlexibleFloatValue(raw.NullPercent)

	f.SampleValues = nil
	for _, v := range raw.SampleValues {
		f.SampleValues = append(f.SampleValues, jsonutil.FlexibleStringValue(v))
	}
	return nil
}

// SampledStats carries per-table sampled statistics, paired 1:1 with
// a RawTableSpec by table name. Used only as analysis input, never
// mutated.
type SampledStats struct {
	TableName string       `json:"table_name"`
	RowCount  int64        `json:"row_count"`
	Fields    []FieldStats `json:"fields"`
}

// UnmarshalJSON tolerates a stringified row_count.
func (s *SampledStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		TableName json.RawMessage `json:"table_name"`
		RowCount  json.RawMessage `json:"row_count"`
		Fields    []FieldStats    `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.TableName = jsonutil.FlexibleStringValue(raw.TableName)
	s.RowCount = int64(jsonutil.FlexibleFloatValue(raw.RowCount))
	s.Fields = raw.Fields
	return nil
}

// Field returns the stats for the named field, or nil.
func (s *SampledStats) Field(name string) *FieldStats {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}
