package models

import "time"

// AnalysisSummary is the condensed view of an AnalysisResult carried
// in an export bundle.
type AnalysisSummary struct {
	TableCount        int            `json:"table_count" yaml:"table_count"`
	RelationshipCount int            `json:"relationship_count" yaml:"relationship_count"`
	Classifications   map[string]int `json:"classifications" yaml:"classifications"`
	RecommendedType   ModelType      `json:"recommended_type" yaml:"recommended_type"`
	Rationale         string         `json:"rationale" yaml:"rationale"`
}

// ExportBundle is the immutable snapshot handed to the deployment
// collaborator. Exporting never changes pipeline state.
type ExportBundle struct {
	ProjectName     string          `json:"project_name" yaml:"project_name"`
	ModelType       ModelType       `json:"model_type" yaml:"model_type"`
	AssembledScript string          `json:"assembled_script" yaml:"assembled_script"`
	ApprovedStages  []StageID       `json:"approved_stages" yaml:"approved_stages"`
	Analysis        AnalysisSummary `json:"analysis_summary" yaml:"analysis_summary"`
	ExportedAt      time.Time       `json:"exported_at" yaml:"exported_at"`
}
