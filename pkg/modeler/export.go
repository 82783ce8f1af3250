package modeler

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// Export produces the immutable snapshot handed to the deployment
// collaborator. It requires a selected model type and at least one
// approved stage, never mutates pipeline state, and may be called
// repeatedly.
func (s *Session) Export() (*models.ExportBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ModelType == "" {
		return nil, apperrors.NewWorkflow("model type not selected; nothing to export")
	}

	script, err := s.scriptLocked()
	if err != nil {
		return nil, err
	}

	var approved []models.StageID
	for _, stage := range s.stages {
		if stage.State == models.StageApproved {
			approved = append(approved, stage.StageID)
		}
	}

	bundle := &models.ExportBundle{
		ProjectName:     s.ProjectName,
		ModelType:       s.ModelType,
		AssembledScript: script,
		ApprovedStages:  approved,
		ExportedAt:      time.Now().UTC(),
	}

	if s.Analysis != nil {
		classifications := make(map[string]int)
		for _, t := range s.Analysis.Tables {
			classifications[string(t.Classification)]++
		}
		bundle.Analysis = models.AnalysisSummary{
			TableCount:        len(s.Analysis.Tables),
			RelationshipCount: len(s.Analysis.Relationships),
			Classifications:   classifications,
			RecommendedType:   s.Analysis.Recommendation.ModelType,
			Rationale:         s.Analysis.Recommendation.Rationale,
		}
	}

	return bundle, nil
}

// ExportManifest renders the bundle metadata (everything except the
// script body) as a YAML document for the deployment collaborator.
func ExportManifest(bundle *models.ExportBundle) (string, error) {
	manifest := struct {
		ProjectName    string                 `yaml:"project_name"`
		ModelType      models.ModelType       `yaml:"model_type"`
		ApprovedStages []models.StageID       `yaml:"approved_stages"`
		Analysis       models.AnalysisSummary `yaml:"analysis_summary"`
		ExportedAt     time.Time              `yaml:"exported_at"`
	}{
		ProjectName:    bundle.ProjectName,
		ModelType:      bundle.ModelType,
		ApprovedStages: bundle.ApprovedStages,
		Analysis:       bundle.Analysis,
		ExportedAt:     bundle.ExportedAt,
	}

	out, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to render export manifest: %w", err)
	}
	return string(out), nil
}
