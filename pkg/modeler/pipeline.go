package modeler

import (
	"strings"
	"time"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/config"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// ProcessInput runs the analyzer over the submitted table spec and
// sampled statistics and replaces the session's analysis. Any prior
// stage builds are invalidated since their fragments were generated
// against the old analysis. Re-processing identical inputs yields an
// identical analysis.
func (s *Session) ProcessInput(analyzer *Analyzer, input *models.TableInput, stats []models.SampledStats) (*models.AnalysisResult, error) {
	// Analysis is a pure function of its inputs; run it before taking
	// the lock so a failed analysis leaves the session untouched.
	result, err := analyzer.Analyze(input, stats)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Input = input
	s.Stats = stats
	s.Analysis = result
	s.stages = freshStages()
	s.pointer = 0

	return result, nil
}

// SelectModelType validates and records the chosen modeling pattern.
// Selecting a model type clears all stage artifacts: fragments built
// for a different pattern are no longer valid.
func (s *Session) SelectModelType(modelType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Analysis == nil {
		return apperrors.NewWorkflow("input has not been processed; run analyze_data_model first")
	}

	mt := models.ModelType(strings.TrimSpace(modelType))
	if !models.ValidModelTypes[mt] {
		return apperrors.NewWorkflow("Invalid model type: %q (valid: star_schema, snowflake, link_table, normalized)", modelType)
	}

	s.ModelType = mt
	s.stages = freshStages()
	s.pointer = 0
	return nil
}

// UpdateConfig merges recognized script-generation options into the
// session config. Unrecognized keys are silently ignored. Returns the
// resulting config and the list of keys that were applied. Changes are
// staged into a copy and committed only when every supplied key is
// valid, so a rejected value leaves the session config untouched.
// Analysis and stage state are never touched.
func (s *Session) UpdateConfig(options map[string]any) (models.BuildConfig, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.Config
	var applied []string
	for key, value := range options {
		str, ok := value.(string)
		if !ok {
			continue
		}
		str = strings.TrimSpace(str)
		if str == "" {
			continue
		}

		switch key {
		case "destination_path":
			staged.DestinationPath = str
			applied = append(applied, key)
		case "calendar_language":
			if !config.IsCalendarLanguageSupported(str) {
				return s.Config, nil, apperrors.NewValidation("unsupported calendar language %q", str)
			}
			staged.CalendarLanguage = str
			applied = append(applied, key)
		case "date_format":
			staged.DateFormat = str
			applied = append(applied, key)
		}
	}

	s.Config = staged
	return s.Config, applied, nil
}

// Build generates the script fragment for a stage. With no stageID the
// current-pointer stage is built. Stage generation is independent of
// approval order; only approval enforces the A-to-F sequence. Building
// an already-approved stage is rejected (go back first). Re-building
// overwrites the unapproved script and touches no other stage.
func (s *Session) Build(stageID string, fragments *FragmentSet) (*models.StageArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ModelType == "" {
		return nil, apperrors.NewWorkflow("model type not selected; run select_model_type first")
	}

	var stage *models.StageArtifact
	if strings.TrimSpace(stageID) == "" {
		if s.pointer >= len(s.stages) {
			return nil, apperrors.NewWorkflow("pipeline is complete; go back to a stage to rebuild it")
		}
		stage = s.stages[s.pointer]
	} else {
		idx := models.StageIndex(models.StageID(strings.ToUpper(strings.TrimSpace(stageID))))
		if idx < 0 {
			return nil, apperrors.NewValidation("unknown stage %q (valid: A-F)", stageID)
		}
		stage = s.stages[idx]
	}

	if stage.State == models.StageApproved {
		return nil, apperrors.NewWorkflow("stage %s is already approved; go back to it before rebuilding", stage.StageID)
	}

	script, err := fragments.Generate(stage.StageID, s.fragmentInputLocked())
	if err != nil {
		return nil, err
	}

	stage.Script = script
	stage.State = models.StageBuilt
	stage.BuiltAt = time.Now().UTC()
	stage.ApprovedAt = nil

	out := *stage
	return &out, nil
}

// Approve marks the current-pointer stage approved and advances the
// pointer. Approving the final stage completes the pipeline.
func (s *Session) Approve() (models.StageID, int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer >= len(s.stages) {
		return "", s.progressLocked(), true, apperrors.NewWorkflow("pipeline is already complete")
	}

	stage := s.stages[s.pointer]
	if stage.State != models.StageBuilt {
		return "", s.progressLocked(), false, apperrors.NewWorkflow("stage %s has not been built", stage.StageID)
	}

	now := time.Now().UTC()
	stage.State = models.StageApproved
	stage.ApprovedAt = &now
	s.pointer++

	complete := s.pointer >= len(s.stages)
	return stage.StageID, s.progressLocked(), complete, nil
}

// GoBack moves the pointer to an earlier (or the current) stage. The
// target stage keeps its script but loses approval; every later stage
// is demoted to unbuilt and its text discarded, since downstream
// fragments may depend on upstream decisions.
func (s *Session) GoBack(stageID string) (models.StageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := models.StageIndex(models.StageID(strings.ToUpper(strings.TrimSpace(stageID))))
	if idx < 0 {
		return "", apperrors.NewValidation("unknown stage %q (valid: A-F)", stageID)
	}
	if idx > s.pointer {
		return "", apperrors.NewWorkflow("cannot go back to stage %s: it is ahead of the current stage", stageID)
	}

	target := s.stages[idx]
	if target.State == models.StageApproved {
		target.State = models.StageBuilt
		target.ApprovedAt = nil
	}

	for i := idx + 1; i < len(s.stages); i++ {
		s.stages[i].State = models.StageUnbuilt
		s.stages[i].Script = ""
		s.stages[i].BuiltAt = time.Time{}
		s.stages[i].ApprovedAt = nil
	}

	s.pointer = idx
	return target.StageID, nil
}

// Script returns the ordered concatenation of approved stage scripts.
// Unapproved drafts are excluded.
func (s *Session) Script() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scriptLocked()
}

func (s *Session) scriptLocked() (string, error) {
	var parts []string
	for _, stage := range s.stages {
		if stage.State == models.StageApproved {
			parts = append(parts, stage.Script)
		}
	}
	if len(parts) == 0 {
		return "", apperrors.NewWorkflow("no approved stages; build and approve at least one stage first")
	}
	return strings.Join(parts, "\n\n"), nil
}

// Stages returns a snapshot of all stage artifacts in order.
func (s *Session) Stages() []models.StageArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.StageArtifact, len(s.stages))
	for i, stage := range s.stages {
		out[i] = *stage
	}
	return out
}

// Progress returns the approval progress in percent.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() int {
	approved := 0
	for _, stage := range s.stages {
		if stage.State == models.StageApproved {
			approved++
		}
	}
	return approved * 100 / len(s.stages)
}

// currentStageLocked names the pointer stage, or "complete" when every
// stage is approved.
func (s *Session) currentStageLocked() string {
	if s.pointer >= len(s.stages) {
		return "complete"
	}
	return string(s.stages[s.pointer].StageID)
}

// fragmentInputLocked snapshots what fragment builders need.
func (s *Session) fragmentInputLocked() FragmentInput {
	approved := make(map[models.StageID]string)
	for _, stage := range s.stages {
		if stage.State == models.StageApproved {
			approved[stage.StageID] = stage.Script
		}
	}
	return FragmentInput{
		ProjectName:     s.ProjectName,
		Input:           s.Input,
		Stats:           s.Stats,
		Analysis:        s.Analysis,
		Config:          s.Config,
		ModelType:       s.ModelType,
		ApprovedScripts: approved,
	}
}
