package modeler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// Session is one model build session. All mutable pipeline state hangs
// off the session and is destroyed when it resets. Mutating operations
// take the session mutex; read-only operations take a snapshot under
// the same lock.
type Session struct {
	mu sync.Mutex

	ID          uuid.UUID
	ProjectName string
	CreatedAt   time.Time
	Status      models.SessionStatus

	Config models.BuildConfig

	// Input and Analysis are replaced together on every ProcessInput.
	Input *models.TableInput
	Stats []models.SampledStats

	Analysis  *models.AnalysisResult
	ModelType models.ModelType

	stages  []*models.StageArtifact
	pointer int
}

// newSession creates a fresh session with all six stages unbuilt.
func newSession(projectName string, defaults models.BuildConfig) *Session {
	s := &Session{
		ID:          uuid.New(),
		ProjectName: projectName,
		CreatedAt:   time.Now().UTC(),
		Status:      models.SessionActive,
		Config:      defaults,
	}
	s.stages = freshStages()
	return s
}

// freshStages allocates the six unbuilt stage artifacts in order.
func freshStages() []*models.StageArtifact {
	stages := make([]*models.StageArtifact, len(models.StageOrder))
	for i, id := range models.StageOrder {
		stages[i] = &models.StageArtifact{
			StageID: id,
			Name:    models.StageNames[id],
			State:   models.StageUnbuilt,
		}
	}
	return stages
}

// Store holds the single active build session plus a best-effort list
// of sessions seen by this process. It is the only entry point for
// session lookup; every other component gets its session from here.
type Store struct {
	mu        sync.RWMutex
	active    *Session
	summaries []models.SessionSummary
	defaults  models.BuildConfig
	logger    *zap.Logger
}

// NewStore creates a session store with the given per-session config
// defaults.
func NewStore(defaults models.BuildConfig, logger *zap.Logger) *Store {
	return &Store{
		defaults: defaults,
		logger:   logger.Named("session-store"),
	}
}

// Start creates a new active session for the project, discarding any
// prior session state. Fails with a ValidationError when projectName
// is missing or empty.
func (st *Store) Start(projectName string) (*Session, error) {
	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return nil, apperrors.NewValidation("project name is required")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.active != nil {
		st.active.mu.Lock()
		st.active.Status = models.SessionReset
		st.active.mu.Unlock()
		st.markSummary(st.active.ID, models.SessionReset)
		st.logger.Info("discarding previous session",
			zap.String("project", st.active.ProjectName),
			zap.String("session_id", st.active.ID.String()))
	}

	session := newSession(projectName, st.defaults)
	st.active = session
	st.summaries = append(st.summaries, models.SessionSummary{
		ID:          session.ID,
		ProjectName: session.ProjectName,
		CreatedAt:   session.CreatedAt,
		Status:      models.SessionActive,
	})

	st.logger.Info("session started",
		zap.String("project", projectName),
		zap.String("session_id", session.ID.String()))

	return session, nil
}

// Active returns the active session or a SessionError.
func (st *Store) Active() (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.active == nil {
		return nil, apperrors.NewSession("no active session")
	}
	return st.active, nil
}

// Reset tears down the active session and every entity it owns.
// Returns the name of the project that was reset.
func (st *Store) Reset() (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.active == nil {
		return "", apperrors.NewSession("no active session")
	}

	session := st.active
	session.mu.Lock()
	session.Status = models.SessionReset
	session.Input = nil
	session.Stats = nil
	session.Analysis = nil
	session.ModelType = ""
	session.stages = freshStages()
	session.pointer = 0
	session.mu.Unlock()

	st.markSummary(session.ID, models.SessionReset)
	st.active = nil

	st.logger.Info("session reset", zap.String("project", session.ProjectName))
	return session.ProjectName, nil
}

// List enumerates sessions known to this process, newest first.
// Persistence across restarts is not guaranteed.
func (st *Store) List() []models.SessionSummary {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]models.SessionSummary, len(st.summaries))
	copy(out, st.summaries)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Status returns a human-readable summary of the active session.
func (st *Store) Status() string {
	st.mu.RLock()
	session := st.active
	st.mu.RUnlock()

	if session == nil {
		return "No active session. Start one with start_model_session."
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s (session %s)\n", session.ProjectName, session.ID)
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))

	if session.Analysis == nil {
		b.WriteString("Analysis: not yet run\n")
	} else {
		fmt.Fprintf(&b, "Analysis: %d tables, %d relationships, recommended %s\n",
			len(session.Analysis.Tables), len(session.Analysis.Relationships),
			session.Analysis.Recommendation.ModelType)
	}

	if session.ModelType == "" {
		b.WriteString("Model type: not selected\n")
	} else {
		fmt.Fprintf(&b, "Model type: %s\n", session.ModelType)
	}

	approved := 0
	for _, stage := range session.stages {
		if stage.State == models.StageApproved {
			approved++
		}
	}
	fmt.Fprintf(&b, "Stages: %d/%d approved (%d%%), current stage %s",
		approved, len(session.stages), session.progressLocked(), session.currentStageLocked())

	return b.String()
}

// markSummary updates the recorded status of a session in the list.
func (st *Store) markSummary(id uuid.UUID, status models.SessionStatus) {
	for i := range st.summaries {
		if st.summaries[i].ID == id {
			st.summaries[i].Status = status
		}
	}
}
