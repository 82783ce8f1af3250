package modeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

func testBuildConfig() models.BuildConfig {
	return models.BuildConfig{
		DestinationPath:  "lib://DataFiles",
		CalendarLanguage: "en",
		DateFormat:       "YYYY-MM-DD",
	}
}

func newTestStore() *Store {
	return NewStore(testBuildConfig(), zap.NewNop())
}

func TestStoreStartRequiresProjectName(t *testing.T) {
	store := newTestStore()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := store.Start(name)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	}
}

func TestStoreStartCreatesActiveSession(t *testing.T) {
	store := newTestStore()

	session, err := store.Start("Sales Analytics")
	require.NoError(t, err)
	assert.Equal(t, "Sales Analytics", session.ProjectName)
	assert.Equal(t, models.SessionActive, session.Status)
	assert.Equal(t, testBuildConfig(), session.Config)

	active, err := store.Active()
	require.NoError(t, err)
	assert.Same(t, session, active)
}

func TestStoreActiveWithoutSession(t *testing.T) {
	store := newTestStore()

	_, err := store.Active()
	require.Error(t, err)
	assert.True(t, apperrors.IsSession(err))
}

func TestStoreStartDiscardsPreviousSession(t *testing.T) {
	store := newTestStore()

	first, err := store.Start("first")
	require.NoError(t, err)
	second, err := store.Start("second")
	require.NoError(t, err)

	assert.Equal(t, models.SessionReset, first.Status)

	active, err := store.Active()
	require.NoError(t, err)
	assert.Same(t, second, active)

	sessions := store.List()
	require.Len(t, sessions, 2)
	// Newest first.
	assert.Equal(t, "second", sessions[0].ProjectName)
	assert.Equal(t, models.SessionActive, sessions[0].Status)
	assert.Equal(t, "first", sessions[1].ProjectName)
	assert.Equal(t, models.SessionReset, sessions[1].Status)
}

func TestStoreReset(t *testing.T) {
	store := newTestStore()

	session, err := store.Start("resettable")
	require.NoError(t, err)
	session.Analysis = &models.AnalysisResult{}
	session.ModelType = models.ModelStarSchema

	project, err := store.Reset()
	require.NoError(t, err)
	assert.Equal(t, "resettable", project)

	assert.Equal(t, models.SessionReset, session.Status)
	assert.Nil(t, session.Analysis)
	assert.Empty(t, session.ModelType)

	_, err = store.Active()
	require.Error(t, err)
	assert.True(t, apperrors.IsSession(err))
}

func TestStoreResetWithoutSession(t *testing.T) {
	store := newTestStore()

	_, err := store.Reset()
	require.Error(t, err)
	assert.True(t, apperrors.IsSession(err))
}

func TestStoreStatus(t *testing.T) {
	store := newTestStore()
	assert.Contains(t, store.Status(), "No active session")

	_, err := store.Start("status-check")
	require.NoError(t, err)

	status := store.Status()
	assert.Contains(t, status, "status-check")
	assert.Contains(t, status, "Analysis: not yet run")
	assert.Contains(t, status, "Model type: not selected")
	assert.Contains(t, status, "0/6 approved")
	assert.Contains(t, status, "current stage A")
}
