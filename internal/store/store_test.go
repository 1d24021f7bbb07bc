package store

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/artifact-gateway/internal/types"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	return st
}

func TestStore_Close(t *testing.T) {
	st := createTestStore(t)

	_, err := st.CreateProject("Task Tracker", "")
	require.NoError(t, err)

	require.NoError(t, st.Close())

	// The connection is gone; further operations fail instead of hanging.
	_, err = st.CreateProject("Another", "")
	assert.Error(t, err)
}

func TestStore_CreateProject(t *testing.T) {
	st := createTestStore(t)

	project, err := st.CreateProject("Task Tracker", "A simple task tracking app")
	require.NoError(t, err)
	assert.NotZero(t, project.ID)
	assert.Equal(t, "Task Tracker", project.Name)
	assert.Equal(t, "A simple task tracking app", project.Description)
}

func TestStore_GetProject(t *testing.T) {
	st := createTestStore(t)

	created, err := st.CreateProject("Task Tracker", "A simple task tracking app")
	require.NoError(t, err)

	loaded, err := st.GetProject(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "Task Tracker", loaded.Name)
	assert.Empty(t, loaded.Artifacts)
}

func TestStore_GetProject_NotFound(t *testing.T) {
	st := createTestStore(t)

	_, err := st.GetProject(999)
	assert.Error(t, err)
}

func TestStore_SaveArtifact(t *testing.T) {
	st := createTestStore(t)

	project, err := st.CreateProject("Task Tracker", "")
	require.NoError(t, err)

	result := &types.RouteResult{
		Content:        "# Mindmap\n- root",
		Provider:       "fast-inference",
		Model:          "llama-3.3-70b-versatile",
		ResponseTimeMs: 420,
		FallbackUsed:   true,
	}

	artifact, err := st.SaveArtifact(project.ID, types.KindMindmap, result)
	require.NoError(t, err)
	assert.NotZero(t, artifact.ID)
	assert.Equal(t, project.ID, artifact.ProjectID)
	assert.Equal(t, "mindmap", artifact.Kind)
	assert.Equal(t, "fast-inference", artifact.Provider)
	assert.True(t, artifact.FallbackUsed)

	// The artifact comes back attached to its project.
	loaded, err := st.GetProject(project.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Artifacts, 1)
	assert.Equal(t, "# Mindmap\n- root", loaded.Artifacts[0].Content)
	assert.Equal(t, int64(420), loaded.Artifacts[0].ResponseTimeMs)
}

func TestStore_MultipleArtifactsPerProject(t *testing.T) {
	st := createTestStore(t)

	project, err := st.CreateProject("Task Tracker", "")
	require.NoError(t, err)

	for _, kind := range []types.RequestKind{types.KindMindmap, types.KindPRD, types.KindCode} {
		_, err := st.SaveArtifact(project.ID, kind, &types.RouteResult{
			Content:  "content for " + string(kind),
			Provider: "general-purpose",
			Model:    "gpt-4o",
		})
		require.NoError(t, err)
	}

	loaded, err := st.GetProject(project.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Artifacts, 3)
}
