package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestReloadCmd_Rebuilds(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.report = domain.BuildReport{
		Documents: 2,
		Chunks:    7,
		LoadErrors: []*domain.LoadError{
			{Path: "broken.pdf", Err: errors.New("not a PDF")},
		},
	}

	out, err := execute(t, "reload", "--force")

	require.NoError(t, err)
	assert.Equal(t, []bool{true}, ts.index.forced)
	assert.Contains(t, out, "Indexed 2 documents into 7 chunks")
	assert.Contains(t, out, "Skipped broken.pdf: not a PDF")
}

func TestReloadCmd_LoadsStoredIndex(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.report = domain.BuildReport{Chunks: 12, Loaded: true}

	out, err := execute(t, "reload")

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, ts.index.forced)
	assert.Contains(t, out, "Loaded stored index (12 chunks)")
}

func TestReloadCmd_Errors(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ts.index.reloadErr = &domain.BuildError{Err: domain.ErrNoDocuments}
	_, err := execute(t, "reload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents to index in /docs")

	ts.index.reloadErr = domain.ErrRebuildInProgress
	_, err = execute(t, "reload")
	assert.ErrorIs(t, err, domain.ErrRebuildInProgress)
}

func TestStatusCmd_Text(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.status = domain.IndexStatus{
		State:      domain.IndexStateReady,
		Entries:    42,
		Dimensions: 768,
		Model:      "nomic-embed-text",
		BuiltAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Equal(t, 1, ts.index.inits)
	assert.Contains(t, out, "State: ready")
	assert.Contains(t, out, "Entries: 42")
	assert.Contains(t, out, "Dimensions: 768")
	assert.Contains(t, out, "Model: nomic-embed-text")
	assert.Contains(t, out, "Built: ")
}

func TestStatusCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.status = domain.IndexStatus{State: domain.IndexStateUnset, LastError: "reload: no documents"}

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var status domain.IndexStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, domain.IndexStateUnset, status.State)
	assert.Equal(t, "reload: no documents", status.LastError)
}

func TestIndexCmds_NoService(t *testing.T) {
	restore := clearServices()
	defer restore()

	for _, args := range [][]string{{"reload"}, {"status"}} {
		_, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index service not configured")
	}
}
