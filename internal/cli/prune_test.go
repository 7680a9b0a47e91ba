package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/recollect/internal/archive"
)

func TestPrune_RemovesOldRecords(t *testing.T) {
	db := openTestDB(t)
	store, err := archive.NewSQLiteStore(db)
	require.NoError(t, err)

	seedRecord(t, store, "safari:Default:1", "Old Page", time.Now().Add(-60*24*time.Hour))
	seedRecord(t, store, "safari:Default:2", "Recent Page", time.Now().Add(-1*time.Hour))

	cmd := &PruneCommand{globals: &GlobalFlags{}}

	var execErr error
	output := captureOutput(t, func() {
		execErr = cmd.executeWithStore(store, 30*24*time.Hour)
	})
	require.NoError(t, execErr)
	assert.Contains(t, output, "Pruned 1 records")

	remaining, err := store.Search(context.Background(), archive.SearchQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "safari:Default:2", remaining[0].UID)
}

func TestPrune_DryRunDeletesNothing(t *testing.T) {
	db := openTestDB(t)
	store, err := archive.NewSQLiteStore(db)
	require.NoError(t, err)

	seedRecord(t, store, "safari:Default:1", "Old Page", time.Now().Add(-60*24*time.Hour))
	seedRecord(t, store, "safari:Default:2", "Recent Page", time.Now().Add(-1*time.Hour))

	cmd := &PruneCommand{DryRun: true, globals: &GlobalFlags{}}

	var execErr error
	output := captureOutput(t, func() {
		execErr = cmd.executeWithStore(store, 30*24*time.Hour)
	})
	require.NoError(t, execErr)
	assert.Contains(t, output, "Would prune 1 records")

	remaining, err := store.Search(context.Background(), archive.SearchQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestPrune_JSONOutput(t *testing.T) {
	db := openTestDB(t)
	store, err := archive.NewSQLiteStore(db)
	require.NoError(t, err)

	seedRecord(t, store, "safari:Default:1", "Old Page", time.Now().Add(-60*24*time.Hour))

	cmd := &PruneCommand{globals: &GlobalFlags{JSON: true}}

	var execErr error
	output := captureOutput(t, func() {
		execErr = cmd.executeWithStore(store, 30*24*time.Hour)
	})
	require.NoError(t, execErr)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, float64(1), result["pruned"])
}

func TestPrune_NothingToPrune(t *testing.T) {
	db := openTestDB(t)
	store, err := archive.NewSQLiteStore(db)
	require.NoError(t, err)

	seedRecord(t, store, "safari:Default:1", "Recent Page", time.Now().Add(-1*time.Hour))

	cmd := &PruneCommand{globals: &GlobalFlags{}}

	var execErr error
	output := captureOutput(t, func() {
		execErr = cmd.executeWithStore(store, 30*24*time.Hour)
	})
	require.NoError(t, execErr)
	assert.Contains(t, output, "Pruned 0 records")
}

func TestPrune_InvalidOlderThan(t *testing.T) {
	cmd := &PruneCommand{OlderThan: "bogus", globals: &GlobalFlags{}}
	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --older-than")
}
