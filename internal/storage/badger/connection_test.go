package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/models"
)

func TestNewBadgerDBRequiresPath(t *testing.T) {
	_, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Enabled: true})
	assert.Error(t, err)
}

func TestNewBadgerDBResetOnStartup(t *testing.T) {
	logger := arbor.NewLogger()
	ctx := context.Background()
	config := &common.BadgerConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "db")}

	db, err := NewBadgerDB(logger, config)
	require.NoError(t, err)
	storage := NewRunStorage(db, logger)
	require.NoError(t, storage.SaveRun(ctx, &models.RunRecord{ID: "run_kept", StartedAt: time.Now()}))
	require.NoError(t, storage.Close())

	db, err = NewBadgerDB(logger, config)
	require.NoError(t, err)
	runs, err := NewRunStorage(db, logger).ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	require.NoError(t, db.Close())

	config.ResetOnStartup = true
	db, err = NewBadgerDB(logger, config)
	require.NoError(t, err)
	defer db.Close()
	runs, err = NewRunStorage(db, logger).ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
