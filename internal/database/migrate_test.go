package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return db
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	migrator, err := NewMigrator(openTestDB(t), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, migrator.Versions())
}

func TestMigratorUpDownStatus(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	fsys := fstest.MapFS{
		"00001_backfill_labels.sql": &fstest.MapFile{Data: []byte(
			"-- +goose Up\nUPDATE cashflow_batch SET label = 'VIR' || id WHERE label = '';\n\n-- +goose Down\nSELECT 1;\n",
		)},
	}
	migrator, err := newMigrator(db, fsys, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, db.Exec("INSERT INTO cashflow_batch (label, cutoff, created_at) VALUES ('', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)").Error)

	ctx := context.Background()
	require.NoError(t, migrator.Up(ctx))

	var batch models.CashflowBatch
	require.NoError(t, db.First(&batch).Error)
	require.Equal(t, fmt.Sprintf("VIR%d", batch.ID), batch.Label)

	states, err := migrator.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.True(t, states[0].Applied)

	require.NoError(t, migrator.Down(ctx))
	states, err = migrator.Status(ctx)
	require.NoError(t, err)
	require.False(t, states[0].Applied)
}
