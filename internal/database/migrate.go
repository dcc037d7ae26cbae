package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/database/migrations"
	"github.com/noah-isme/backoffice-api/internal/models"
)

// Migrator applies the embedded SQL migrations on top of the gorm managed schema.
type Migrator struct {
	provider *goose.Provider
	logger   zerolog.Logger
}

// NewMigrator builds a goose provider sharing the gorm connection pool.
func NewMigrator(db *gorm.DB, logger zerolog.Logger) (*Migrator, error) {
	return newMigrator(db, migrations.FS, logger)
}

func newMigrator(db *gorm.DB, fsys fs.FS, logger zerolog.Logger) (*Migrator, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolving sql.DB for migrations: %w", err)
	}

	dialect := goose.DialectPostgres
	if db.Dialector.Name() == "sqlite" {
		dialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("creating goose provider: %w", err)
	}

	return &Migrator{
		provider: provider,
		logger:   logger.With().Str("component", "migrator").Logger(),
	}, nil
}

// AutoMigrate creates or updates the tables of every model.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrating models: %w", err)
	}
	return nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}
		m.logger.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("migration applied")
	}

	if len(results) == 0 {
		m.logger.Debug().Msg("all migrations already applied")
	}
	return nil
}

// Down rolls back the latest applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	if result != nil {
		m.logger.Info().
			Int64("version", result.Source.Version).
			Str("file", result.Source.Path).
			Msg("migration rolled back")
	}
	return nil
}

// MigrationState describes one known migration.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Status reports every embedded migration and whether it was applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading migration status: %w", err)
	}

	states := make([]MigrationState, 0, len(statuses))
	for _, status := range statuses {
		states = append(states, MigrationState{
			Version: status.Source.Version,
			Path:    status.Source.Path,
			Applied: status.State == goose.StateApplied,
		})
	}
	return states, nil
}

// Versions lists the embedded migration versions in order.
func (m *Migrator) Versions() []int64 {
	sources := m.provider.ListSources()
	versions := make([]int64, 0, len(sources))
	for _, source := range sources {
		versions = append(versions, source.Version)
	}
	return versions
}
