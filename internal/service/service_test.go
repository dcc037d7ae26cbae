package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/pkg/crm"
)

var testLimits = pagination.Limits{Default: 20, Max: 100}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

func testActor() ActivityActor {
	return ActivityActor{ID: 42, Role: "admin"}
}

func lastAction(t *testing.T, db *gorm.DB, actionType models.ActionType) models.ActionHistory {
	t.Helper()
	var entry models.ActionHistory
	require.NoError(t, db.Where("action_type = ?", actionType).Order("id DESC").First(&entry).Error)
	return entry
}

func countActions(t *testing.T, db *gorm.DB, actionType models.ActionType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ActionHistory{}).Where("action_type = ?", actionType).Count(&count).Error)
	return count
}

func requireValidation(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "expected validation error, got %v", err)
	if field != "" {
		require.Contains(t, validationErr.Fields, field)
	}
	return validationErr
}

type recordingCRM struct {
	mu     sync.Mutex
	events []crm.Event
	err    error
}

func (r *recordingCRM) Publish(_ context.Context, event crm.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingCRM) Events() []crm.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]crm.Event(nil), r.events...)
}

func strPtr(value string) *string {
	return &value
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
