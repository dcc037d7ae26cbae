package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/observability"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
	"github.com/noah-isme/backoffice-api/pkg/crm"
)

// ActivityActor represents the authenticated admin performing a backoffice action.
type ActivityActor struct {
	ID   uint
	Role string
}

// AuthorID returns the id recorded as author of audit entries, nil for anonymous calls.
func (a ActivityActor) AuthorID() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// ValidationError is a domain validation failure rendered as form errors.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

// fromFieldError lifts a form parsing failure into a ValidationError.
func fromFieldError(err error) error {
	var fieldErr *search.FieldError
	if errors.As(err, &fieldErr) {
		return newFieldError(fieldErr.Field, fieldErr.Message)
	}
	return err
}

// IsValidation reports whether err is a domain validation failure.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

var commentPolicy = bluemonday.StrictPolicy()

// sanitizeComment strips markup from free-text admin comments.
func sanitizeComment(raw string) string {
	return strings.TrimSpace(commentPolicy.Sanitize(raw))
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func recordSearch(entity string, skipped bool, total int64) {
	outcome := "results"
	switch {
	case skipped:
		outcome = "skipped"
	case total == 0:
		outcome = "empty"
	}
	observability.Searches().WithLabelValues(entity, outcome).Inc()
}

func normalizeParams(limits pagination.Limits, req dto.ListRequest) pagination.Params {
	return limits.Normalize(req.Page, req.PerPage)
}

func newAction(actionType models.ActionType, actor ActivityActor, comment string) *models.ActionHistory {
	return &models.ActionHistory{
		ActionType:   actionType,
		AuthorUserID: actor.AuthorID(),
		Comment:      comment,
	}
}

// modifiedInfo records one changed field as {old_info, new_info}.
func modifiedInfo(info map[string]interface{}, field string, before, after interface{}) {
	info[field] = map[string]interface{}{"old_info": before, "new_info": after}
}

func uintPtr(value uint) *uint {
	return &value
}

const defaultAutocompleteCap = 20

func autocompleteCap(limit int) int {
	if limit <= 0 {
		return defaultAutocompleteCap
	}
	return limit
}

// syncCRM forwards the event; failures are logged and counted, never returned.
func syncCRM(ctx context.Context, publisher CRMPublisher, logger zerolog.Logger, event crm.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		observability.CRMSyncFailures().WithLabelValues(event.Entity).Inc()
		logger.Warn().Err(err).Str("entity", event.Entity).Uint("id", event.ID).Msg("crm sync failed")
	}
}
