package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
)

// ActionHistoryFilter narrows audit trail queries.
type ActionHistoryFilter struct {
	Params     pagination.Params
	ActionType string
	UserID     *uint
	OffererID  *uint
	VenueID    *uint
	RuleID     *uint
}

// ActionHistoryRepository persists and lists audit entries. Entries are never updated.
type ActionHistoryRepository interface {
	Create(ctx context.Context, entry *models.ActionHistory) error
	List(ctx context.Context, filter ActionHistoryFilter) (pagination.Page[models.ActionHistory], error)
}

type actionHistoryRepository struct {
	db *gorm.DB
}

// NewActionHistoryRepository constructs the audit repository.
func NewActionHistoryRepository(db *gorm.DB) ActionHistoryRepository {
	return &actionHistoryRepository{db: db}
}

func (r *actionHistoryRepository) Create(ctx context.Context, entry *models.ActionHistory) error {
	return insertActions(r.db.WithContext(ctx), entry)
}

func (r *actionHistoryRepository) List(ctx context.Context, filter ActionHistoryFilter) (pagination.Page[models.ActionHistory], error) {
	query := r.db.WithContext(ctx).Model(&models.ActionHistory{})

	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.OffererID != nil {
		query = query.Where("offerer_id = ?", *filter.OffererID)
	}
	if filter.VenueID != nil {
		query = query.Where("venue_id = ?", *filter.VenueID)
	}
	if filter.RuleID != nil {
		query = query.Where("rule_id = ?", *filter.RuleID)
	}

	return pagination.Paginate[models.ActionHistory](query, filter.Params, pagination.Query{
		Order: []string{"action_date DESC", "id DESC"},
	})
}

// insertActions appends audit rows using the caller's session, so they commit
// or roll back together with the audited mutation.
func insertActions(tx *gorm.DB, entries ...*models.ActionHistory) error {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.ActionDate.IsZero() {
			entry.ActionDate = time.Now().UTC()
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
	}
	return nil
}
