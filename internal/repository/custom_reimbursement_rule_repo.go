package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
)

// CustomReimbursementRuleFilter defines the reimbursement rule list filters.
type CustomReimbursementRuleFilter struct {
	Params     pagination.Params
	OffererIDs []uint
	VenueIDs   []uint
}

// ReimbursementTarget identifies what a custom rule applies to. Exactly one field is set.
type ReimbursementTarget struct {
	OfferID   *uint
	VenueID   *uint
	OffererID *uint
}

// CustomReimbursementRuleRepository exposes custom reimbursement rule persistence.
type CustomReimbursementRuleRepository interface {
	List(ctx context.Context, filter CustomReimbursementRuleFilter) (pagination.Page[models.CustomReimbursementRule], error)
	GetByID(ctx context.Context, id uint) (models.CustomReimbursementRule, error)
	FindForTarget(ctx context.Context, target ReimbursementTarget) ([]models.CustomReimbursementRule, error)
	TargetExists(ctx context.Context, target ReimbursementTarget) (bool, error)
	Create(ctx context.Context, rule *models.CustomReimbursementRule, action *models.ActionHistory) error
	UpdateEnd(ctx context.Context, id uint, end *time.Time, action *models.ActionHistory) (models.CustomReimbursementRule, error)
}

type customReimbursementRuleRepository struct {
	db *gorm.DB
}

// NewCustomReimbursementRuleRepository constructs the reimbursement rule repository.
func NewCustomReimbursementRuleRepository(db *gorm.DB) CustomReimbursementRuleRepository {
	return &customReimbursementRuleRepository{db: db}
}

func (r *customReimbursementRuleRepository) List(ctx context.Context, filter CustomReimbursementRuleFilter) (pagination.Page[models.CustomReimbursementRule], error) {
	query := r.db.WithContext(ctx).Model(&models.CustomReimbursementRule{})
	switch {
	case len(filter.OffererIDs) > 0 && len(filter.VenueIDs) > 0:
		query = query.Where("offerer_id IN ? OR venue_id IN ?", filter.OffererIDs, filter.VenueIDs)
	case len(filter.OffererIDs) > 0:
		query = query.Where("offerer_id IN ?", filter.OffererIDs)
	case len(filter.VenueIDs) > 0:
		query = query.Where("venue_id IN ?", filter.VenueIDs)
	}

	return pagination.Paginate[models.CustomReimbursementRule](query, filter.Params, pagination.Query{
		Order: []string{"timespan_start DESC"},
	})
}

func (r *customReimbursementRuleRepository) GetByID(ctx context.Context, id uint) (models.CustomReimbursementRule, error) {
	var rule models.CustomReimbursementRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return models.CustomReimbursementRule{}, err
	}
	return rule, nil
}

func (r *customReimbursementRuleRepository) FindForTarget(ctx context.Context, target ReimbursementTarget) ([]models.CustomReimbursementRule, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomReimbursementRule{})
	switch {
	case target.OfferID != nil:
		query = query.Where("offer_id = ?", *target.OfferID)
	case target.VenueID != nil:
		query = query.Where("venue_id = ?", *target.VenueID)
	case target.OffererID != nil:
		query = query.Where("offerer_id = ?", *target.OffererID)
	default:
		return []models.CustomReimbursementRule{}, nil
	}

	var rules []models.CustomReimbursementRule
	err := query.Order("timespan_start").Order("id").Find(&rules).Error
	return rules, err
}

// TargetExists reports whether the offer, venue or offerer a rule points at is stored.
func (r *customReimbursementRuleRepository) TargetExists(ctx context.Context, target ReimbursementTarget) (bool, error) {
	var (
		model interface{}
		id    uint
	)
	switch {
	case target.OfferID != nil:
		model, id = &models.Offer{}, *target.OfferID
	case target.VenueID != nil:
		model, id = &models.Venue{}, *target.VenueID
	case target.OffererID != nil:
		model, id = &models.Offerer{}, *target.OffererID
	default:
		return false, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *customReimbursementRuleRepository) Create(ctx context.Context, rule *models.CustomReimbursementRule, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rule).Error; err != nil {
			return err
		}
		if action != nil {
			if action.ExtraData == nil {
				action.ExtraData = map[string]interface{}{}
			}
			action.ExtraData["custom_reimbursement_rule_id"] = rule.ID
		}
		return insertActions(tx, action)
	})
}

func (r *customReimbursementRuleRepository) UpdateEnd(ctx context.Context, id uint, end *time.Time, action *models.ActionHistory) (models.CustomReimbursementRule, error) {
	var rule models.CustomReimbursementRule
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rule, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&rule).Update("timespan_end", end).Error; err != nil {
			return err
		}
		return insertActions(tx, action)
	})
	if err != nil {
		return models.CustomReimbursementRule{}, err
	}
	rule.TimespanEnd = end
	return rule, nil
}
