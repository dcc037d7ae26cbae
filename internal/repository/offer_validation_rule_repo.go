package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/rules"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// RuleTextSpec matches validation rules by id or name.
var RuleTextSpec = search.TextSpec{
	MinLength:     2,
	IDColumn:      "id",
	SearchColumns: []string{"search_name"},
}

// OfferValidationRuleFilter defines the rule list filters.
type OfferValidationRuleFilter struct {
	Params pagination.Params
	Query  string
}

// RuleAudit builds the audit entry once sub-rule ids are known.
type RuleAudit func(rule models.OfferValidationRule) *models.ActionHistory

// RuleEdit describes an edit of a rule and its sub-rules.
type RuleEdit struct {
	Name     string
	AuthorID *uint
	Changes  *rules.ChangeSet
}

// OfferValidationRuleRepository exposes offer validation rule persistence.
// Rules are never hard deleted; deactivated rules disappear from lists.
type OfferValidationRuleRepository interface {
	List(ctx context.Context, filter OfferValidationRuleFilter) (pagination.Page[models.OfferValidationRule], error)
	ListActive(ctx context.Context) ([]models.OfferValidationRule, error)
	GetByID(ctx context.Context, id uint) (models.OfferValidationRule, error)
	Create(ctx context.Context, rule *models.OfferValidationRule, changes *rules.ChangeSet, audit RuleAudit) error
	Update(ctx context.Context, id uint, edit RuleEdit, audit RuleAudit) (models.OfferValidationRule, error)
	Deactivate(ctx context.Context, id uint, authorID *uint, audit RuleAudit) error
}

type offerValidationRuleRepository struct {
	db *gorm.DB
}

// NewOfferValidationRuleRepository constructs the rule repository.
func NewOfferValidationRuleRepository(db *gorm.DB) OfferValidationRuleRepository {
	return &offerValidationRuleRepository{db: db}
}

func orderSubRules(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (r *offerValidationRuleRepository) List(ctx context.Context, filter OfferValidationRuleFilter) (pagination.Page[models.OfferValidationRule], error) {
	builder := search.NewBuilder().
		Text(filter.Query, RuleTextSpec).
		Where("is_active = ?", true)
	if builder.Empty() {
		return pagination.Empty[models.OfferValidationRule](filter.Params), nil
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.OfferValidationRule{}))
	return pagination.Paginate[models.OfferValidationRule](query, filter.Params, pagination.Query{
		Order:   []string{"date_modified DESC"},
		Preload: []string{"SubRules"},
	})
}

func (r *offerValidationRuleRepository) ListActive(ctx context.Context) ([]models.OfferValidationRule, error) {
	var list []models.OfferValidationRule
	err := r.db.WithContext(ctx).
		Preload("SubRules", orderSubRules).
		Where("is_active = ?", true).
		Order("id").
		Find(&list).Error
	return list, err
}

func (r *offerValidationRuleRepository) GetByID(ctx context.Context, id uint) (models.OfferValidationRule, error) {
	var rule models.OfferValidationRule
	err := r.db.WithContext(ctx).
		Preload("SubRules", orderSubRules).
		Where("is_active = ?", true).
		First(&rule, id).Error
	if err != nil {
		return models.OfferValidationRule{}, err
	}
	return rule, nil
}

// Create stores the rule and every created clause of changes, assigning their ids.
func (r *offerValidationRuleRepository) Create(ctx context.Context, rule *models.OfferValidationRule, changes *rules.ChangeSet, audit RuleAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule.IsActive = true
		if rule.DateModified.IsZero() {
			rule.DateModified = time.Now().UTC()
		}
		if err := tx.Omit("SubRules").Create(rule).Error; err != nil {
			return err
		}
		if err := createClauses(tx, rule.ID, changes); err != nil {
			return err
		}
		if err := tx.Preload("SubRules", orderSubRules).First(rule, rule.ID).Error; err != nil {
			return err
		}
		return insertActions(tx, ruleAudit(audit, *rule))
	})
}

func (r *offerValidationRuleRepository) Update(ctx context.Context, id uint, edit RuleEdit, audit RuleAudit) (models.OfferValidationRule, error) {
	var rule models.OfferValidationRule
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("is_active = ?", true).First(&rule, id).Error; err != nil {
			return err
		}

		if edit.Changes != nil {
			for _, clause := range edit.Changes.Deleted {
				if err := tx.Where("validation_rule_id = ?", id).Delete(&models.OfferValidationSubRule{}, clause.ID).Error; err != nil {
					return err
				}
			}
			for _, modification := range edit.Changes.Modified {
				payload, err := modification.After.MarshalComparated()
				if err != nil {
					return err
				}
				err = tx.Model(&models.OfferValidationSubRule{}).
					Where("id = ? AND validation_rule_id = ?", modification.Before.ID, id).
					Update("comparated", datatypes.JSON(payload)).Error
				if err != nil {
					return err
				}
			}
			if err := createClauses(tx, id, edit.Changes); err != nil {
				return err
			}
		}

		rule.Name = edit.Name
		rule.LatestAuthorID = edit.AuthorID
		rule.DateModified = time.Now().UTC()
		if err := tx.Omit("SubRules").Save(&rule).Error; err != nil {
			return err
		}
		if err := tx.Preload("SubRules", orderSubRules).First(&rule, id).Error; err != nil {
			return err
		}
		return insertActions(tx, ruleAudit(audit, rule))
	})
	if err != nil {
		return models.OfferValidationRule{}, err
	}
	return rule, nil
}

// Deactivate hides the rule and removes its sub-rules.
func (r *offerValidationRuleRepository) Deactivate(ctx context.Context, id uint, authorID *uint, audit RuleAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule models.OfferValidationRule
		if err := tx.Preload("SubRules", orderSubRules).Where("is_active = ?", true).First(&rule, id).Error; err != nil {
			return err
		}
		if err := tx.Where("validation_rule_id = ?", id).Delete(&models.OfferValidationSubRule{}).Error; err != nil {
			return err
		}
		err := tx.Model(&rule).Updates(map[string]interface{}{
			"is_active":        false,
			"latest_author_id": authorID,
			"date_modified":    time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}
		return insertActions(tx, ruleAudit(audit, rule))
	})
}

func createClauses(tx *gorm.DB, ruleID uint, changes *rules.ChangeSet) error {
	if changes == nil {
		return nil
	}
	for i, clause := range changes.Created {
		payload, err := clause.MarshalComparated()
		if err != nil {
			return err
		}
		sub := models.OfferValidationSubRule{
			ValidationRuleID: ruleID,
			Model:            string(clause.Model),
			Attribute:        string(clause.Attribute),
			Operator:         string(clause.Operator),
			Comparated:       datatypes.JSON(payload),
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		changes.Created[i].ID = sub.ID
	}
	return nil
}

func ruleAudit(audit RuleAudit, rule models.OfferValidationRule) *models.ActionHistory {
	if audit == nil {
		return nil
	}
	entry := audit(rule)
	if entry != nil && entry.RuleID == nil {
		id := rule.ID
		entry.RuleID = &id
	}
	return entry
}

// SubRuleClauses decodes the stored sub-rules of a rule.
func SubRuleClauses(rule models.OfferValidationRule) ([]rules.Clause, error) {
	clauses := make([]rules.Clause, 0, len(rule.SubRules))
	for _, sub := range rule.SubRules {
		clause, err := rules.Decode(sub.ID, sub.Model, sub.Attribute, sub.Operator, sub.Comparated)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}
