package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// OfferValidationRule is a named rule flagging offers for manual review.
type OfferValidationRule struct {
	ID             uint                     `gorm:"primaryKey" json:"id"`
	Name           string                   `gorm:"size:255;not null" json:"name"`
	IsActive       bool                     `gorm:"not null;default:true;index" json:"is_active"`
	LatestAuthorID *uint                    `json:"latest_author_id"`
	SearchName     string                   `gorm:"size:255;index" json:"-"`
	SubRules       []OfferValidationSubRule `gorm:"foreignKey:ValidationRuleID" json:"sub_rules"`
	DateModified   time.Time                `json:"date_modified"`
	CreatedAt      time.Time                `json:"created_at"`
}

// BeforeSave keeps the accent-folded search column in sync.
func (r *OfferValidationRule) BeforeSave(*gorm.DB) error {
	r.SearchName = search.Normalize(r.Name)
	return nil
}

// OfferValidationSubRule is one comparison clause of a validation rule.
// Comparated holds {"comparated": value}.
type OfferValidationSubRule struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ValidationRuleID uint           `gorm:"index;not null" json:"validation_rule_id"`
	Model            string         `gorm:"size:64;not null" json:"model"`
	Attribute        string         `gorm:"size:64;not null" json:"attribute"`
	Operator         string         `gorm:"size:32;not null" json:"operator"`
	Comparated       datatypes.JSON `gorm:"not null" json:"comparated"`
}
