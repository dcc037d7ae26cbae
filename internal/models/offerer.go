package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// ValidationStatus tracks the review state of an offerer.
type ValidationStatus string

const (
	ValidationStatusNew       ValidationStatus = "NEW"
	ValidationStatusPending   ValidationStatus = "PENDING"
	ValidationStatusValidated ValidationStatus = "VALIDATED"
	ValidationStatusRejected  ValidationStatus = "REJECTED"
	ValidationStatusClosed    ValidationStatus = "CLOSED"
)

// OffererRejectionReason is selected by the reviewer when rejecting an offerer.
type OffererRejectionReason string

const (
	RejectionReasonEligibility    OffererRejectionReason = "ELIGIBILITY"
	RejectionReasonError          OffererRejectionReason = "ERROR"
	RejectionReasonAdageDeclined  OffererRejectionReason = "ADAGE_DECLINED"
	RejectionReasonOutOfTime      OffererRejectionReason = "OUT_OF_TIME"
	RejectionReasonClosedBusiness OffererRejectionReason = "CLOSED_BUSINESS"
	RejectionReasonOther          OffererRejectionReason = "OTHER"
)

// SirenLength is the number of digits of a legal-entity identifier.
const SirenLength = 9

// Offerer is the legal entity publishing offers through its venues.
type Offerer struct {
	ID               uint                    `gorm:"primaryKey" json:"id"`
	Name             string                  `gorm:"size:255;not null" json:"name"`
	Siren            string                  `gorm:"size:9;uniqueIndex" json:"siren"`
	PostalCode       string                  `gorm:"size:16" json:"postal_code"`
	City             string                  `gorm:"size:128" json:"city"`
	ValidationStatus ValidationStatus        `gorm:"size:32;index;not null" json:"validation_status"`
	RejectionReason  *OffererRejectionReason `gorm:"size:32" json:"rejection_reason,omitempty"`
	IsActive         bool                    `gorm:"not null;default:true" json:"is_active"`
	SearchName       string                  `gorm:"size:255;index" json:"-"`
	Venues           []Venue                 `gorm:"foreignKey:OffererID" json:"venues,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// BeforeSave keeps the accent-folded search column in sync.
func (o *Offerer) BeforeSave(*gorm.DB) error {
	o.SearchName = search.Normalize(o.Name)
	return nil
}
