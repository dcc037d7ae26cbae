package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// Provider is a ticketing or catalog partner synchronising offers.
type Provider struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	Name                    string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	EnabledForPro           bool      `gorm:"not null;default:false" json:"enabled_for_pro"`
	IsActive                bool      `gorm:"not null;default:true" json:"is_active"`
	BookingExternalURL      string    `gorm:"size:512" json:"booking_external_url"`
	CancelExternalURL       string    `gorm:"size:512" json:"cancel_external_url"`
	NotificationExternalURL string    `gorm:"size:512" json:"notification_external_url"`
	SearchName              string    `gorm:"size:128;index" json:"-"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// BeforeSave keeps the accent-folded search column in sync.
func (p *Provider) BeforeSave(*gorm.DB) error {
	p.SearchName = search.Normalize(p.Name)
	return nil
}
