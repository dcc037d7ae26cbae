package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// Offer is an individual cultural offer published by a venue.
type Offer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VenueID     uint      `gorm:"index;not null" json:"venue_id"`
	Venue       *Venue    `json:"venue,omitempty"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:64" json:"category"`
	Subcategory string    `gorm:"size:64;index" json:"subcategory"`
	PriceCents  int64     `gorm:"not null;default:0" json:"price_cents"`
	SearchName  string    `gorm:"size:255;index" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (o *Offer) BeforeSave(*gorm.DB) error {
	o.SearchName = search.Normalize(o.Name)
	return nil
}
