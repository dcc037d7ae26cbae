package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// SiretLength is the number of digits of an establishment identifier.
const SiretLength = 14

// Venue is a physical or virtual place through which an offerer publishes offers.
type Venue struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OffererID  uint      `gorm:"index;not null" json:"offerer_id"`
	Offerer    *Offerer  `json:"offerer,omitempty"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	PublicName string    `gorm:"size:255" json:"public_name"`
	Siret      *string   `gorm:"size:14;uniqueIndex" json:"siret"`
	Comment    string    `gorm:"size:1000" json:"comment"`
	IsVirtual  bool      `gorm:"not null;default:false" json:"is_virtual"`
	PostalCode string    `gorm:"size:16" json:"postal_code"`
	City       string    `gorm:"size:128" json:"city"`
	SearchName string    `gorm:"size:512;index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeSave keeps the accent-folded search column in sync.
func (v *Venue) BeforeSave(*gorm.DB) error {
	v.SearchName = search.Normalize(v.Name + " " + v.PublicName)
	return nil
}
