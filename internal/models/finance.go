package models

import (
	"time"

	"gorm.io/datatypes"
)

// IncidentStatus tracks a finance incident review.
type IncidentStatus string

const (
	IncidentStatusCreated   IncidentStatus = "CREATED"
	IncidentStatusValidated IncidentStatus = "VALIDATED"
	IncidentStatusCancelled IncidentStatus = "CANCELLED"
)

// IncidentKind distinguishes the financial nature of an incident.
type IncidentKind string

const (
	IncidentKindOverpayment       IncidentKind = "OVERPAYMENT"
	IncidentKindCommercialGesture IncidentKind = "COMMERCIAL_GESTURE"
)

// FinanceIncident groups bookings whose reimbursement must be corrected.
type FinanceIncident struct {
	ID               uint                     `gorm:"primaryKey" json:"id"`
	Kind             IncidentKind             `gorm:"size:32;not null" json:"kind"`
	Status           IncidentStatus           `gorm:"size:32;index;not null" json:"status"`
	VenueID          uint                     `gorm:"index;not null" json:"venue_id"`
	Venue            *Venue                   `json:"venue,omitempty"`
	Comment          string                   `gorm:"size:2000" json:"comment"`
	BookingIncidents []BookingFinanceIncident `gorm:"foreignKey:IncidentID" json:"booking_incidents,omitempty"`
	CreatedAt        time.Time                `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// TotalCents sums the amount at stake across the incident's bookings.
func (i FinanceIncident) TotalCents() int64 {
	var total int64
	for _, bi := range i.BookingIncidents {
		total += bi.AmountCents
	}
	return total
}

// BookingFinanceIncident links a booking to an incident with the amount at stake.
type BookingFinanceIncident struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	IncidentID  uint     `gorm:"index;not null" json:"incident_id"`
	BookingID   uint     `gorm:"index;not null" json:"booking_id"`
	Booking     *Booking `json:"booking,omitempty"`
	AmountCents int64    `gorm:"not null" json:"amount_cents"`
}

// CashflowBatch is a grouped set of transfers processed together.
type CashflowBatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Label     string    `gorm:"size:16;uniqueIndex;not null" json:"label"`
	Cutoff    time.Time `gorm:"index;not null" json:"cutoff"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical singular table name.
func (CashflowBatch) TableName() string {
	return "cashflow_batch"
}

// CustomReimbursementRule overrides the standard reimbursement for one offer, venue or offerer.
type CustomReimbursementRule struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OfferID       *uint          `gorm:"index" json:"offer_id"`
	VenueID       *uint          `gorm:"index" json:"venue_id"`
	OffererID     *uint          `gorm:"index" json:"offerer_id"`
	Subcategories datatypes.JSON `json:"subcategories"`
	RatePercent   *float64       `json:"rate_percent"`
	AmountCents   *int64         `json:"amount_cents"`
	TimespanStart time.Time      `gorm:"not null" json:"timespan_start"`
	TimespanEnd   *time.Time     `json:"timespan_end"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Overlaps reports whether the rule's timespan intersects [start, end). A nil end is open.
func (r CustomReimbursementRule) Overlaps(start time.Time, end *time.Time) bool {
	if end != nil && !end.After(r.TimespanStart) {
		return false
	}
	if r.TimespanEnd != nil && !r.TimespanEnd.After(start) {
		return false
	}
	return true
}
