package models

import "time"

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusUsed       BookingStatus = "USED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	BookingStatusReimbursed BookingStatus = "REIMBURSED"
)

// BookingCancellationReason records who or what cancelled a booking.
type BookingCancellationReason string

const (
	CancellationReasonBackoffice  BookingCancellationReason = "BACKOFFICE"
	CancellationReasonBeneficiary BookingCancellationReason = "BENEFICIARY"
	CancellationReasonOfferer     BookingCancellationReason = "OFFERER"
	CancellationReasonFraud       BookingCancellationReason = "FRAUD"
	CancellationReasonExpired     BookingCancellationReason = "EXPIRED"
)

// Booking is a reservation on an offer, individual or collective.
type Booking struct {
	ID                 uint                       `gorm:"primaryKey" json:"id"`
	Token              string                     `gorm:"size:6;index" json:"token"`
	UserID             *uint                      `gorm:"index" json:"user_id"`
	OfferID            uint                       `gorm:"index;not null" json:"offer_id"`
	Offer              *Offer                     `json:"offer,omitempty"`
	VenueID            uint                       `gorm:"index;not null" json:"venue_id"`
	OffererID          uint                       `gorm:"index;not null" json:"offerer_id"`
	IsCollective       bool                       `gorm:"not null;default:false" json:"is_collective"`
	Quantity           int                        `gorm:"not null;default:1" json:"quantity"`
	AmountCents        int64                      `gorm:"not null" json:"amount_cents"`
	Status             BookingStatus              `gorm:"size:32;index;not null" json:"status"`
	CancellationReason *BookingCancellationReason `gorm:"size:32" json:"cancellation_reason,omitempty"`
	DateUsed           *time.Time                 `json:"date_used,omitempty"`
	CancelledAt        *time.Time                 `json:"cancelled_at,omitempty"`
	ReimbursedAt       *time.Time                 `json:"reimbursed_at,omitempty"`
	CreatedAt          time.Time                  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// TotalCents is the booking value: unit amount times quantity.
func (b Booking) TotalCents() int64 {
	return b.AmountCents * int64(b.Quantity)
}
