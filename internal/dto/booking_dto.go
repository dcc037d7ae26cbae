package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
)

// BookingListRequest holds the raw booking search form.
type BookingListRequest struct {
	Query      string
	Statuses   []string
	OffererIDs string
	VenueIDs   string
	From       string
	To         string
	Collective string
}

// BookingResponse serializes a booking row.
type BookingResponse struct {
	ID                      uint          `json:"id"`
	Token                   string        `json:"token"`
	OfferID                 uint          `json:"offer_id"`
	OfferName               string        `json:"offer_name,omitempty"`
	VenueID                 uint          `json:"venue_id"`
	OffererID               uint          `json:"offerer_id"`
	IsCollective            bool          `json:"is_collective"`
	Quantity                int           `json:"quantity"`
	AmountCents             int64         `json:"amount_cents"`
	Total                   string        `json:"total"`
	Status                  BadgeResponse `json:"status"`
	CancellationReason      *string       `json:"cancellation_reason,omitempty"`
	CancellationReasonLabel string        `json:"cancellation_reason_label,omitempty"`
	DateUsed                *time.Time    `json:"date_used,omitempty"`
	CancelledAt             *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt               time.Time     `json:"created_at"`
}

// BookingListResponse is a capped booking list; Warning is set when rows were left out.
type BookingListResponse struct {
	Items   []BookingResponse `json:"items"`
	Limit   int               `json:"limit"`
	HasMore bool              `json:"has_more"`
	Warning string            `json:"warning,omitempty"`
}

// BookingCancelRequest is the cancellation form.
type BookingCancelRequest struct {
	Reason string `json:"reason" form:"reason" validate:"required,oneof=BACKOFFICE BENEFICIARY OFFERER FRAUD"`
}

// NewBookingResponse maps a booking with its labels.
func NewBookingResponse(model models.Booking) BookingResponse {
	response := BookingResponse{
		ID:           model.ID,
		Token:        model.Token,
		OfferID:      model.OfferID,
		VenueID:      model.VenueID,
		OffererID:    model.OffererID,
		IsCollective: model.IsCollective,
		Quantity:     model.Quantity,
		AmountCents:  model.AmountCents,
		Total:        format.Amount(model.TotalCents()),
		Status:       NewBadgeResponse(string(model.Status), format.BookingStatus(model.Status)),
		DateUsed:     model.DateUsed,
		CancelledAt:  model.CancelledAt,
		CreatedAt:    model.CreatedAt,
	}
	if model.Offer != nil {
		response.OfferName = model.Offer.Name
	}
	if model.CancellationReason != nil {
		reason := string(*model.CancellationReason)
		response.CancellationReason = &reason
		response.CancellationReasonLabel = format.CancellationReason(*model.CancellationReason)
	}
	return response
}
