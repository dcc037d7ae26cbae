package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
)

// IncidentListRequest holds the raw incident search form.
type IncidentListRequest struct {
	ListRequest
	Statuses []string
	Kinds    []string
	VenueIDs string
	From     string
	To       string
}

// IncidentBookingResponse is one booking covered by an incident.
type IncidentBookingResponse struct {
	BookingID   uint   `json:"booking_id"`
	Token       string `json:"token,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

// IncidentResponse serializes a finance incident.
type IncidentResponse struct {
	ID         uint                      `json:"id"`
	Kind       string                    `json:"kind"`
	KindLabel  string                    `json:"kind_label"`
	Status     BadgeResponse             `json:"status"`
	VenueID    uint                      `json:"venue_id"`
	VenueName  string                    `json:"venue_name,omitempty"`
	Comment    string                    `json:"comment"`
	TotalCents int64                     `json:"total_cents"`
	Total      string                    `json:"total"`
	Bookings   []IncidentBookingResponse `json:"bookings"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// IncidentListResponse wraps a paginated incident response.
type IncidentListResponse struct {
	Items      []IncidentResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// IncidentCreateRequest opens an overpayment incident on reimbursed bookings of one venue.
type IncidentCreateRequest struct {
	VenueID    uint   `json:"venue_id" form:"venue_id" validate:"required"`
	BookingIDs []uint `json:"booking_ids" form:"booking_ids" validate:"required,min=1,dive,required"`
	Comment    string `json:"comment" form:"comment" validate:"max=2000"`
}

// NewIncidentResponse maps an incident with its labels.
func NewIncidentResponse(model models.FinanceIncident) IncidentResponse {
	response := IncidentResponse{
		ID:         model.ID,
		Kind:       string(model.Kind),
		KindLabel:  format.IncidentKind(model.Kind),
		Status:     NewBadgeResponse(string(model.Status), format.IncidentStatus(model.Status)),
		VenueID:    model.VenueID,
		Comment:    model.Comment,
		TotalCents: model.TotalCents(),
		Total:      format.Amount(model.TotalCents()),
		Bookings:   make([]IncidentBookingResponse, 0, len(model.BookingIncidents)),
		CreatedAt:  model.CreatedAt,
	}
	if model.Venue != nil {
		response.VenueName = model.Venue.Name
	}
	for _, item := range model.BookingIncidents {
		booking := IncidentBookingResponse{
			BookingID:   item.BookingID,
			AmountCents: item.AmountCents,
			Amount:      format.Amount(item.AmountCents),
		}
		if item.Booking != nil {
			booking.Token = item.Booking.Token
		}
		response.Bookings = append(response.Bookings, booking)
	}
	return response
}

// CashflowBatchResponse serializes a cashflow batch.
type CashflowBatchResponse struct {
	ID     uint      `json:"id"`
	Label  string    `json:"label"`
	Cutoff time.Time `json:"cutoff"`
}

// CashflowBatchListResponse wraps a paginated batch response.
type CashflowBatchListResponse struct {
	Items      []CashflowBatchResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// InvoiceGenerationRequest asks for the invoices of a batch.
type InvoiceGenerationRequest struct {
	BatchID uint `json:"batch_id" form:"batch_id" validate:"required"`
}

// InvoiceGenerationStatus reports whether queued generation work remains.
type InvoiceGenerationStatus struct {
	InProgress bool  `json:"in_progress"`
	Pending    int64 `json:"pending"`
}

// ReimbursementRuleListRequest holds the raw custom reimbursement rule filters.
type ReimbursementRuleListRequest struct {
	ListRequest
	OffererIDs string
	VenueIDs   string
}

// ReimbursementRuleCreateRequest is the custom reimbursement rule form. Dates use YYYY-MM-DD.
type ReimbursementRuleCreateRequest struct {
	OfferID       *uint    `json:"offer_id" form:"offer_id"`
	VenueID       *uint    `json:"venue_id" form:"venue_id"`
	OffererID     *uint    `json:"offerer_id" form:"offerer_id"`
	Subcategories []string `json:"subcategories" form:"subcategories" validate:"omitempty,dive,required"`
	RatePercent   *float64 `json:"rate_percent" form:"rate_percent" validate:"omitempty,gt=0,lte=100"`
	AmountCents   *int64   `json:"amount_cents" form:"amount_cents" validate:"omitempty,gte=0"`
	StartDate     string   `json:"start_date" form:"start_date" validate:"required"`
	EndDate       string   `json:"end_date" form:"end_date"`
}

// ReimbursementRuleUpdateRequest edits the end date of a rule.
type ReimbursementRuleUpdateRequest struct {
	EndDate string `json:"end_date" form:"end_date" validate:"required"`
}

// ReimbursementRuleResponse serializes a custom reimbursement rule.
type ReimbursementRuleResponse struct {
	ID            uint       `json:"id"`
	OfferID       *uint      `json:"offer_id"`
	VenueID       *uint      `json:"venue_id"`
	OffererID     *uint      `json:"offerer_id"`
	Subcategories []string   `json:"subcategories"`
	RatePercent   *float64   `json:"rate_percent"`
	AmountCents   *int64     `json:"amount_cents"`
	Amount        string     `json:"amount,omitempty"`
	TimespanStart time.Time  `json:"timespan_start"`
	TimespanEnd   *time.Time `json:"timespan_end"`
}

// ReimbursementRuleListResponse wraps a paginated rule response.
type ReimbursementRuleListResponse struct {
	Items      []ReimbursementRuleResponse `json:"items"`
	Pagination PaginationMeta              `json:"pagination"`
}

// NewReimbursementRuleResponse maps a custom reimbursement rule.
func NewReimbursementRuleResponse(model models.CustomReimbursementRule) ReimbursementRuleResponse {
	response := ReimbursementRuleResponse{
		ID:            model.ID,
		OfferID:       model.OfferID,
		VenueID:       model.VenueID,
		OffererID:     model.OffererID,
		Subcategories: []string{},
		RatePercent:   model.RatePercent,
		AmountCents:   model.AmountCents,
		TimespanStart: model.TimespanStart,
		TimespanEnd:   model.TimespanEnd,
	}
	if len(model.Subcategories) > 0 {
		_ = json.Unmarshal(model.Subcategories, &response.Subcategories)
	}
	if model.AmountCents != nil {
		response.Amount = format.Amount(*model.AmountCents)
	}
	return response
}
