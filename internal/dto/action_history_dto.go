package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
)

// ActionHistoryListRequest holds the raw audit trail filters.
type ActionHistoryListRequest struct {
	ListRequest
	ActionType string
	UserID     string
	OffererID  string
	VenueID    string
}

// ActionHistoryResponse serializes an audit entry with its French label.
type ActionHistoryResponse struct {
	ID                uint                   `json:"id"`
	ActionType        string                 `json:"action_type"`
	ActionLabel       string                 `json:"action_label"`
	ActionDate        time.Time              `json:"action_date"`
	AuthorUserID      *uint                  `json:"author_user_id"`
	UserID            *uint                  `json:"user_id,omitempty"`
	OffererID         *uint                  `json:"offerer_id,omitempty"`
	VenueID           *uint                  `json:"venue_id,omitempty"`
	BookingID         *uint                  `json:"booking_id,omitempty"`
	FinanceIncidentID *uint                  `json:"finance_incident_id,omitempty"`
	RuleID            *uint                  `json:"rule_id,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	ExtraData         map[string]interface{} `json:"extra_data,omitempty"`
}

// ActionHistoryListResponse wraps a paginated audit response.
type ActionHistoryListResponse struct {
	Items      []ActionHistoryResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewActionHistoryResponse maps an audit entry.
func NewActionHistoryResponse(model models.ActionHistory) ActionHistoryResponse {
	return ActionHistoryResponse{
		ID:                model.ID,
		ActionType:        string(model.ActionType),
		ActionLabel:       format.ActionType(model.ActionType),
		ActionDate:        model.ActionDate,
		AuthorUserID:      model.AuthorUserID,
		UserID:            model.UserID,
		OffererID:         model.OffererID,
		VenueID:           model.VenueID,
		BookingID:         model.BookingID,
		FinanceIncidentID: model.FinanceIncidentID,
		RuleID:            model.RuleID,
		Comment:           model.Comment,
		ExtraData:         model.ExtraData,
	}
}
