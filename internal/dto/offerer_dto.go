package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
)

// OffererListRequest holds the raw offerer search form.
type OffererListRequest struct {
	ListRequest
	Query    string
	Statuses []string
	From     string
	To       string
	Active   string
}

// VenueSummary is a venue row embedded in the offerer detail.
type VenueSummary struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Siret     *string `json:"siret"`
	IsVirtual bool    `json:"is_virtual"`
}

// OffererResponse serializes an offerer for the backoffice.
type OffererResponse struct {
	ID                   uint           `json:"id"`
	Name                 string         `json:"name"`
	Siren                string         `json:"siren"`
	PostalCode           string         `json:"postal_code"`
	City                 string         `json:"city"`
	Status               BadgeResponse  `json:"status"`
	RejectionReason      *string        `json:"rejection_reason,omitempty"`
	RejectionReasonLabel string         `json:"rejection_reason_label,omitempty"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
	Venues               []VenueSummary `json:"venues,omitempty"`
}

// OffererListResponse wraps a paginated offerer response.
type OffererListResponse struct {
	Items      []OffererResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// OffererRejectRequest is the rejection form.
type OffererRejectRequest struct {
	Reason  string `json:"reason" form:"reason" validate:"required,oneof=ELIGIBILITY ERROR ADAGE_DECLINED OUT_OF_TIME CLOSED_BUSINESS OTHER"`
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

// NewOffererResponse maps an offerer with its labels.
func NewOffererResponse(model models.Offerer) OffererResponse {
	response := OffererResponse{
		ID:         model.ID,
		Name:       model.Name,
		Siren:      model.Siren,
		PostalCode: model.PostalCode,
		City:       model.City,
		Status:     NewBadgeResponse(string(model.ValidationStatus), format.ValidationStatus(model.ValidationStatus)),
		IsActive:   model.IsActive,
		CreatedAt:  model.CreatedAt,
	}
	if model.RejectionReason != nil {
		reason := string(*model.RejectionReason)
		response.RejectionReason = &reason
		response.RejectionReasonLabel = format.OffererRejectionReason(*model.RejectionReason)
	}
	for _, venue := range model.Venues {
		response.Venues = append(response.Venues, VenueSummary{
			ID:        venue.ID,
			Name:      venue.Name,
			Siret:     venue.Siret,
			IsVirtual: venue.IsVirtual,
		})
	}
	return response
}
