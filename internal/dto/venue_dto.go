package dto

import "github.com/noah-isme/backoffice-api/internal/models"

// VenueListRequest holds the raw venue search form.
type VenueListRequest struct {
	ListRequest
	Query      string
	OffererIDs string
}

// VenueResponse serializes a venue for the backoffice.
type VenueResponse struct {
	ID          uint    `json:"id"`
	OffererID   uint    `json:"offerer_id"`
	OffererName string  `json:"offerer_name,omitempty"`
	Name        string  `json:"name"`
	PublicName  string  `json:"public_name"`
	Siret       *string `json:"siret"`
	Comment     string  `json:"comment"`
	IsVirtual   bool    `json:"is_virtual"`
	PostalCode  string  `json:"postal_code"`
	City        string  `json:"city"`
}

// VenueListResponse wraps a paginated venue response.
type VenueListResponse struct {
	Items      []VenueResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// MoveSiretRequest is the SIRET transfer form.
type MoveSiretRequest struct {
	TargetVenueID        uint   `json:"target_venue_id" form:"target_venue_id" validate:"required"`
	Siret                string `json:"siret" form:"siret" validate:"required,len=14,numeric"`
	Comment              string `json:"comment" form:"comment" validate:"required,max=2000"`
	OverrideRevenueCheck bool   `json:"override_revenue_check" form:"override_revenue_check"`
}

// MoveSiretResponse returns both venues after the transfer.
type MoveSiretResponse struct {
	Source VenueResponse `json:"source"`
	Target VenueResponse `json:"target"`
}

// NewVenueResponse maps a venue.
func NewVenueResponse(model models.Venue) VenueResponse {
	response := VenueResponse{
		ID:         model.ID,
		OffererID:  model.OffererID,
		Name:       model.Name,
		PublicName: model.PublicName,
		Siret:      model.Siret,
		Comment:    model.Comment,
		IsVirtual:  model.IsVirtual,
		PostalCode: model.PostalCode,
		City:       model.City,
	}
	if model.Offerer != nil {
		response.OffererName = model.Offerer.Name
	}
	return response
}
