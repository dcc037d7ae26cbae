package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/models"
)

// ProviderListRequest holds the raw provider search form.
type ProviderListRequest struct {
	ListRequest
	Query string
}

// ProviderRequest is the provider create/edit form. Nil flags keep their value on edit.
type ProviderRequest struct {
	Name                    string `json:"name" form:"name" validate:"required,max=128"`
	EnabledForPro           *bool  `json:"enabled_for_pro" form:"enabled_for_pro"`
	IsActive                *bool  `json:"is_active" form:"is_active"`
	BookingExternalURL      string `json:"booking_external_url" form:"booking_external_url" validate:"omitempty,url,max=512"`
	CancelExternalURL       string `json:"cancel_external_url" form:"cancel_external_url" validate:"omitempty,url,max=512"`
	NotificationExternalURL string `json:"notification_external_url" form:"notification_external_url" validate:"omitempty,url,max=512"`
}

// ProviderResponse serializes a synchronisation provider.
type ProviderResponse struct {
	ID                      uint      `json:"id"`
	Name                    string    `json:"name"`
	EnabledForPro           bool      `json:"enabled_for_pro"`
	IsActive                bool      `json:"is_active"`
	BookingExternalURL      string    `json:"booking_external_url"`
	CancelExternalURL       string    `json:"cancel_external_url"`
	NotificationExternalURL string    `json:"notification_external_url"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// ProviderListResponse wraps a paginated provider response.
type ProviderListResponse struct {
	Items      []ProviderResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewProviderResponse maps a provider.
func NewProviderResponse(model models.Provider) ProviderResponse {
	return ProviderResponse{
		ID:                      model.ID,
		Name:                    model.Name,
		EnabledForPro:           model.EnabledForPro,
		IsActive:                model.IsActive,
		BookingExternalURL:      model.BookingExternalURL,
		CancelExternalURL:       model.CancelExternalURL,
		NotificationExternalURL: model.NotificationExternalURL,
		UpdatedAt:               model.UpdatedAt,
	}
}
