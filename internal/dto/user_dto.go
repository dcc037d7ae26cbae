package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/models"
)

// UserListRequest holds the raw account search form.
type UserListRequest struct {
	ListRequest
	Query  string
	Active string
}

// UserResponse serializes an account for the backoffice.
type UserResponse struct {
	ID          uint      `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	PostalCode  string    `json:"postal_code"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserListResponse wraps a paginated account response.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// UserUpdateRequest captures partial personal information updates.
type UserUpdateRequest struct {
	FirstName   *string `json:"first_name" form:"first_name" validate:"omitempty,min=1,max=128"`
	LastName    *string `json:"last_name" form:"last_name" validate:"omitempty,min=1,max=128"`
	Email       *string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" validate:"omitempty,max=20"`
	PostalCode  *string `json:"postal_code" form:"postal_code" validate:"omitempty,numeric,len=5"`
}

// UserSuspendRequest is the account suspension form.
type UserSuspendRequest struct {
	Reason  string `json:"reason" form:"reason" validate:"required,oneof=FRAUD_SUSPICION FRAUD_USURPATION END_OF_CONTRACT UPON_USER_REQUEST DELETED"`
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

// NewUserResponse maps an account.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:          model.ID,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		FullName:    model.FullName(),
		Email:       model.Email,
		PhoneNumber: model.PhoneNumber,
		PostalCode:  model.PostalCode,
		Role:        string(model.Role),
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
	}
}
