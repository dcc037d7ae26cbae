package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// UserRole enumerates the account roles known to the backoffice.
type UserRole string

const (
	UserRoleBeneficiary UserRole = "BENEFICIARY"
	UserRolePro         UserRole = "PRO"
	UserRoleAdmin       UserRole = "ADMIN"
)

// SuspensionReason explains why an account was suspended.
type SuspensionReason string

const (
	SuspensionReasonFraudSuspicion  SuspensionReason = "FRAUD_SUSPICION"
	SuspensionReasonFraudUsurpation SuspensionReason = "FRAUD_USURPATION"
	SuspensionReasonEndOfContract   SuspensionReason = "END_OF_CONTRACT"
	SuspensionReasonUponUserRequest SuspensionReason = "UPON_USER_REQUEST"
	SuspensionReasonDeleted         SuspensionReason = "DELETED"
)

// User is a platform account: beneficiary, professional or backoffice admin.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"size:128" json:"first_name"`
	LastName    string    `gorm:"size:128" json:"last_name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber string    `gorm:"size:32" json:"phone_number"`
	PostalCode  string    `gorm:"size:16" json:"postal_code"`
	Role        UserRole  `gorm:"size:32;index;not null" json:"role"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	SearchText  string    `gorm:"size:600;index" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// BeforeSave keeps the accent-folded search column in sync.
func (u *User) BeforeSave(*gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.SearchText = search.Normalize(u.FirstName + " " + u.LastName + " " + u.Email)
	return nil
}
