package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActionType enumerates auditable backoffice mutations.
type ActionType string

const (
	ActionOffererValidated         ActionType = "OFFERER_VALIDATED"
	ActionOffererRejected          ActionType = "OFFERER_REJECTED"
	ActionOffererPending           ActionType = "OFFERER_PENDING"
	ActionOffererSuspended         ActionType = "OFFERER_SUSPENDED"
	ActionOffererUnsuspended       ActionType = "OFFERER_UNSUSPENDED"
	ActionUserSuspended            ActionType = "USER_SUSPENDED"
	ActionUserUnsuspended          ActionType = "USER_UNSUSPENDED"
	ActionInfoModified             ActionType = "INFO_MODIFIED"
	ActionBookingCancelled         ActionType = "BOOKING_CANCELLED"
	ActionFinanceIncidentCreated   ActionType = "FINANCE_INCIDENT_CREATED"
	ActionFinanceIncidentValidated ActionType = "FINANCE_INCIDENT_VALIDATED"
	ActionFinanceIncidentCancelled ActionType = "FINANCE_INCIDENT_CANCELLED"
	ActionCustomReimbursementRule  ActionType = "CUSTOM_REIMBURSEMENT_RULE_CREATED"
	ActionCustomReimbursementEdit  ActionType = "CUSTOM_REIMBURSEMENT_RULE_MODIFIED"
	ActionRuleCreated              ActionType = "RULE_CREATED"
	ActionRuleModified             ActionType = "RULE_MODIFIED"
	ActionRuleDeleted              ActionType = "RULE_DELETED"
	ActionProviderCreated          ActionType = "PROVIDER_CREATED"
	ActionProviderModified         ActionType = "PROVIDER_MODIFIED"
	ActionInvoiceGenerationQueued  ActionType = "INVOICE_GENERATION_QUEUED"
)

// ActionHistory is an immutable audit entry. Rows are only ever inserted.
type ActionHistory struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	ActionType        ActionType        `gorm:"size:64;index;not null" json:"action_type"`
	ActionDate        time.Time         `gorm:"index;not null" json:"action_date"`
	AuthorUserID      *uint             `gorm:"index" json:"author_user_id"`
	UserID            *uint             `gorm:"index" json:"user_id"`
	OffererID         *uint             `gorm:"index" json:"offerer_id"`
	VenueID           *uint             `gorm:"index" json:"venue_id"`
	BookingID         *uint             `gorm:"index" json:"booking_id"`
	FinanceIncidentID *uint             `gorm:"index" json:"finance_incident_id"`
	RuleID            *uint             `gorm:"index" json:"rule_id"`
	Comment           string            `gorm:"size:2000" json:"comment"`
	ExtraData         datatypes.JSONMap `gorm:"type:json" json:"extra_data"`
}

// TableName keeps audit rows in a dedicated table.
func (ActionHistory) TableName() string {
	return "action_history"
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Offerer{},
		&Venue{},
		&Offer{},
		&Booking{},
		&FinanceIncident{},
		&BookingFinanceIncident{},
		&CashflowBatch{},
		&CustomReimbursementRule{},
		&Provider{},
		&OfferValidationRule{},
		&OfferValidationSubRule{},
		&ActionHistory{},
	}
}
