package dto

import (
	"time"

	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/rules"
)

// RuleListRequest holds the raw rule search form.
type RuleListRequest struct {
	ListRequest
	Query string
}

// RuleRequest is the create/edit form of an offer validation rule.
type RuleRequest struct {
	Name     string        `json:"name" form:"name" validate:"required,max=255"`
	SubRules []rules.Input `json:"sub_rules" validate:"required,min=1,dive"`
}

// SubRuleResponse serializes a stored sub-rule with its labels.
type SubRuleResponse struct {
	ID            uint        `json:"id"`
	Type          string      `json:"sub_rule_type"`
	TypeLabel     string      `json:"sub_rule_type_label"`
	Model         string      `json:"model"`
	Attribute     string      `json:"attribute"`
	Operator      string      `json:"operator"`
	OperatorLabel string      `json:"operator_label"`
	Comparated    interface{} `json:"comparated"`
}

// RuleResponse serializes an offer validation rule.
type RuleResponse struct {
	ID             uint              `json:"id"`
	Name           string            `json:"name"`
	IsActive       bool              `json:"is_active"`
	LatestAuthorID *uint             `json:"latest_author_id"`
	DateModified   time.Time         `json:"date_modified"`
	SubRules       []SubRuleResponse `json:"sub_rules"`
}

// RuleListResponse wraps a paginated rule response.
type RuleListResponse struct {
	Items      []RuleResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// MatchingRulesResponse lists the active rules flagging an offer.
type MatchingRulesResponse struct {
	OfferID uint           `json:"offer_id"`
	Rules   []RuleResponse `json:"rules"`
}

// NewRuleResponse maps a rule and its decoded clauses.
func NewRuleResponse(model models.OfferValidationRule, clauses []rules.Clause) RuleResponse {
	response := RuleResponse{
		ID:             model.ID,
		Name:           model.Name,
		IsActive:       model.IsActive,
		LatestAuthorID: model.LatestAuthorID,
		DateModified:   model.DateModified,
		SubRules:       make([]SubRuleResponse, 0, len(clauses)),
	}
	for _, clause := range clauses {
		subRule := SubRuleResponse{
			ID:            clause.ID,
			Model:         string(clause.Model),
			Attribute:     string(clause.Attribute),
			Operator:      string(clause.Operator),
			OperatorLabel: format.Operator(clause.Operator),
			Comparated:    clause.Comparated,
		}
		if t, ok := rules.TypeOf(clause.Model, clause.Attribute); ok {
			subRule.Type = string(t)
			subRule.TypeLabel = format.SubRuleType(t)
		}
		response.SubRules = append(response.SubRules, subRule)
	}
	return response
}
