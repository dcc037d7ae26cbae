package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// ErrReimbursementRuleNotFound indicates the custom reimbursement rule does not exist.
var ErrReimbursementRuleNotFound = errors.New("custom reimbursement rule not found")

// ReimbursementRuleService orchestrates custom reimbursement rules.
type ReimbursementRuleService interface {
	List(ctx context.Context, req dto.ReimbursementRuleListRequest) (dto.ReimbursementRuleListResponse, error)
	Create(ctx context.Context, payload dto.ReimbursementRuleCreateRequest, actor ActivityActor) (dto.ReimbursementRuleResponse, error)
	UpdateEnd(ctx context.Context, id uint, payload dto.ReimbursementRuleUpdateRequest, actor ActivityActor) (dto.ReimbursementRuleResponse, error)
}

type reimbursementRuleService struct {
	repo      repository.CustomReimbursementRuleRepository
	validator *validator.Validate
	limits    pagination.Limits
	now       func() time.Time
	logger    zerolog.Logger
}

// NewReimbursementRuleService constructs the custom reimbursement rule service.
func NewReimbursementRuleService(repo repository.CustomReimbursementRuleRepository, validator *validator.Validate, limits pagination.Limits, logger zerolog.Logger) ReimbursementRuleService {
	return &reimbursementRuleService{
		repo:      repo,
		validator: validator,
		limits:    limits,
		now:       time.Now,
		logger:    logger.With().Str("component", "reimbursement_rule_service").Logger(),
	}
}

func (s *reimbursementRuleService) List(ctx context.Context, req dto.ReimbursementRuleListRequest) (dto.ReimbursementRuleListResponse, error) {
	offererIDs, err := search.ParseIDList("offerer_id", req.OffererIDs)
	if err != nil {
		return dto.ReimbursementRuleListResponse{}, fromFieldError(err)
	}
	venueIDs, err := search.ParseIDList("venue_id", req.VenueIDs)
	if err != nil {
		return dto.ReimbursementRuleListResponse{}, fromFieldError(err)
	}

	page, err := s.repo.List(ctx, repository.CustomReimbursementRuleFilter{
		Params:     normalizeParams(s.limits, req.ListRequest),
		OffererIDs: offererIDs,
		VenueIDs:   venueIDs,
	})
	if err != nil {
		return dto.ReimbursementRuleListResponse{}, err
	}

	items := make([]dto.ReimbursementRuleResponse, 0, len(page.Items))
	for _, rule := range page.Items {
		items = append(items, dto.NewReimbursementRuleResponse(rule))
	}
	return dto.ReimbursementRuleListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *reimbursementRuleService) Create(ctx context.Context, payload dto.ReimbursementRuleCreateRequest, actor ActivityActor) (dto.ReimbursementRuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}
	if err := checkTarget(payload); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}
	if (payload.RatePercent == nil) == (payload.AmountCents == nil) {
		return dto.ReimbursementRuleResponse{}, newValidationError("Un tarif dérogatoire doit avoir soit un taux, soit un montant")
	}

	start, end, err := s.timespan(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}
	today := s.today()
	if start.Before(today) {
		return dto.ReimbursementRuleResponse{}, newFieldError("start_date", "La date de début ne peut pas être dans le passé")
	}

	subcategories := normalizeSubcategories(payload.Subcategories)
	target := repository.ReimbursementTarget{OfferID: payload.OfferID, VenueID: payload.VenueID, OffererID: payload.OffererID}
	if err := s.checkTargetExists(ctx, target); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}
	if err := s.checkOverlap(ctx, target, 0, start, end, subcategories); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}

	encoded, err := json.Marshal(subcategories)
	if err != nil {
		return dto.ReimbursementRuleResponse{}, fmt.Errorf("encode subcategories: %w", err)
	}

	rule := &models.CustomReimbursementRule{
		OfferID:       payload.OfferID,
		VenueID:       payload.VenueID,
		OffererID:     payload.OffererID,
		Subcategories: datatypes.JSON(encoded),
		RatePercent:   payload.RatePercent,
		AmountCents:   payload.AmountCents,
		TimespanStart: start,
		TimespanEnd:   end,
	}
	action := newAction(models.ActionCustomReimbursementRule, actor, "")
	action.VenueID = payload.VenueID
	action.OffererID = payload.OffererID

	if err := s.repo.Create(ctx, rule, action); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}

	s.logger.Info().Uint("rule_id", rule.ID).Uint("author_id", actor.ID).Msg("custom reimbursement rule created")
	return dto.NewReimbursementRuleResponse(*rule), nil
}

func (s *reimbursementRuleService) UpdateEnd(ctx context.Context, id uint, payload dto.ReimbursementRuleUpdateRequest, actor ActivityActor) (dto.ReimbursementRuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}

	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ReimbursementRuleResponse{}, notFound(err, ErrReimbursementRuleNotFound)
	}

	endDate, err := search.ParseDate("end_date", payload.EndDate)
	if err != nil {
		return dto.ReimbursementRuleResponse{}, fromFieldError(err)
	}
	if endDate == nil {
		return dto.ReimbursementRuleResponse{}, newFieldError("end_date", "La date de fin est obligatoire")
	}
	if endDate.Before(s.today()) {
		return dto.ReimbursementRuleResponse{}, newFieldError("end_date", "La date de fin ne peut pas être dans le passé")
	}
	if endDate.Before(rule.TimespanStart) {
		return dto.ReimbursementRuleResponse{}, newFieldError("end_date", "La date de fin doit être postérieure à la date de début")
	}
	end := exclusiveEnd(*endDate)

	target := repository.ReimbursementTarget{OfferID: rule.OfferID, VenueID: rule.VenueID, OffererID: rule.OffererID}
	if err := s.checkOverlap(ctx, target, rule.ID, rule.TimespanStart, &end, decodeSubcategories(rule.Subcategories)); err != nil {
		return dto.ReimbursementRuleResponse{}, err
	}

	info := map[string]interface{}{}
	modifiedInfo(info, "end_date", displayEnd(rule.TimespanEnd), endDate.Format(search.DateLayout))
	action := newAction(models.ActionCustomReimbursementEdit, actor, "")
	action.VenueID = rule.VenueID
	action.OffererID = rule.OffererID
	action.ExtraData = map[string]interface{}{"custom_reimbursement_rule_id": rule.ID, "modified_info": info}

	updated, err := s.repo.UpdateEnd(ctx, id, &end, action)
	if err != nil {
		return dto.ReimbursementRuleResponse{}, notFound(err, ErrReimbursementRuleNotFound)
	}

	s.logger.Info().Uint("rule_id", id).Time("end", end).Msg("custom reimbursement rule end updated")
	return dto.NewReimbursementRuleResponse(updated), nil
}

func (s *reimbursementRuleService) checkTargetExists(ctx context.Context, target repository.ReimbursementTarget) error {
	exists, err := s.repo.TargetExists(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	switch {
	case target.OfferID != nil:
		return newFieldError("offer_id", "L'offre n'existe pas")
	case target.VenueID != nil:
		return newFieldError("venue_id", "Le partenaire culturel n'existe pas")
	default:
		return newFieldError("offerer_id", "L'entité juridique n'existe pas")
	}
}

// checkOverlap rejects [start, end) when another rule on the same target covers part of
// it for a shared subcategory. skipID excludes the rule being edited.
func (s *reimbursementRuleService) checkOverlap(ctx context.Context, target repository.ReimbursementTarget, skipID uint, start time.Time, end *time.Time, subcategories []string) error {
	existing, err := s.repo.FindForTarget(ctx, target)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == skipID {
			continue
		}
		if other.Overlaps(start, end) && subcategoriesIntersect(decodeSubcategories(other.Subcategories), subcategories) {
			return newValidationError(fmt.Sprintf("Un tarif dérogatoire existe déjà sur cette période (tarif %d)", other.ID))
		}
	}
	return nil
}

// timespan converts form dates to [start, end); the end date is inclusive in forms.
func (s *reimbursementRuleService) timespan(rawStart, rawEnd string) (time.Time, *time.Time, error) {
	start, end, err := search.ParseDateRange("start_date", rawStart, "end_date", rawEnd)
	if err != nil {
		return time.Time{}, nil, fromFieldError(err)
	}
	if start == nil {
		return time.Time{}, nil, newFieldError("start_date", "La date de début est obligatoire")
	}
	if end == nil {
		return *start, nil, nil
	}
	exclusive := exclusiveEnd(*end)
	return *start, &exclusive, nil
}

func (s *reimbursementRuleService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func checkTarget(payload dto.ReimbursementRuleCreateRequest) error {
	if payload.VenueID != nil && payload.OffererID != nil {
		return newValidationError("Un tarif dérogatoire ne peut pas concerner un partenaire culturel et une entité juridique en même temps")
	}
	count := 0
	for _, id := range []*uint{payload.OfferID, payload.VenueID, payload.OffererID} {
		if id != nil {
			count++
		}
	}
	if count != 1 {
		return newValidationError("Must provide offer, venue, or offerer (only one)")
	}
	return nil
}

func exclusiveEnd(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

func displayEnd(end *time.Time) interface{} {
	if end == nil {
		return nil
	}
	return end.AddDate(0, 0, -1).Format(search.DateLayout)
}

func normalizeSubcategories(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}
	sort.Strings(normalized)
	return normalized
}

func decodeSubcategories(raw datatypes.JSON) []string {
	var values []string
	if len(raw) == 0 {
		return values
	}
	_ = json.Unmarshal(raw, &values)
	return values
}

// subcategoriesIntersect treats an empty list as "every subcategory".
func subcategoriesIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(a))
	for _, value := range a {
		set[value] = struct{}{}
	}
	for _, value := range b {
		if _, ok := set[value]; ok {
			return true
		}
	}
	return false
}
