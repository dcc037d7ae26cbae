package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/observability"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/rules"
	"github.com/noah-isme/backoffice-api/internal/search"
)

var (
	// ErrRuleNotFound indicates the rule does not exist or was deleted.
	ErrRuleNotFound = errors.New("offer validation rule not found")
	// ErrOfferNotFound indicates the offer does not exist.
	ErrOfferNotFound = errors.New("offer not found")
)

// OfferValidationRuleService manages offer validation rules and evaluates them.
type OfferValidationRuleService interface {
	List(ctx context.Context, req dto.RuleListRequest) (dto.RuleListResponse, error)
	Get(ctx context.Context, id uint) (dto.RuleResponse, error)
	Create(ctx context.Context, payload dto.RuleRequest, actor ActivityActor) (dto.RuleResponse, error)
	Update(ctx context.Context, id uint, payload dto.RuleRequest, actor ActivityActor) (dto.RuleResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	MatchingForOffer(ctx context.Context, offerID uint) (dto.MatchingRulesResponse, error)
}

type offerValidationRuleService struct {
	repo      repository.OfferValidationRuleRepository
	offers    repository.OfferRepository
	validator *validator.Validate
	limits    pagination.Limits
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewOfferValidationRuleService constructs the rule service.
func NewOfferValidationRuleService(repo repository.OfferValidationRuleRepository, offers repository.OfferRepository, validator *validator.Validate, limits pagination.Limits, logger zerolog.Logger) OfferValidationRuleService {
	return &offerValidationRuleService{
		repo:      repo,
		offers:    offers,
		validator: validator,
		limits:    limits,
		tracer:    otel.Tracer("github.com/noah-isme/backoffice-api/internal/service/rules"),
		logger:    logger.With().Str("component", "offer_validation_rule_service").Logger(),
	}
}

func (s *offerValidationRuleService) List(ctx context.Context, req dto.RuleListRequest) (dto.RuleListResponse, error) {
	query := strings.TrimSpace(req.Query)
	page, err := s.repo.List(ctx, repository.OfferValidationRuleFilter{
		Params: normalizeParams(s.limits, req.ListRequest),
		Query:  query,
	})
	if err != nil {
		return dto.RuleListResponse{}, err
	}
	recordSearch("offer_validation_rule", search.NewBuilder().Text(query, repository.RuleTextSpec).Empty(), page.TotalItems)

	items := make([]dto.RuleResponse, 0, len(page.Items))
	for _, rule := range page.Items {
		response, err := s.toResponse(rule)
		if err != nil {
			return dto.RuleListResponse{}, err
		}
		items = append(items, response)
	}
	return dto.RuleListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *offerValidationRuleService) Get(ctx context.Context, id uint) (dto.RuleResponse, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.RuleResponse{}, notFound(err, ErrRuleNotFound)
	}
	return s.toResponse(rule)
}

func (s *offerValidationRuleService) Create(ctx context.Context, payload dto.RuleRequest, actor ActivityActor) (dto.RuleResponse, error) {
	clauses, err := s.compile(ctx, payload)
	if err != nil {
		return dto.RuleResponse{}, err
	}
	for i := range clauses {
		clauses[i].ID = 0
	}

	changes := rules.Creation(clauses)
	rule := &models.OfferValidationRule{
		Name:           strings.TrimSpace(payload.Name),
		LatestAuthorID: actor.AuthorID(),
	}
	err = s.repo.Create(ctx, rule, &changes, func(models.OfferValidationRule) *models.ActionHistory {
		action := newAction(models.ActionRuleCreated, actor, "")
		action.ExtraData = changes.ExtraData()
		return action
	})
	if err != nil {
		return dto.RuleResponse{}, err
	}

	observability.RuleChanges().WithLabelValues("created").Inc()
	s.logger.Info().Uint("rule_id", rule.ID).Int("sub_rules", len(clauses)).Uint("author_id", actor.ID).Msg("offer validation rule created")
	return s.toResponse(*rule)
}

func (s *offerValidationRuleService) Update(ctx context.Context, id uint, payload dto.RuleRequest, actor ActivityActor) (dto.RuleResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.RuleResponse{}, notFound(err, ErrRuleNotFound)
	}
	existing, err := repository.SubRuleClauses(current)
	if err != nil {
		return dto.RuleResponse{}, err
	}

	submitted, err := s.compile(ctx, payload)
	if err != nil {
		return dto.RuleResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	changes := rules.Diff(existing, submitted)
	if changes.Empty() && name == current.Name {
		return s.toResponse(current)
	}

	edit := repository.RuleEdit{Name: name, AuthorID: actor.AuthorID(), Changes: &changes}
	updated, err := s.repo.Update(ctx, id, edit, func(models.OfferValidationRule) *models.ActionHistory {
		action := newAction(models.ActionRuleModified, actor, "")
		extra := changes.ExtraData()
		if name != current.Name {
			info := map[string]interface{}{}
			modifiedInfo(info, "name", current.Name, name)
			extra["modified_info"] = info
		}
		action.ExtraData = extra
		return action
	})
	if err != nil {
		return dto.RuleResponse{}, notFound(err, ErrRuleNotFound)
	}

	observability.RuleChanges().WithLabelValues("modified").Inc()
	s.logger.Info().
		Uint("rule_id", id).
		Int("created", len(changes.Created)).
		Int("modified", len(changes.Modified)).
		Int("deleted", len(changes.Deleted)).
		Msg("offer validation rule updated")
	return s.toResponse(updated)
}

func (s *offerValidationRuleService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrRuleNotFound)
	}
	existing, err := repository.SubRuleClauses(current)
	if err != nil {
		return err
	}

	changes := rules.Removal(existing)
	err = s.repo.Deactivate(ctx, id, actor.AuthorID(), func(models.OfferValidationRule) *models.ActionHistory {
		action := newAction(models.ActionRuleDeleted, actor, "")
		action.ExtraData = changes.ExtraData()
		return action
	})
	if err != nil {
		return notFound(err, ErrRuleNotFound)
	}

	observability.RuleChanges().WithLabelValues("deleted").Inc()
	s.logger.Info().Uint("rule_id", id).Uint("author_id", actor.ID).Msg("offer validation rule deleted")
	return nil
}

// MatchingForOffer returns the active rules whose every sub-rule matches the offer.
func (s *offerValidationRuleService) MatchingForOffer(ctx context.Context, offerID uint) (dto.MatchingRulesResponse, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return dto.MatchingRulesResponse{}, notFound(err, ErrOfferNotFound)
	}

	facts := rules.Facts{
		Model:       rules.ModelOffer,
		Name:        offer.Name,
		Description: offer.Description,
		Price:       float64(offer.PriceCents) / 100,
		VenueID:     offer.VenueID,
		Category:    offer.Category,
		Subcategory: offer.Subcategory,
	}
	if offer.Venue != nil {
		facts.OffererID = offer.Venue.OffererID
	}

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return dto.MatchingRulesResponse{}, err
	}

	response := dto.MatchingRulesResponse{OfferID: offer.ID, Rules: []dto.RuleResponse{}}
	for _, rule := range active {
		clauses, err := repository.SubRuleClauses(rule)
		if err != nil {
			s.logger.Error().Err(err).Uint("rule_id", rule.ID).Msg("skipping rule with undecodable sub-rules")
			continue
		}
		if rules.MatchesAll(clauses, facts) {
			response.Rules = append(response.Rules, dto.NewRuleResponse(rule, clauses))
		}
	}
	return response, nil
}

func (s *offerValidationRuleService) compile(ctx context.Context, payload dto.RuleRequest) ([]rules.Clause, error) {
	_, span := s.tracer.Start(ctx, "rules.compile", trace.WithAttributes(
		attribute.Int("sub_rules", len(payload.SubRules)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return nil, err
	}

	clauses, err := rules.CompileAll(payload.SubRules)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var compileErr *rules.ValidationError
		if errors.As(err, &compileErr) {
			return nil, newFieldError(fmt.Sprintf("sub_rules[%d].%s", compileErr.Index, compileErr.Field), compileErr.Message)
		}
		return nil, err
	}
	return clauses, nil
}

func (s *offerValidationRuleService) toResponse(rule models.OfferValidationRule) (dto.RuleResponse, error) {
	clauses, err := repository.SubRuleClauses(rule)
	if err != nil {
		return dto.RuleResponse{}, err
	}
	return dto.NewRuleResponse(rule, clauses), nil
}
