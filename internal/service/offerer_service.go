package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
	"github.com/noah-isme/backoffice-api/pkg/crm"
)

// ErrOffererNotFound indicates the offerer does not exist.
var ErrOffererNotFound = errors.New("offerer not found")

// CRMPublisher forwards account and offerer changes to the CRM.
type CRMPublisher interface {
	Publish(ctx context.Context, event crm.Event) error
}

// OffererService orchestrates offerer review and search.
type OffererService interface {
	Search(ctx context.Context, req dto.OffererListRequest) (dto.OffererListResponse, error)
	Get(ctx context.Context, id uint) (dto.OffererResponse, error)
	Autocomplete(ctx context.Context, query string) ([]dto.AutocompleteItem, error)
	Validate(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error)
	Reject(ctx context.Context, id uint, payload dto.OffererRejectRequest, actor ActivityActor) (dto.OffererResponse, error)
	SetPending(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error)
	Suspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error)
	Unsuspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error)
}

type offererService struct {
	repo      repository.OffererRepository
	crm       CRMPublisher
	validator *validator.Validate
	limits    pagination.Limits
	cap       int
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewOffererService constructs the offerer service. cap bounds autocomplete suggestions.
func NewOffererService(repo repository.OffererRepository, crm CRMPublisher, validator *validator.Validate, limits pagination.Limits, cap int, logger zerolog.Logger) OffererService {
	return &offererService{
		repo:      repo,
		crm:       crm,
		validator: validator,
		limits:    limits,
		cap:       autocompleteCap(cap),
		tracer:    otel.Tracer("github.com/noah-isme/backoffice-api/internal/service/offerer"),
		logger:    logger.With().Str("component", "offerer_service").Logger(),
	}
}

func (s *offererService) Search(ctx context.Context, req dto.OffererListRequest) (dto.OffererListResponse, error) {
	from, to, err := search.ParseDateRange("from", req.From, "to", req.To)
	if err != nil {
		return dto.OffererListResponse{}, fromFieldError(err)
	}
	active, err := search.ParseBool("active", req.Active)
	if err != nil {
		return dto.OffererListResponse{}, fromFieldError(err)
	}

	filter := repository.OffererFilter{
		Params:   normalizeParams(s.limits, req.ListRequest),
		Query:    strings.TrimSpace(req.Query),
		Statuses: search.SplitValues(req.Statuses...),
		From:     from,
		To:       to,
		Active:   active,
	}

	ctx, span := s.tracer.Start(ctx, "offerer.search", trace.WithAttributes(
		attribute.Int("page", filter.Params.Page),
		attribute.Int("statuses", len(filter.Statuses)),
	))
	defer span.End()

	page, err := s.repo.Search(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.OffererListResponse{}, err
	}
	span.SetAttributes(attribute.Int64("total_items", page.TotalItems))
	recordSearch("offerer", search.NewBuilder().Text(filter.Query, repository.OffererTextSpec).Empty(), page.TotalItems)

	items := make([]dto.OffererResponse, 0, len(page.Items))
	for _, offerer := range page.Items {
		items = append(items, dto.NewOffererResponse(offerer))
	}
	return dto.OffererListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *offererService) Get(ctx context.Context, id uint) (dto.OffererResponse, error) {
	offerer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.OffererResponse{}, notFound(err, ErrOffererNotFound)
	}
	return dto.NewOffererResponse(offerer), nil
}

func (s *offererService) Autocomplete(ctx context.Context, query string) ([]dto.AutocompleteItem, error) {
	offerers, err := s.repo.Autocomplete(ctx, strings.TrimSpace(query), s.cap)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AutocompleteItem, 0, len(offerers))
	for _, offerer := range offerers {
		items = append(items, dto.AutocompleteItem{ID: offerer.ID, Text: offerer.Name + " (" + offerer.Siren + ")"})
	}
	return items, nil
}

func (s *offererService) Validate(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error) {
	return s.transition(ctx, id, payload.Comment, actor, func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error) {
		switch offerer.ValidationStatus {
		case models.ValidationStatusValidated:
			return nil, "", newValidationError("L'entité juridique est déjà validée")
		case models.ValidationStatusClosed:
			return nil, "", newValidationError("Impossible de valider une entité juridique fermée")
		}
		return map[string]interface{}{
			"validation_status": models.ValidationStatusValidated,
			"rejection_reason":  nil,
		}, models.ActionOffererValidated, nil
	})
}

func (s *offererService) Reject(ctx context.Context, id uint, payload dto.OffererRejectRequest, actor ActivityActor) (dto.OffererResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OffererResponse{}, err
	}
	reason := models.OffererRejectionReason(payload.Reason)

	return s.transition(ctx, id, payload.Comment, actor, func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error) {
		switch offerer.ValidationStatus {
		case models.ValidationStatusNew, models.ValidationStatusPending:
		case models.ValidationStatusRejected:
			return nil, "", newValidationError("L'entité juridique est déjà rejetée")
		default:
			return nil, "", newValidationError("Seule une entité juridique nouvelle ou en attente peut être rejetée")
		}
		return map[string]interface{}{
			"validation_status": models.ValidationStatusRejected,
			"rejection_reason":  reason,
		}, models.ActionOffererRejected, nil
	})
}

func (s *offererService) SetPending(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error) {
	return s.transition(ctx, id, payload.Comment, actor, func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error) {
		if offerer.ValidationStatus == models.ValidationStatusClosed {
			return nil, "", newValidationError("Impossible de mettre en attente une entité juridique fermée")
		}
		return map[string]interface{}{
			"validation_status": models.ValidationStatusPending,
			"rejection_reason":  nil,
		}, models.ActionOffererPending, nil
	})
}

func (s *offererService) Suspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error) {
	return s.transition(ctx, id, payload.Comment, actor, func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error) {
		if !offerer.IsActive {
			return nil, "", newValidationError("L'entité juridique est déjà suspendue")
		}
		return map[string]interface{}{"is_active": false}, models.ActionOffererSuspended, nil
	})
}

func (s *offererService) Unsuspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.OffererResponse, error) {
	return s.transition(ctx, id, payload.Comment, actor, func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error) {
		if offerer.IsActive {
			return nil, "", newValidationError("L'entité juridique n'est pas suspendue")
		}
		return map[string]interface{}{"is_active": true}, models.ActionOffererUnsuspended, nil
	})
}

type offererTransition func(offerer models.Offerer) (map[string]interface{}, models.ActionType, error)

func (s *offererService) transition(ctx context.Context, id uint, comment string, actor ActivityActor, decide offererTransition) (dto.OffererResponse, error) {
	if err := s.validator.Struct(dto.CommentRequest{Comment: comment}); err != nil {
		return dto.OffererResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.OffererResponse{}, notFound(err, ErrOffererNotFound)
	}

	updates, actionType, err := decide(current)
	if err != nil {
		return dto.OffererResponse{}, err
	}

	action := newAction(actionType, actor, sanitizeComment(comment))
	action.OffererID = uintPtr(id)
	if reason, ok := updates["rejection_reason"].(models.OffererRejectionReason); ok {
		action.ExtraData = map[string]interface{}{"rejection_reason": string(reason)}
	}

	updated, err := s.repo.Update(ctx, id, updates, action)
	if err != nil {
		return dto.OffererResponse{}, notFound(err, ErrOffererNotFound)
	}

	s.logger.Info().
		Uint("offerer_id", id).
		Str("action", string(actionType)).
		Uint("author_id", actor.ID).
		Msg("offerer updated")

	syncCRM(ctx, s.crm, s.logger, crm.Event{Entity: crm.EntityOfferer, ID: id, Action: string(actionType)})

	return dto.NewOffererResponse(updated), nil
}
