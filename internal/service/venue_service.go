package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
)

var (
	// ErrVenueNotFound indicates the venue does not exist.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrSameVenue is returned when a SIRET transfer targets its own source.
	ErrSameVenue = errors.New("source and target venues are identical")
)

// VenueService orchestrates venue search and SIRET transfers.
type VenueService interface {
	Search(ctx context.Context, req dto.VenueListRequest) (dto.VenueListResponse, error)
	Get(ctx context.Context, id uint) (dto.VenueResponse, error)
	Autocomplete(ctx context.Context, query string) ([]dto.AutocompleteItem, error)
	MoveSiret(ctx context.Context, sourceID uint, payload dto.MoveSiretRequest, actor ActivityActor) (dto.MoveSiretResponse, error)
}

type venueService struct {
	repo      repository.VenueRepository
	validator *validator.Validate
	limits    pagination.Limits
	cap       int
	now       func() time.Time
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewVenueService constructs the venue service.
func NewVenueService(repo repository.VenueRepository, validator *validator.Validate, limits pagination.Limits, cap int, logger zerolog.Logger) VenueService {
	return &venueService{
		repo:      repo,
		validator: validator,
		limits:    limits,
		cap:       autocompleteCap(cap),
		now:       time.Now,
		tracer:    otel.Tracer("github.com/noah-isme/backoffice-api/internal/service/venue"),
		logger:    logger.With().Str("component", "venue_service").Logger(),
	}
}

func (s *venueService) Search(ctx context.Context, req dto.VenueListRequest) (dto.VenueListResponse, error) {
	offererIDs, err := search.ParseIDList("offerer_id", req.OffererIDs)
	if err != nil {
		return dto.VenueListResponse{}, fromFieldError(err)
	}

	filter := repository.VenueFilter{
		Params:     normalizeParams(s.limits, req.ListRequest),
		Query:      strings.TrimSpace(req.Query),
		OffererIDs: offererIDs,
	}
	page, err := s.repo.Search(ctx, filter)
	if err != nil {
		return dto.VenueListResponse{}, err
	}
	recordSearch("venue", search.NewBuilder().Text(filter.Query, repository.VenueTextSpec).Empty(), page.TotalItems)

	items := make([]dto.VenueResponse, 0, len(page.Items))
	for _, venue := range page.Items {
		items = append(items, dto.NewVenueResponse(venue))
	}
	return dto.VenueListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *venueService) Get(ctx context.Context, id uint) (dto.VenueResponse, error) {
	venue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.VenueResponse{}, notFound(err, ErrVenueNotFound)
	}
	return dto.NewVenueResponse(venue), nil
}

func (s *venueService) Autocomplete(ctx context.Context, query string) ([]dto.AutocompleteItem, error) {
	venues, err := s.repo.Autocomplete(ctx, strings.TrimSpace(query), s.cap)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AutocompleteItem, 0, len(venues))
	for _, venue := range venues {
		text := venue.Name
		if venue.Siret != nil {
			text += " (" + *venue.Siret + ")"
		}
		items = append(items, dto.AutocompleteItem{ID: venue.ID, Text: text})
	}
	return items, nil
}

func (s *venueService) MoveSiret(ctx context.Context, sourceID uint, payload dto.MoveSiretRequest, actor ActivityActor) (dto.MoveSiretResponse, error) {
	ctx, span := s.tracer.Start(ctx, "venue.move_siret", trace.WithAttributes(
		attribute.Int64("source_venue_id", int64(sourceID)),
		attribute.Int64("target_venue_id", int64(payload.TargetVenueID)),
	))
	defer span.End()

	response, err := s.moveSiret(ctx, sourceID, payload, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return response, err
}

func (s *venueService) moveSiret(ctx context.Context, sourceID uint, payload dto.MoveSiretRequest, actor ActivityActor) (dto.MoveSiretResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MoveSiretResponse{}, err
	}
	if payload.TargetVenueID == sourceID {
		return dto.MoveSiretResponse{}, ErrSameVenue
	}

	source, err := s.repo.GetByID(ctx, sourceID)
	if err != nil {
		return dto.MoveSiretResponse{}, notFound(err, ErrVenueNotFound)
	}
	target, err := s.repo.GetByID(ctx, payload.TargetVenueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MoveSiretResponse{}, newFieldError("target_venue_id", "Le partenaire culturel cible n'existe pas")
		}
		return dto.MoveSiretResponse{}, err
	}

	if source.Siret == nil || *source.Siret != payload.Siret {
		return dto.MoveSiretResponse{}, newFieldError("siret", "Le SIRET "+payload.Siret+" ne correspond pas au partenaire culturel "+source.Name)
	}
	if source.OffererID != target.OffererID {
		return dto.MoveSiretResponse{}, newFieldError("target_venue_id", "Les deux partenaires culturels doivent appartenir à la même entité juridique")
	}
	if target.Siret != nil {
		return dto.MoveSiretResponse{}, newFieldError("target_venue_id", "Le partenaire culturel cible a déjà un SIRET")
	}
	if target.IsVirtual {
		return dto.MoveSiretResponse{}, newFieldError("target_venue_id", "Le partenaire culturel cible est un partenaire culturel numérique")
	}

	if !payload.OverrideRevenueCheck {
		now := s.now().UTC()
		since := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		revenue, err := s.repo.RevenueSince(ctx, source.ID, since)
		if err != nil {
			return dto.MoveSiretResponse{}, err
		}
		if revenue > 0 {
			return dto.MoveSiretResponse{}, newFieldError("override_revenue_check",
				"Le partenaire culturel source a un chiffre d'affaires de "+format.Amount(revenue)+" cette année")
		}
	}

	comment := sanitizeComment(payload.Comment)
	sourceInfo := map[string]interface{}{}
	modifiedInfo(sourceInfo, "siret", payload.Siret, nil)
	targetInfo := map[string]interface{}{}
	modifiedInfo(targetInfo, "siret", nil, payload.Siret)

	sourceAction := newAction(models.ActionInfoModified, actor, comment)
	sourceAction.VenueID = uintPtr(source.ID)
	sourceAction.OffererID = uintPtr(source.OffererID)
	sourceAction.ExtraData = map[string]interface{}{"modified_info": sourceInfo}

	targetAction := newAction(models.ActionInfoModified, actor, comment)
	targetAction.VenueID = uintPtr(target.ID)
	targetAction.OffererID = uintPtr(target.OffererID)
	targetAction.ExtraData = map[string]interface{}{"modified_info": targetInfo}

	move := repository.SiretMove{
		SourceID:      source.ID,
		TargetID:      target.ID,
		Siret:         payload.Siret,
		SourceComment: comment,
	}
	if err := s.repo.MoveSiret(ctx, move, sourceAction, targetAction); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MoveSiretResponse{}, newValidationError("Le SIRET a été modifié entre-temps, veuillez réessayer")
		}
		return dto.MoveSiretResponse{}, err
	}

	s.logger.Info().
		Uint("source_venue_id", source.ID).
		Uint("target_venue_id", target.ID).
		Uint("author_id", actor.ID).
		Bool("revenue_check_overridden", payload.OverrideRevenueCheck).
		Msg("siret moved")

	source, err = s.repo.GetByID(ctx, source.ID)
	if err != nil {
		return dto.MoveSiretResponse{}, err
	}
	target, err = s.repo.GetByID(ctx, target.ID)
	if err != nil {
		return dto.MoveSiretResponse{}, err
	}
	return dto.MoveSiretResponse{Source: dto.NewVenueResponse(source), Target: dto.NewVenueResponse(target)}, nil
}
