package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
)

// ErrProviderNotFound indicates the provider does not exist.
var ErrProviderNotFound = errors.New("provider not found")

const providerNameTaken = "Un fournisseur avec ce nom existe déjà"

// ProviderService manages synchronisation providers.
type ProviderService interface {
	Search(ctx context.Context, req dto.ProviderListRequest) (dto.ProviderListResponse, error)
	Get(ctx context.Context, id uint) (dto.ProviderResponse, error)
	Create(ctx context.Context, payload dto.ProviderRequest, actor ActivityActor) (dto.ProviderResponse, error)
	Update(ctx context.Context, id uint, payload dto.ProviderRequest, actor ActivityActor) (dto.ProviderResponse, error)
}

type providerService struct {
	repo      repository.ProviderRepository
	validator *validator.Validate
	limits    pagination.Limits
	logger    zerolog.Logger
}

// NewProviderService constructs the provider service.
func NewProviderService(repo repository.ProviderRepository, validator *validator.Validate, limits pagination.Limits, logger zerolog.Logger) ProviderService {
	return &providerService{
		repo:      repo,
		validator: validator,
		limits:    limits,
		logger:    logger.With().Str("component", "provider_service").Logger(),
	}
}

func (s *providerService) Search(ctx context.Context, req dto.ProviderListRequest) (dto.ProviderListResponse, error) {
	page, err := s.repo.Search(ctx, repository.ProviderFilter{
		Params: normalizeParams(s.limits, req.ListRequest),
		Query:  strings.TrimSpace(req.Query),
	})
	if err != nil {
		return dto.ProviderListResponse{}, err
	}

	items := make([]dto.ProviderResponse, 0, len(page.Items))
	for _, provider := range page.Items {
		items = append(items, dto.NewProviderResponse(provider))
	}
	return dto.ProviderListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *providerService) Get(ctx context.Context, id uint) (dto.ProviderResponse, error) {
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProviderResponse{}, notFound(err, ErrProviderNotFound)
	}
	return dto.NewProviderResponse(provider), nil
}

func (s *providerService) Create(ctx context.Context, payload dto.ProviderRequest, actor ActivityActor) (dto.ProviderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProviderResponse{}, err
	}
	name := strings.TrimSpace(payload.Name)
	if err := s.checkName(ctx, name, 0); err != nil {
		return dto.ProviderResponse{}, err
	}

	provider := &models.Provider{
		Name:                    name,
		IsActive:                true,
		BookingExternalURL:      payload.BookingExternalURL,
		CancelExternalURL:       payload.CancelExternalURL,
		NotificationExternalURL: payload.NotificationExternalURL,
	}
	if payload.EnabledForPro != nil {
		provider.EnabledForPro = *payload.EnabledForPro
	}
	if payload.IsActive != nil {
		provider.IsActive = *payload.IsActive
	}

	action := newAction(models.ActionProviderCreated, actor, "")
	if err := s.repo.Create(ctx, provider, action); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ProviderResponse{}, newFieldError("name", providerNameTaken)
		}
		return dto.ProviderResponse{}, err
	}

	s.logger.Info().Uint("provider_id", provider.ID).Str("name", provider.Name).Msg("provider created")
	return dto.NewProviderResponse(*provider), nil
}

func (s *providerService) Update(ctx context.Context, id uint, payload dto.ProviderRequest, actor ActivityActor) (dto.ProviderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProviderResponse{}, err
	}
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProviderResponse{}, notFound(err, ErrProviderNotFound)
	}

	name := strings.TrimSpace(payload.Name)
	if name != provider.Name {
		if err := s.checkName(ctx, name, id); err != nil {
			return dto.ProviderResponse{}, err
		}
	}

	info := map[string]interface{}{}
	setString := func(field string, target *string, value string) {
		if *target != value {
			modifiedInfo(info, field, *target, value)
			*target = value
		}
	}
	setBool := func(field string, target *bool, value *bool) {
		if value != nil && *target != *value {
			modifiedInfo(info, field, *target, *value)
			*target = *value
		}
	}
	setString("name", &provider.Name, name)
	setBool("enabled_for_pro", &provider.EnabledForPro, payload.EnabledForPro)
	setBool("is_active", &provider.IsActive, payload.IsActive)
	setString("booking_external_url", &provider.BookingExternalURL, payload.BookingExternalURL)
	setString("cancel_external_url", &provider.CancelExternalURL, payload.CancelExternalURL)
	setString("notification_external_url", &provider.NotificationExternalURL, payload.NotificationExternalURL)

	if len(info) == 0 {
		return dto.NewProviderResponse(provider), nil
	}

	action := newAction(models.ActionProviderModified, actor, "")
	action.ExtraData = map[string]interface{}{"provider_id": provider.ID, "modified_info": info}
	if err := s.repo.Save(ctx, &provider, action); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ProviderResponse{}, newFieldError("name", providerNameTaken)
		}
		return dto.ProviderResponse{}, err
	}

	s.logger.Info().Uint("provider_id", id).Int("fields", len(info)).Msg("provider updated")
	return dto.NewProviderResponse(provider), nil
}

func (s *providerService) checkName(ctx context.Context, name string, excludeID uint) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return newFieldError("name", providerNameTaken)
	}
	return nil
}
