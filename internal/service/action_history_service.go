package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
)

// ActionHistoryService lists the audit trail.
type ActionHistoryService interface {
	List(ctx context.Context, req dto.ActionHistoryListRequest) (dto.ActionHistoryListResponse, error)
	Record(ctx context.Context, entry *models.ActionHistory) error
}

type actionHistoryService struct {
	repo   repository.ActionHistoryRepository
	limits pagination.Limits
	logger zerolog.Logger
}

// NewActionHistoryService constructs the audit trail service.
func NewActionHistoryService(repo repository.ActionHistoryRepository, limits pagination.Limits, logger zerolog.Logger) ActionHistoryService {
	return &actionHistoryService{
		repo:   repo,
		limits: limits,
		logger: logger.With().Str("component", "action_history_service").Logger(),
	}
}

func (s *actionHistoryService) List(ctx context.Context, req dto.ActionHistoryListRequest) (dto.ActionHistoryListResponse, error) {
	filter := repository.ActionHistoryFilter{
		Params:     normalizeParams(s.limits, req.ListRequest),
		ActionType: strings.ToUpper(strings.TrimSpace(req.ActionType)),
	}

	var err error
	if filter.UserID, err = optionalID("user_id", req.UserID); err != nil {
		return dto.ActionHistoryListResponse{}, err
	}
	if filter.OffererID, err = optionalID("offerer_id", req.OffererID); err != nil {
		return dto.ActionHistoryListResponse{}, err
	}
	if filter.VenueID, err = optionalID("venue_id", req.VenueID); err != nil {
		return dto.ActionHistoryListResponse{}, err
	}

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActionHistoryListResponse{}, err
	}

	items := make([]dto.ActionHistoryResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, dto.NewActionHistoryResponse(entry))
	}
	return dto.ActionHistoryListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

// Record stores an entry outside of any business transaction. Failures are logged.
func (s *actionHistoryService) Record(ctx context.Context, entry *models.ActionHistory) error {
	if entry == nil {
		return nil
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action_type", string(entry.ActionType)).Msg("failed to record action")
		return err
	}
	return nil
}

func optionalID(field, raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, newFieldError(field, "identifiant invalide")
	}
	value := uint(id)
	return &value, nil
}
