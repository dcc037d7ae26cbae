package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// ErrBookingNotFound indicates the booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// BookingService orchestrates booking search and cancellation.
type BookingService interface {
	List(ctx context.Context, req dto.BookingListRequest) (dto.BookingListResponse, error)
	Get(ctx context.Context, id uint) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id uint, payload dto.BookingCancelRequest, actor ActivityActor) (dto.BookingResponse, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.Validate
	cap       int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewBookingService constructs the booking service. Lists hold at most cap rows.
func NewBookingService(repo repository.BookingRepository, validator *validator.Validate, cap int, logger zerolog.Logger) BookingService {
	if cap <= 0 {
		cap = 25
	}
	return &bookingService{
		repo:      repo,
		validator: validator,
		cap:       cap,
		now:       time.Now,
		logger:    logger.With().Str("component", "booking_service").Logger(),
	}
}

func (s *bookingService) List(ctx context.Context, req dto.BookingListRequest) (dto.BookingListResponse, error) {
	offererIDs, err := search.ParseIDList("offerer_id", req.OffererIDs)
	if err != nil {
		return dto.BookingListResponse{}, fromFieldError(err)
	}
	venueIDs, err := search.ParseIDList("venue_id", req.VenueIDs)
	if err != nil {
		return dto.BookingListResponse{}, fromFieldError(err)
	}
	from, to, err := search.ParseDateRange("from", req.From, "to", req.To)
	if err != nil {
		return dto.BookingListResponse{}, fromFieldError(err)
	}
	collective, err := search.ParseBool("collective", req.Collective)
	if err != nil {
		return dto.BookingListResponse{}, fromFieldError(err)
	}

	filter := repository.BookingFilter{
		Query:      strings.TrimSpace(req.Query),
		Statuses:   search.SplitValues(req.Statuses...),
		OffererIDs: offererIDs,
		VenueIDs:   venueIDs,
		From:       from,
		To:         to,
		Collective: collective,
		Limit:      s.cap,
	}
	bounded, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.BookingListResponse{}, err
	}
	recordSearch("booking", false, int64(len(bounded.Items)))

	response := dto.BookingListResponse{
		Items:   make([]dto.BookingResponse, 0, len(bounded.Items)),
		Limit:   bounded.Limit,
		HasMore: bounded.HasMore,
	}
	for _, booking := range bounded.Items {
		response.Items = append(response.Items, dto.NewBookingResponse(booking))
	}
	if bounded.HasMore {
		response.Warning = fmt.Sprintf("Il y a plus de %d résultats dans la base de données, seuls les %d premiers sont affichés", bounded.Limit, bounded.Limit)
	}
	return response, nil
}

func (s *bookingService) Get(ctx context.Context, id uint) (dto.BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.BookingResponse{}, notFound(err, ErrBookingNotFound)
	}
	return dto.NewBookingResponse(booking), nil
}

func (s *bookingService) Cancel(ctx context.Context, id uint, payload dto.BookingCancelRequest, actor ActivityActor) (dto.BookingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BookingResponse{}, err
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.BookingResponse{}, notFound(err, ErrBookingNotFound)
	}
	if err := cancellable(booking); err != nil {
		return dto.BookingResponse{}, err
	}

	reason := models.BookingCancellationReason(payload.Reason)
	action := newAction(models.ActionBookingCancelled, actor, "")
	action.BookingID = uintPtr(booking.ID)
	action.VenueID = uintPtr(booking.VenueID)
	action.OffererID = uintPtr(booking.OffererID)
	action.ExtraData = map[string]interface{}{"reason": payload.Reason}

	if err := s.repo.Cancel(ctx, id, reason, s.now().UTC(), action); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			current, reloadErr := s.repo.GetByID(ctx, id)
			if reloadErr == nil {
				if err := cancellable(current); err != nil {
					return dto.BookingResponse{}, err
				}
			}
			return dto.BookingResponse{}, newValidationError("La réservation a été modifiée entre-temps, veuillez réessayer")
		}
		return dto.BookingResponse{}, err
	}

	s.logger.Info().
		Uint("booking_id", id).
		Str("reason", payload.Reason).
		Uint("author_id", actor.ID).
		Msg("booking cancelled")

	booking, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.BookingResponse{}, err
	}
	return dto.NewBookingResponse(booking), nil
}

func cancellable(booking models.Booking) error {
	switch booking.Status {
	case models.BookingStatusCancelled:
		return newValidationError("Impossible d'annuler une réservation déjà annulée")
	case models.BookingStatusReimbursed:
		if booking.IsCollective {
			return newValidationError("Impossible d'annuler une réservation collective déjà remboursée")
		}
		return newValidationError("Impossible d'annuler une réservation déjà remboursée")
	}
	return nil
}
