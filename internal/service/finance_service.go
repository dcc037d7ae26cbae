package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/observability"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
	"github.com/noah-isme/backoffice-api/pkg/taskqueue"
)

// TaskGenerateInvoices is the queued task building the invoices of a cashflow batch.
const TaskGenerateInvoices = "generate_invoices"

var (
	// ErrIncidentNotFound indicates the finance incident does not exist.
	ErrIncidentNotFound = errors.New("finance incident not found")
	// ErrCashflowBatchNotFound indicates the cashflow batch does not exist.
	ErrCashflowBatchNotFound = errors.New("cashflow batch not found")
)

// TaskQueue is the background queue used for long running finance jobs.
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, payload map[string]interface{}) (taskqueue.Task, error)
	Pending(ctx context.Context) (int64, error)
}

// FinanceService orchestrates incidents, cashflow batches and invoice generation.
type FinanceService interface {
	ListIncidents(ctx context.Context, req dto.IncidentListRequest) (dto.IncidentListResponse, error)
	GetIncident(ctx context.Context, id uint) (dto.IncidentResponse, error)
	CreateIncident(ctx context.Context, payload dto.IncidentCreateRequest, actor ActivityActor) (dto.IncidentResponse, error)
	ValidateIncident(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.IncidentResponse, error)
	CancelIncident(ctx context.Context, id uint, payload dto.RequiredCommentRequest, actor ActivityActor) (dto.IncidentResponse, error)
	ListCashflowBatches(ctx context.Context, req dto.ListRequest) (dto.CashflowBatchListResponse, error)
	GenerateInvoices(ctx context.Context, payload dto.InvoiceGenerationRequest, actor ActivityActor) (dto.InvoiceGenerationStatus, error)
	InvoiceGenerationStatus(ctx context.Context) (dto.InvoiceGenerationStatus, error)
}

type financeService struct {
	incidents repository.FinanceIncidentRepository
	bookings  repository.BookingRepository
	batches   repository.CashflowBatchRepository
	actions   repository.ActionHistoryRepository
	queue     TaskQueue
	validator *validator.Validate
	limits    pagination.Limits
	logger    zerolog.Logger
}

// NewFinanceService constructs the finance service.
func NewFinanceService(
	incidents repository.FinanceIncidentRepository,
	bookings repository.BookingRepository,
	batches repository.CashflowBatchRepository,
	actions repository.ActionHistoryRepository,
	queue TaskQueue,
	validator *validator.Validate,
	limits pagination.Limits,
	logger zerolog.Logger,
) FinanceService {
	return &financeService{
		incidents: incidents,
		bookings:  bookings,
		batches:   batches,
		actions:   actions,
		queue:     queue,
		validator: validator,
		limits:    limits,
		logger:    logger.With().Str("component", "finance_service").Logger(),
	}
}

func (s *financeService) ListIncidents(ctx context.Context, req dto.IncidentListRequest) (dto.IncidentListResponse, error) {
	venueIDs, err := search.ParseIDList("venue_id", req.VenueIDs)
	if err != nil {
		return dto.IncidentListResponse{}, fromFieldError(err)
	}
	from, to, err := search.ParseDateRange("from", req.From, "to", req.To)
	if err != nil {
		return dto.IncidentListResponse{}, fromFieldError(err)
	}

	page, err := s.incidents.List(ctx, repository.FinanceIncidentFilter{
		Params:   normalizeParams(s.limits, req.ListRequest),
		Statuses: search.SplitValues(req.Statuses...),
		Kinds:    search.SplitValues(req.Kinds...),
		VenueIDs: venueIDs,
		From:     from,
		To:       to,
	})
	if err != nil {
		return dto.IncidentListResponse{}, err
	}
	recordSearch("finance_incident", false, page.TotalItems)

	items := make([]dto.IncidentResponse, 0, len(page.Items))
	for _, incident := range page.Items {
		items = append(items, dto.NewIncidentResponse(incident))
	}
	return dto.IncidentListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *financeService) GetIncident(ctx context.Context, id uint) (dto.IncidentResponse, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return dto.IncidentResponse{}, notFound(err, ErrIncidentNotFound)
	}
	return dto.NewIncidentResponse(incident), nil
}

func (s *financeService) CreateIncident(ctx context.Context, payload dto.IncidentCreateRequest, actor ActivityActor) (dto.IncidentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.IncidentResponse{}, err
	}

	bookingIDs := uniqueIDs(payload.BookingIDs)
	bookings, err := s.bookings.FindByIDs(ctx, bookingIDs)
	if err != nil {
		return dto.IncidentResponse{}, err
	}
	if len(bookings) != len(bookingIDs) {
		found := make(map[uint]struct{}, len(bookings))
		for _, booking := range bookings {
			found[booking.ID] = struct{}{}
		}
		var missing []uint
		for _, id := range bookingIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return dto.IncidentResponse{}, newFieldError("booking_ids", "Réservations introuvables : "+joinIDs(missing))
	}

	var links []models.BookingFinanceIncident
	for _, booking := range bookings {
		if booking.VenueID != payload.VenueID {
			return dto.IncidentResponse{}, newFieldError("booking_ids", "Toutes les réservations doivent appartenir au même partenaire culturel")
		}
		if booking.Status != models.BookingStatusReimbursed {
			return dto.IncidentResponse{}, newFieldError("booking_ids", "Seules les réservations remboursées peuvent faire l'objet d'un incident")
		}
		links = append(links, models.BookingFinanceIncident{BookingID: booking.ID, AmountCents: booking.TotalCents()})
	}

	already, err := s.incidents.BookingsInIncidents(ctx, bookingIDs)
	if err != nil {
		return dto.IncidentResponse{}, err
	}
	if len(already) > 0 {
		return dto.IncidentResponse{}, newFieldError("booking_ids", "Réservations déjà concernées par un incident : "+joinIDs(already))
	}

	comment := sanitizeComment(payload.Comment)
	incident := &models.FinanceIncident{
		Kind:             models.IncidentKindOverpayment,
		Status:           models.IncidentStatusCreated,
		VenueID:          payload.VenueID,
		Comment:          comment,
		BookingIncidents: links,
	}
	action := newAction(models.ActionFinanceIncidentCreated, actor, comment)
	action.VenueID = uintPtr(payload.VenueID)

	if err := s.incidents.Create(ctx, incident, action); err != nil {
		return dto.IncidentResponse{}, err
	}

	s.logger.Info().
		Uint("incident_id", incident.ID).
		Uint("venue_id", payload.VenueID).
		Int("bookings", len(links)).
		Int64("total_cents", incident.TotalCents()).
		Msg("finance incident created")

	return s.GetIncident(ctx, incident.ID)
}

func (s *financeService) ValidateIncident(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.IncidentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.IncidentResponse{}, err
	}
	return s.closeIncident(ctx, id, models.IncidentStatusValidated, models.ActionFinanceIncidentValidated, payload.Comment, actor)
}

func (s *financeService) CancelIncident(ctx context.Context, id uint, payload dto.RequiredCommentRequest, actor ActivityActor) (dto.IncidentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.IncidentResponse{}, err
	}
	return s.closeIncident(ctx, id, models.IncidentStatusCancelled, models.ActionFinanceIncidentCancelled, payload.Comment, actor)
}

func (s *financeService) closeIncident(ctx context.Context, id uint, status models.IncidentStatus, actionType models.ActionType, rawComment string, actor ActivityActor) (dto.IncidentResponse, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return dto.IncidentResponse{}, notFound(err, ErrIncidentNotFound)
	}
	if incident.Status != models.IncidentStatusCreated {
		return dto.IncidentResponse{}, newValidationError("L'incident a déjà été traité")
	}

	comment := sanitizeComment(rawComment)
	action := newAction(actionType, actor, comment)
	action.FinanceIncidentID = uintPtr(id)
	action.VenueID = uintPtr(incident.VenueID)

	err = s.incidents.UpdateStatus(ctx, id, models.IncidentStatusCreated, status, comment, action)
	switch {
	case errors.Is(err, repository.ErrStaleState):
		return dto.IncidentResponse{}, newValidationError("L'incident a déjà été traité")
	case err != nil:
		return dto.IncidentResponse{}, notFound(err, ErrIncidentNotFound)
	}

	s.logger.Info().Uint("incident_id", id).Str("status", string(status)).Uint("author_id", actor.ID).Msg("finance incident closed")
	return s.GetIncident(ctx, id)
}

func (s *financeService) ListCashflowBatches(ctx context.Context, req dto.ListRequest) (dto.CashflowBatchListResponse, error) {
	page, err := s.batches.List(ctx, normalizeParams(s.limits, req))
	if err != nil {
		return dto.CashflowBatchListResponse{}, err
	}
	items := make([]dto.CashflowBatchResponse, 0, len(page.Items))
	for _, batch := range page.Items {
		items = append(items, dto.CashflowBatchResponse{ID: batch.ID, Label: batch.Label, Cutoff: batch.Cutoff})
	}
	return dto.CashflowBatchListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

// GenerateInvoices queues the invoice job of a batch. Only one job runs at a time.
func (s *financeService) GenerateInvoices(ctx context.Context, payload dto.InvoiceGenerationRequest, actor ActivityActor) (dto.InvoiceGenerationStatus, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InvoiceGenerationStatus{}, err
	}
	batch, err := s.batches.GetByID(ctx, payload.BatchID)
	if err != nil {
		return dto.InvoiceGenerationStatus{}, notFound(err, ErrCashflowBatchNotFound)
	}

	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return dto.InvoiceGenerationStatus{}, err
	}
	if pending > 0 {
		return dto.InvoiceGenerationStatus{}, newValidationError("Une génération de justificatifs est déjà en cours")
	}

	task, err := s.queue.Enqueue(ctx, TaskGenerateInvoices, map[string]interface{}{
		"batch_id":    batch.ID,
		"batch_label": batch.Label,
	})
	if err != nil {
		return dto.InvoiceGenerationStatus{}, err
	}
	observability.TasksEnqueued().WithLabelValues(TaskGenerateInvoices).Inc()

	action := newAction(models.ActionInvoiceGenerationQueued, actor, "")
	action.ExtraData = map[string]interface{}{"batch_id": batch.ID, "batch_label": batch.Label, "task_id": task.ID}
	if err := s.actions.Create(ctx, action); err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to record invoice generation")
	}

	s.logger.Info().Uint("batch_id", batch.ID).Str("task_id", task.ID).Msg("invoice generation queued")
	return s.InvoiceGenerationStatus(ctx)
}

func (s *financeService) InvoiceGenerationStatus(ctx context.Context) (dto.InvoiceGenerationStatus, error) {
	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return dto.InvoiceGenerationStatus{}, err
	}
	return dto.InvoiceGenerationStatus{InProgress: pending > 0, Pending: pending}, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ", ")
}
