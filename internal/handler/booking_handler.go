package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// BookingHandler exposes the booking screen.
type BookingHandler struct {
	service service.BookingService
	logger  zerolog.Logger
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(service service.BookingService, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger.With().Str("component", "booking_handler").Logger(),
	}
}

// Register attaches booking routes to the router group.
func (h *BookingHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/cancel", h.cancel)
}

func (h *BookingHandler) list(c *fiber.Ctx) error {
	response, err := h.service.List(c.Context(), dto.BookingListRequest{
		Query:      c.Query("q"),
		Statuses:   queryValues(c, "status"),
		OffererIDs: c.Query("offerer_id"),
		VenueIDs:   c.Query("venue_id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Collective: c.Query("collective"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "list bookings")
	}

	message := "bookings retrieved"
	if response.Warning != "" {
		message = response.Warning
	}
	return utils.SendSuccess(c, message, response)
}

func (h *BookingHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid booking id")
	}

	booking, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load booking")
	}
	return utils.SendSuccess(c, "booking retrieved", booking)
}

func (h *BookingHandler) cancel(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid booking id")
	}

	var payload dto.BookingCancelRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	booking, err := h.service.Cancel(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "cancel booking")
	}
	return respondMutation(c, "/backoffice/bookings", "La réservation a été annulée", booking)
}
