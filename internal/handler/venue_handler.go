package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// VenueHandler exposes the venue screens.
type VenueHandler struct {
	service service.VenueService
	logger  zerolog.Logger
}

// NewVenueHandler constructs the handler.
func NewVenueHandler(service service.VenueService, logger zerolog.Logger) *VenueHandler {
	return &VenueHandler{
		service: service,
		logger:  logger.With().Str("component", "venue_handler").Logger(),
	}
}

// Register attaches venue routes to the router group.
func (h *VenueHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/move-siret", h.moveSiret)
}

func (h *VenueHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.Search(c.Context(), dto.VenueListRequest{
		ListRequest: paging,
		Query:       c.Query("q"),
		OffererIDs:  c.Query("offerer_id"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "search venues")
	}

	return utils.OK(c, response.Items, "venues retrieved", response.Pagination)
}

func (h *VenueHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid venue id")
	}

	venue, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load venue")
	}
	return utils.SendSuccess(c, "venue retrieved", venue)
}

func (h *VenueHandler) moveSiret(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid venue id")
	}

	var payload dto.MoveSiretRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	result, err := h.service.MoveSiret(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrSameVenue) {
			return utils.SeeOther(c, venueLocation(id), utils.FlashWarning,
				"Le partenaire culturel source et le partenaire culturel cible doivent être différents")
		}
		return handleServiceError(c, h.logger, err, "move siret")
	}

	return respondMutation(c, venueLocation(result.Target.ID), "Le SIRET a été transféré", result)
}

func venueLocation(id uint) string {
	return fmt.Sprintf("/backoffice/pro/venues/%d", id)
}
