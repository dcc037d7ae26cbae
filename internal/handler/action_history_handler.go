package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// ActionHistoryHandler exposes the audit trail.
type ActionHistoryHandler struct {
	service service.ActionHistoryService
	logger  zerolog.Logger
}

// NewActionHistoryHandler constructs the handler.
func NewActionHistoryHandler(service service.ActionHistoryService, logger zerolog.Logger) *ActionHistoryHandler {
	return &ActionHistoryHandler{
		service: service,
		logger:  logger.With().Str("component", "action_history_handler").Logger(),
	}
}

// Register attaches audit routes to the router group.
func (h *ActionHistoryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActionHistoryHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.List(c.Context(), dto.ActionHistoryListRequest{
		ListRequest: paging,
		ActionType:  c.Query("action_type"),
		UserID:      c.Query("user_id"),
		OffererID:   c.Query("offerer_id"),
		VenueID:     c.Query("venue_id"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "list action history")
	}
	return utils.OK(c, response.Items, "action history retrieved", response.Pagination)
}
