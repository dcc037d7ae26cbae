package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// AutocompleteHandler serves the suggestion lists of offerer and venue pickers.
type AutocompleteHandler struct {
	offerers service.OffererService
	venues   service.VenueService
	logger   zerolog.Logger
}

// NewAutocompleteHandler constructs the handler.
func NewAutocompleteHandler(offerers service.OffererService, venues service.VenueService, logger zerolog.Logger) *AutocompleteHandler {
	return &AutocompleteHandler{
		offerers: offerers,
		venues:   venues,
		logger:   logger.With().Str("component", "autocomplete_handler").Logger(),
	}
}

// Register attaches autocomplete routes to the router group.
func (h *AutocompleteHandler) Register(router fiber.Router) {
	router.Get("/offerers", h.suggest("offerers", h.offerers.Autocomplete))
	router.Get("/venues", h.suggest("venues", h.venues.Autocomplete))
}

func (h *AutocompleteHandler) suggest(entity string, lookup func(context.Context, string) ([]dto.AutocompleteItem, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := lookup(c.Context(), c.Query("q"))
		if err != nil {
			return handleServiceError(c, h.logger, err, "autocomplete "+entity)
		}
		return utils.SendSuccess(c, entity+" suggestions", items)
	}
}
