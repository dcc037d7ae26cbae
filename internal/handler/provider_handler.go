package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// ProviderHandler exposes the synchronisation provider screen.
type ProviderHandler struct {
	service service.ProviderService
	logger  zerolog.Logger
}

// NewProviderHandler constructs the handler.
func NewProviderHandler(service service.ProviderService, logger zerolog.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		logger:  logger.With().Str("component", "provider_handler").Logger(),
	}
}

// Register attaches provider routes to the router group.
func (h *ProviderHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id", h.update)
}

func (h *ProviderHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.Search(c.Context(), dto.ProviderListRequest{ListRequest: paging, Query: c.Query("q")})
	if err != nil {
		return handleServiceError(c, h.logger, err, "search providers")
	}
	return utils.OK(c, response.Items, "providers retrieved", response.Pagination)
}

func (h *ProviderHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid provider id")
	}

	provider, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load provider")
	}
	return utils.SendSuccess(c, "provider retrieved", provider)
}

func (h *ProviderHandler) create(c *fiber.Ctx) error {
	var payload dto.ProviderRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	provider, err := h.service.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "create provider")
	}
	return respondMutation(c, providerLocation(provider.ID), "Fournisseur créé", provider)
}

func (h *ProviderHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid provider id")
	}

	var payload dto.ProviderRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	provider, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "update provider")
	}
	return respondMutation(c, providerLocation(id), "Fournisseur modifié", provider)
}

func providerLocation(id uint) string {
	return fmt.Sprintf("/backoffice/pro/providers/%d", id)
}
