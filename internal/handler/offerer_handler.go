package handler

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// OffererHandler exposes the offerer screens.
type OffererHandler struct {
	service   service.OffererService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewOffererHandler constructs the handler.
func NewOffererHandler(service service.OffererService, validator *validator.Validate, logger zerolog.Logger) *OffererHandler {
	return &OffererHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "offerer_handler").Logger(),
	}
}

// Register attaches offerer routes to the router group.
func (h *OffererHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/validate", h.validate)
	router.Post("/:id/reject", h.reject)
	router.Post("/:id/pending", h.pending)
	router.Post("/:id/suspend", h.suspend)
	router.Post("/:id/unsuspend", h.unsuspend)
}

func (h *OffererHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.Search(c.Context(), dto.OffererListRequest{
		ListRequest: paging,
		Query:       c.Query("q"),
		Statuses:    queryValues(c, "status"),
		From:        c.Query("from"),
		To:          c.Query("to"),
		Active:      c.Query("active"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "search offerers")
	}

	return utils.OK(c, response.Items, "offerers retrieved", response.Pagination)
}

func (h *OffererHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid offerer id")
	}

	offerer, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load offerer")
	}
	return utils.SendSuccess(c, "offerer retrieved", offerer)
}

func (h *OffererHandler) validate(c *fiber.Ctx) error {
	return h.commentTransition(c, "Structure validée", h.service.Validate)
}

func (h *OffererHandler) pending(c *fiber.Ctx) error {
	return h.commentTransition(c, "Structure mise en attente", h.service.SetPending)
}

func (h *OffererHandler) suspend(c *fiber.Ctx) error {
	return h.commentTransition(c, "Structure suspendue", h.service.Suspend)
}

func (h *OffererHandler) unsuspend(c *fiber.Ctx) error {
	return h.commentTransition(c, "Structure réactivée", h.service.Unsuspend)
}

type offererCommentAction func(ctx context.Context, id uint, payload dto.CommentRequest, actor service.ActivityActor) (dto.OffererResponse, error)

func (h *OffererHandler) commentTransition(c *fiber.Ctx, message string, apply offererCommentAction) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid offerer id")
	}

	var payload dto.CommentRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	offerer, err := apply(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "update offerer status")
	}
	return respondMutation(c, offererLocation(id), message, offerer)
}

func (h *OffererHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid offerer id")
	}

	var payload dto.OffererRejectRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	offerer, err := h.service.Reject(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "reject offerer")
	}
	return respondMutation(c, offererLocation(id), "Structure rejetée", offerer)
}

func offererLocation(id uint) string {
	return fmt.Sprintf("/backoffice/pro/offerers/%d", id)
}
