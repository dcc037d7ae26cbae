package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// UserHandler exposes an account screen. The same handler serves public accounts and
// backoffice users; only the former can be suspended from here.
type UserHandler struct {
	service      service.UserService
	basePath     string
	allowSuspend bool
	logger       zerolog.Logger
}

// NewPublicAccountHandler serves beneficiary and pro accounts.
func NewPublicAccountHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return newUserHandler(service, "/backoffice/public-accounts", true, logger)
}

// NewBackofficeUserHandler serves admin accounts.
func NewBackofficeUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return newUserHandler(service, "/backoffice/admin/bo-users", false, logger)
}

func newUserHandler(service service.UserService, basePath string, allowSuspend bool, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service:      service,
		basePath:     basePath,
		allowSuspend: allowSuspend,
		logger:       logger.With().Str("component", "user_handler").Str("path", basePath).Logger(),
	}
}

// Register attaches account routes to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id", h.update)
	if h.allowSuspend {
		router.Post("/:id/suspend", h.suspend)
		router.Post("/:id/unsuspend", h.unsuspend)
	}
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.Search(c.Context(), dto.UserListRequest{
		ListRequest: paging,
		Query:       c.Query("q"),
		Active:      c.Query("active"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "search users")
	}

	return utils.OK(c, response.Items, "users retrieved", response.Pagination)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	user, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load user")
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var payload dto.UserUpdateRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	user, err := h.service.UpdateInfo(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "update user")
	}
	return respondMutation(c, h.location(id), "Informations mises à jour", user)
}

func (h *UserHandler) suspend(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var payload dto.UserSuspendRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	user, err := h.service.Suspend(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "suspend user")
	}
	return respondMutation(c, h.location(id), "Compte suspendu", user)
}

func (h *UserHandler) unsuspend(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var payload dto.CommentRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	user, err := h.service.Unsuspend(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "unsuspend user")
	}
	return respondMutation(c, h.location(id), "Compte réactivé", user)
}

func (h *UserHandler) location(id uint) string {
	return fmt.Sprintf("%s/%d", h.basePath, id)
}
