package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

const ruleListPath = "/backoffice/offer-validation-rules"

// OfferValidationRuleHandler exposes the fraud rule screens.
type OfferValidationRuleHandler struct {
	service service.OfferValidationRuleService
	logger  zerolog.Logger
}

// NewOfferValidationRuleHandler constructs the handler.
func NewOfferValidationRuleHandler(service service.OfferValidationRuleService, logger zerolog.Logger) *OfferValidationRuleHandler {
	return &OfferValidationRuleHandler{
		service: service,
		logger:  logger.With().Str("component", "offer_validation_rule_handler").Logger(),
	}
}

// Register attaches rule routes to the router group.
func (h *OfferValidationRuleHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/offers/:offer_id/matching", h.matching)
	router.Get("/:id", h.get)
	router.Post("/:id", h.update)
	router.Post("/:id/delete", h.delete)
}

func (h *OfferValidationRuleHandler) list(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.service.List(c.Context(), dto.RuleListRequest{ListRequest: paging, Query: c.Query("q")})
	if err != nil {
		return handleServiceError(c, h.logger, err, "list rules")
	}
	return utils.OK(c, response.Items, "rules retrieved", response.Pagination)
}

func (h *OfferValidationRuleHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	rule, err := h.service.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load rule")
	}
	return utils.SendSuccess(c, "rule retrieved", rule)
}

func (h *OfferValidationRuleHandler) create(c *fiber.Ctx) error {
	var payload dto.RuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	rule, err := h.service.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "create rule")
	}
	return respondMutation(c, ruleLocation(rule.ID), fmt.Sprintf("Règle %s créée", rule.Name), rule)
}

func (h *OfferValidationRuleHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	var payload dto.RuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	rule, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "update rule")
	}
	return respondMutation(c, ruleLocation(id), fmt.Sprintf("Règle %s modifiée", rule.Name), rule)
}

func (h *OfferValidationRuleHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	if err := h.service.Delete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return handleServiceError(c, h.logger, err, "delete rule")
	}
	return respondMutation(c, ruleListPath, "La règle a été supprimée", fiber.Map{"id": id})
}

func (h *OfferValidationRuleHandler) matching(c *fiber.Ctx) error {
	offerID, err := parseUintParam(c, "offer_id")
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	response, err := h.service.MatchingForOffer(c.Context(), offerID)
	if err != nil {
		return handleServiceError(c, h.logger, err, "match rules")
	}
	return utils.SendSuccess(c, "matching rules retrieved", response)
}

func ruleLocation(id uint) string {
	return fmt.Sprintf("%s/%d", ruleListPath, id)
}
