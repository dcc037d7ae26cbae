package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// FinanceHandler exposes incidents, cashflow batches, invoice generation and custom
// reimbursement rules.
type FinanceHandler struct {
	finance service.FinanceService
	rules   service.ReimbursementRuleService
	logger  zerolog.Logger
}

// NewFinanceHandler constructs the handler.
func NewFinanceHandler(finance service.FinanceService, rules service.ReimbursementRuleService, logger zerolog.Logger) *FinanceHandler {
	return &FinanceHandler{
		finance: finance,
		rules:   rules,
		logger:  logger.With().Str("component", "finance_handler").Logger(),
	}
}

// Register attaches finance routes to the router group.
func (h *FinanceHandler) Register(router fiber.Router) {
	incidents := router.Group("/incidents")
	incidents.Get("", h.listIncidents)
	incidents.Post("", h.createIncident)
	incidents.Get("/:id", h.getIncident)
	incidents.Post("/:id/validate", h.validateIncident)
	incidents.Post("/:id/cancel", h.cancelIncident)

	router.Get("/cashflow-batches", h.listBatches)
	router.Post("/invoices/generate", h.generateInvoices)
	router.Get("/invoices/generation-status", h.generationStatus)

	rules := router.Group("/custom-reimbursement-rules")
	rules.Get("", h.listRules)
	rules.Post("", h.createRule)
	rules.Post("/:id", h.updateRule)
}

func (h *FinanceHandler) listIncidents(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.finance.ListIncidents(c.Context(), dto.IncidentListRequest{
		ListRequest: paging,
		Statuses:    queryValues(c, "status"),
		Kinds:       queryValues(c, "kind"),
		VenueIDs:    c.Query("venue_id"),
		From:        c.Query("from"),
		To:          c.Query("to"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "list incidents")
	}
	return utils.OK(c, response.Items, "incidents retrieved", response.Pagination)
}

func (h *FinanceHandler) getIncident(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid incident id")
	}

	incident, err := h.finance.GetIncident(c.Context(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "load incident")
	}
	return utils.SendSuccess(c, "incident retrieved", incident)
}

func (h *FinanceHandler) createIncident(c *fiber.Ctx) error {
	var payload dto.IncidentCreateRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	incident, err := h.finance.CreateIncident(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "create incident")
	}
	return respondMutation(c, incidentLocation(incident.ID), "L'incident a été créé", incident)
}

func (h *FinanceHandler) validateIncident(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid incident id")
	}

	var payload dto.CommentRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	incident, err := h.finance.ValidateIncident(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "validate incident")
	}
	return respondMutation(c, incidentLocation(id), "L'incident a été validé", incident)
}

func (h *FinanceHandler) cancelIncident(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid incident id")
	}

	var payload dto.RequiredCommentRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	incident, err := h.finance.CancelIncident(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "cancel incident")
	}
	return respondMutation(c, incidentLocation(id), "L'incident a été annulé", incident)
}

func (h *FinanceHandler) listBatches(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.finance.ListCashflowBatches(c.Context(), paging)
	if err != nil {
		return handleServiceError(c, h.logger, err, "list cashflow batches")
	}
	return utils.OK(c, response.Items, "cashflow batches retrieved", response.Pagination)
}

func (h *FinanceHandler) generateInvoices(c *fiber.Ctx) error {
	var payload dto.InvoiceGenerationRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	status, err := h.finance.GenerateInvoices(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "generate invoices")
	}
	return respondMutation(c, "/backoffice/finance/cashflow-batches", "La génération des justificatifs a été lancée", status)
}

func (h *FinanceHandler) generationStatus(c *fiber.Ctx) error {
	status, err := h.finance.InvoiceGenerationStatus(c.Context())
	if err != nil {
		return handleServiceError(c, h.logger, err, "read invoice generation status")
	}
	return utils.SendSuccess(c, "invoice generation status", status)
}

func (h *FinanceHandler) listRules(c *fiber.Ctx) error {
	paging, err := listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.rules.List(c.Context(), dto.ReimbursementRuleListRequest{
		ListRequest: paging,
		OffererIDs:  c.Query("offerer_id"),
		VenueIDs:    c.Query("venue_id"),
	})
	if err != nil {
		return handleServiceError(c, h.logger, err, "list custom reimbursement rules")
	}
	return utils.OK(c, response.Items, "custom reimbursement rules retrieved", response.Pagination)
}

func (h *FinanceHandler) createRule(c *fiber.Ctx) error {
	var payload dto.ReimbursementRuleCreateRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	rule, err := h.rules.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "create custom reimbursement rule")
	}
	return respondMutation(c, "/backoffice/finance/custom-reimbursement-rules", "Le tarif dérogatoire a été créé", rule)
}

func (h *FinanceHandler) updateRule(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	var payload dto.ReimbursementRuleUpdateRequest
	if err := parseBody(c, &payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	rule, err := h.rules.UpdateEnd(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "update custom reimbursement rule")
	}
	return respondMutation(c, "/backoffice/finance/custom-reimbursement-rules", "Le tarif dérogatoire a été modifié", rule)
}

func incidentLocation(id uint) string {
	return fmt.Sprintf("/backoffice/finance/incidents/%d", id)
}
