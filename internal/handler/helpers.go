package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/middleware"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

// HeaderHTMXRequest marks fragment requests that expect the updated row instead of a redirect.
const HeaderHTMXRequest = "HX-Request"

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// queryValues collects a multi-valued parameter, accepting both repeated keys and comma lists.
func queryValues(c *fiber.Ctx, key string) []string {
	var values []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		values = append(values, splitAndTrim(string(raw))...)
	}
	return values
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(parsed), nil
}

func listRequest(c *fiber.Ctx) (dto.ListRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid page")
	}
	perPage, err := parseQueryInt(c, "per_page")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid per_page")
	}
	return dto.ListRequest{Page: page, PerPage: perPage}, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isFragmentRequest(c *fiber.Ctx) bool {
	return strings.EqualFold(strings.TrimSpace(c.Get(HeaderHTMXRequest)), "true")
}

// respondMutation answers a successful form submission: a 303 to location for full page
// posts, the updated row for fragment requests.
func respondMutation(c *fiber.Ctx, location, message string, data interface{}) error {
	if isFragmentRequest(c) {
		return utils.SendSuccess(c, message, data)
	}
	return utils.SeeOther(c, location, utils.FlashSuccess, message)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return details
	}
	var domainErr *service.ValidationError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors) || service.IsValidation(err)
}

var notFoundErrors = []error{
	service.ErrOffererNotFound,
	service.ErrVenueNotFound,
	service.ErrUserNotFound,
	service.ErrBookingNotFound,
	service.ErrIncidentNotFound,
	service.ErrCashflowBatchNotFound,
	service.ErrReimbursementRuleNotFound,
	service.ErrRuleNotFound,
	service.ErrOfferNotFound,
	service.ErrProviderNotFound,
}

// handleServiceError maps service failures onto HTTP responses.
func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	switch {
	case isValidationError(err):
		message := "validation failed"
		var domainErr *service.ValidationError
		if errors.As(err, &domainErr) {
			message = domainErr.Message
		}
		return utils.Fail(c, fiber.StatusBadRequest, message, validationDetails(err))
	case isNotFound(err):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		requestLogger(logger, c).Warn().Err(err).Msg("integrity violation on " + action)
		return utils.SendError(c, fiber.StatusBadRequest, "Un élément référencé n'existe pas ou plus")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		requestLogger(logger, c).Warn().Err(err).Msg("integrity violation on " + action)
		return utils.SendError(c, fiber.StatusBadRequest, "Cet élément existe déjà")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("failed to " + action)
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func isNotFound(err error) bool {
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.SendError(c, fiber.StatusBadRequest, message)
}

// parseBody decodes a JSON or form body; an empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}
