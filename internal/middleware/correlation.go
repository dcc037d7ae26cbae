package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderCorrelationID carries the request identifier between the backoffice and its callers.
const HeaderCorrelationID = "X-Correlation-ID"

const (
	localCorrelationID   = "correlation_id"
	maxCorrelationLength = 128
)

// CorrelationID tags each request, reusing a sane incoming identifier.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderCorrelationID))
		if id == "" || len(id) > maxCorrelationLength {
			id = uuid.NewString()
		}
		c.Locals(localCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		return c.Next()
	}
}

// GetCorrelationID returns the identifier bound by CorrelationID.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	id, _ := c.Locals(localCorrelationID).(string)
	return id
}
