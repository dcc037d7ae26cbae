package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/backoffice-api/internal/utils"
)

// RequireRole admits requests whose author holds one of roles. A request that reached
// it without any author is unauthenticated rather than forbidden.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			allowed[normalized] = true
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(localAuthorRole).(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "backoffice author required")
		}
		if !allowed[role] {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
