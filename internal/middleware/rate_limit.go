package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/backoffice-api/internal/utils"
)

// RateLimit throttles a route group per backoffice author, or per client IP when the
// request carries no author.
func RateLimit(scope string, perWindow int, window time.Duration) fiber.Handler {
	if perWindow <= 0 {
		perWindow = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        perWindow,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals(localAuthorID).(uint); ok && id != 0 {
				return scope + ":author:" + strconv.FormatUint(uint64(id), 10)
			}
			return scope + ":ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		},
	})
}
