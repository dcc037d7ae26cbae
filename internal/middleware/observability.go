package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/observability"
	"github.com/noah-isme/backoffice-api/internal/utils"
)

const backofficePrefix = "/backoffice"

// Observability records metrics and one structured log line per backoffice request.
// Health and scrape endpoints are left out.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), backofficePrefix) {
			return err
		}
		elapsed := time.Since(start)

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.BackofficeRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.BackofficeLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.BackofficeErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		level := zerolog.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zerolog.WarnLevel
		}

		author, _ := c.Locals(localAuthorID).(uint)
		logger.WithLevel(level).
			Str("correlation_id", GetCorrelationID(c)).
			Str("screen", screenOf(c.Path())).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Uint("author_id", author).
			Bool("fragment", strings.EqualFold(c.Get("HX-Request"), "true")).
			Str("flash", string(c.Response().Header.Peek(utils.HeaderFlashCategory))).
			Dur("latency", elapsed).
			Msg("backoffice request")

		return err
	}
}

// screenOf names the business area of a backoffice path, e.g. "pro/offerers" or "bookings".
func screenOf(path string) string {
	rest := strings.Trim(strings.TrimPrefix(path, backofficePrefix), "/")
	parts := strings.SplitN(rest, "/", 3)
	switch {
	case len(parts) == 0 || parts[0] == "":
		return "home"
	case (parts[0] == "pro" || parts[0] == "admin") && len(parts) > 1:
		return parts[0] + "/" + parts[1]
	default:
		return parts[0]
	}
}
