package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/utils"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
}

// Register attaches the middlewares shared by every route. Correlation runs first so
// the access log and the observability log carry the same identifier.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency} ${locals:" + localCorrelationID + "}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept,
			fiber.HeaderAuthorization, "HX-Request", HeaderCorrelationID,
		}, ", "),
		AllowMethods: "GET,POST,OPTIONS",
		ExposeHeaders: strings.Join([]string{
			fiber.HeaderLocation, utils.HeaderFlashCategory, utils.HeaderFlashMessage, HeaderCorrelationID,
		}, ", "),
	}))
}
