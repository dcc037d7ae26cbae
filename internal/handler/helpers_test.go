package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/service"
)

func TestHandleServiceErrorStatuses(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"foreign key":   {fmt.Errorf("create incident: %w", gorm.ErrForeignKeyViolated), fiber.StatusBadRequest},
		"duplicate key": {fmt.Errorf("create provider: %w", gorm.ErrDuplicatedKey), fiber.StatusBadRequest},
		"not found":     {service.ErrVenueNotFound, fiber.StatusNotFound},
		"unexpected":    {fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/", func(c *fiber.Ctx) error {
				return handleServiceError(c, zerolog.Nop(), tc.err, "save")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
