package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/config"
	"github.com/noah-isme/backoffice-api/internal/handler"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/router"
	"github.com/noah-isme/backoffice-api/internal/service"
	"github.com/noah-isme/backoffice-api/pkg/taskqueue"
)

const testAdminID = uint(7)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

type apiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Details map[string]string `json:"details"`
}

func setupTestApp(t *testing.T, role string) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	queue, err := taskqueue.New(client, "backoffice:tasks", logger)
	require.NoError(t, err)

	validate := validator.New(validator.WithRequiredStructEnabled())
	limits := pagination.Limits{Default: 20, Max: 100}

	offererService := service.NewOffererService(repository.NewOffererRepository(db), nil, validate, limits, 0, logger)
	venueService := service.NewVenueService(repository.NewVenueRepository(db), validate, limits, 0, logger)
	userRepo := repository.NewUserRepository(db)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "backoffice-test", AutocompleteRateLimit: 100}, router.Dependencies{
		OffererHandler:        handler.NewOffererHandler(offererService, validate, logger),
		VenueHandler:          handler.NewVenueHandler(venueService, logger),
		PublicAccountHandler:  handler.NewPublicAccountHandler(service.NewUserService(userRepo, nil, validate, limits, service.PublicAccounts, logger), logger),
		BackofficeUserHandler: handler.NewBackofficeUserHandler(service.NewUserService(userRepo, nil, validate, limits, service.BackofficeUsers, logger), logger),
		BookingHandler:        handler.NewBookingHandler(service.NewBookingService(repository.NewBookingRepository(db), validate, 25, logger), logger),
		FinanceHandler: handler.NewFinanceHandler(
			service.NewFinanceService(
				repository.NewFinanceIncidentRepository(db),
				repository.NewBookingRepository(db),
				repository.NewCashflowBatchRepository(db),
				repository.NewActionHistoryRepository(db),
				queue, validate, limits, logger,
			),
			service.NewReimbursementRuleService(repository.NewCustomReimbursementRuleRepository(db), validate, limits, logger),
			logger,
		),
		OfferValidationRuleHandler: handler.NewOfferValidationRuleHandler(
			service.NewOfferValidationRuleService(repository.NewOfferValidationRuleRepository(db), repository.NewOfferRepository(db), validate, limits, logger),
			logger,
		),
		ProviderHandler:      handler.NewProviderHandler(service.NewProviderService(repository.NewProviderRepository(db), validate, limits, logger), logger),
		ActionHistoryHandler: handler.NewActionHistoryHandler(service.NewActionHistoryService(repository.NewActionHistoryRepository(db), limits, logger), logger),
		AutocompleteHandler:  handler.NewAutocompleteHandler(offererService, venueService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", testAdminID)
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return testEnv{app: app, db: db}
}

func (e testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()

	var payload apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

var fragment = map[string]string{handler.HeaderHTMXRequest: "true"}

func seedOfferer(t *testing.T, db *gorm.DB, name, siren string, status models.ValidationStatus) models.Offerer {
	t.Helper()
	offerer := models.Offerer{Name: name, Siren: siren, ValidationStatus: status}
	require.NoError(t, db.Create(&offerer).Error)
	return offerer
}

func seedVenue(t *testing.T, db *gorm.DB, offererID uint, name string, siret *string) models.Venue {
	t.Helper()
	venue := models.Venue{OffererID: offererID, Name: name, Siret: siret}
	require.NoError(t, db.Create(&venue).Error)
	return venue
}
