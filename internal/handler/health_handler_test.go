package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice-api/internal/config"
	"github.com/noah-isme/backoffice-api/internal/handler"
)

func TestHealthCheckReportsFailingDependency(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "backoffice", AppEnv: "test"}, map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var payload struct {
		Data handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "degraded", payload.Data.Status)
	require.Equal(t, "ok", payload.Data.Checks["postgres"])
	require.Equal(t, "connection refused", payload.Data.Checks["redis"])
}

func TestHealthAndMetricsBypassAuth(t *testing.T) {
	env := setupTestApp(t, "pro")

	resp := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
