package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
)

func TestProviderCreateAndUpdate(t *testing.T) {
	env := setupTestApp(t, "admin")

	resp := env.do(t, http.MethodPost, "/backoffice/pro/providers", map[string]interface{}{
		"name":                 "Billetterie Ouest",
		"enabled_for_pro":      true,
		"booking_external_url": "https://billetterie.example.com/book",
	}, fragment)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created dto.ProviderResponse
	require.NoError(t, json.Unmarshal(decodeResponse(t, resp).Data, &created))
	require.True(t, created.EnabledForPro)
	require.True(t, created.IsActive)

	resp = env.do(t, http.MethodPost, "/backoffice/pro/providers", map[string]interface{}{"name": "Billetterie Ouest"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeResponse(t, resp).Details, "name")

	path := fmt.Sprintf("/backoffice/pro/providers/%d", created.ID)
	resp = env.do(t, http.MethodPost, path, map[string]interface{}{"name": "Billetterie Ouest", "is_active": false}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, path, resp.Header.Get("Location"))

	var stored models.Provider
	require.NoError(t, env.db.First(&stored, created.ID).Error)
	require.False(t, stored.IsActive)

	resp = env.do(t, http.MethodGet, "/backoffice/pro/providers?q=ouest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []dto.ProviderResponse
	require.NoError(t, json.Unmarshal(decodeResponse(t, resp).Data, &items))
	require.Len(t, items, 1)
}
