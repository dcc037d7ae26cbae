package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
)

func ruleBody(name string, price float64, keywords string) map[string]interface{} {
	return map[string]interface{}{
		"name": name,
		"sub_rules": []map[string]interface{}{
			{"sub_rule_type": "PRICE_OFFER", "operator": "GREATER_THAN", "decimal_field": price},
			{"sub_rule_type": "NAME_OFFER", "operator": "CONTAINS", "list_field": keywords},
		},
	}
}

func TestOfferValidationRuleContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "offer_validation_rule.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	env := setupTestApp(t, "admin")
	resp := env.do(t, http.MethodPost, "/backoffice/offer-validation-rules", ruleBody("Prix élevés", 300, "concert, festival"), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)

	resp = env.do(t, http.MethodGet, location, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestOfferValidationRuleEditAndDelete(t *testing.T) {
	env := setupTestApp(t, "admin")

	resp := env.do(t, http.MethodPost, "/backoffice/offer-validation-rules", ruleBody("Prix élevés", 300, "concert"), fragment)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created dto.RuleResponse
	require.NoError(t, json.Unmarshal(decodeResponse(t, resp).Data, &created))
	require.Len(t, created.SubRules, 2)
	require.NotNil(t, created.LatestAuthorID)
	require.Equal(t, testAdminID, *created.LatestAuthorID)

	edit := map[string]interface{}{
		"name": "Prix élevés",
		"sub_rules": []map[string]interface{}{
			{"id": created.SubRules[0].ID, "sub_rule_type": "PRICE_OFFER", "operator": "GREATER_THAN", "decimal_field": 500},
		},
	}
	path := fmt.Sprintf("/backoffice/offer-validation-rules/%d", created.ID)
	resp = env.do(t, http.MethodPost, path, edit, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var modified models.ActionHistory
	require.NoError(t, env.db.Where("action_type = ?", models.ActionRuleModified).First(&modified).Error)
	info := modified.ExtraData["sub_rules_info"].(map[string]interface{})
	require.Len(t, info["sub_rules_modified"], 1)
	require.Len(t, info["sub_rules_deleted"], 1)

	resp = env.do(t, http.MethodPost, path+"/delete", nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/backoffice/offer-validation-rules", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOfferValidationRuleRejectsOperatorOutsideType(t *testing.T) {
	env := setupTestApp(t, "admin")

	body := map[string]interface{}{
		"name": "Mauvais opérateur",
		"sub_rules": []map[string]interface{}{
			{"sub_rule_type": "PRICE_OFFER", "operator": "CONTAINS", "decimal_field": 10},
		},
	}
	resp := env.do(t, http.MethodPost, "/backoffice/offer-validation-rules", body, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := decodeResponse(t, resp)
	require.NotEmpty(t, payload.Details)
}

func TestOfferValidationRuleMatching(t *testing.T) {
	env := setupTestApp(t, "admin")
	fixture := seedBookingFixture(t, env.db, "800000001")
	expensive := models.Offer{VenueID: fixture.venue.ID, Name: "Grand concert de gala", PriceCents: 45000}
	require.NoError(t, env.db.Create(&expensive).Error)

	resp := env.do(t, http.MethodPost, "/backoffice/offer-validation-rules", ruleBody("Galas chers", 300, "gala"), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/backoffice/offer-validation-rules/offers/%d/matching", expensive.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matching dto.MatchingRulesResponse
	require.NoError(t, json.Unmarshal(decodeResponse(t, resp).Data, &matching))
	require.Len(t, matching.Rules, 1)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/backoffice/offer-validation-rules/offers/%d/matching", fixture.offer.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decodeResponse(t, resp).Data, &matching))
	require.Empty(t, matching.Rules)

	resp = env.do(t, http.MethodGet, "/backoffice/offer-validation-rules/offers/9999/matching", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
