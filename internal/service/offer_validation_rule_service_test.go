package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/rules"
)

func newRuleServiceForTest(t *testing.T) (OfferValidationRuleService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewOfferValidationRuleService(
		repository.NewOfferValidationRuleRepository(db),
		repository.NewOfferRepository(db),
		newTestValidator(),
		testLimits,
		nopLogger(),
	)
	return svc, db
}

func priceInput(operator rules.Operator, value float64) rules.Input {
	return rules.Input{Type: rules.TypePriceOffer, Operator: operator, DecimalField: &value}
}

func nameInput(keywords string) rules.Input {
	return rules.Input{Type: rules.TypeNameOffer, Operator: rules.OperatorContains, ListField: keywords}
}

func TestOfferValidationRuleServiceLifecycle(t *testing.T) {
	svc, db := newRuleServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.RuleRequest{
		Name:     "Prix élevés",
		SubRules: []rules.Input{priceInput(rules.OperatorGreaterThan, 300), nameInput("concert, Festival, concert")},
	}, testActor())
	require.NoError(t, err)
	require.Len(t, created.SubRules, 2)
	require.Equal(t, "PRICE_OFFER", created.SubRules[0].Type)
	require.Equal(t, []string{"concert", "Festival"}, created.SubRules[1].Comparated)

	action := lastAction(t, db, models.ActionRuleCreated)
	require.Equal(t, created.ID, *action.RuleID)
	info := action.ExtraData["sub_rules_info"].(map[string]interface{})
	require.Len(t, info["sub_rules_created"], 2)

	priceID := created.SubRules[0].ID
	nameID := created.SubRules[1].ID
	updatedPrice := priceInput(rules.OperatorGreaterThan, 500)
	updatedPrice.ID = &priceID
	updatedName := nameInput("concert")
	updatedName.ID = &nameID
	updatedName.Operator = rules.OperatorContainsExactly

	updated, err := svc.Update(ctx, created.ID, dto.RuleRequest{
		Name:     "Prix très élevés",
		SubRules: []rules.Input{updatedPrice, updatedName},
	}, testActor())
	require.NoError(t, err)
	require.Equal(t, "Prix très élevés", updated.Name)
	require.Equal(t, priceID, updated.SubRules[0].ID)
	require.Equal(t, float64(500), updated.SubRules[0].Comparated)
	require.NotEqual(t, nameID, updated.SubRules[1].ID)

	action = lastAction(t, db, models.ActionRuleModified)
	info = action.ExtraData["sub_rules_info"].(map[string]interface{})
	require.Len(t, info["sub_rules_modified"], 1)
	require.Len(t, info["sub_rules_deleted"], 1)
	require.Len(t, info["sub_rules_created"], 1)
	require.Contains(t, action.ExtraData, "modified_info")

	unchanged, err := svc.Update(ctx, created.ID, dto.RuleRequest{
		Name:     "Prix très élevés",
		SubRules: []rules.Input{withID(priceInput(rules.OperatorGreaterThan, 500), updated.SubRules[0].ID), withID(updatedName, updated.SubRules[1].ID)},
	}, testActor())
	require.NoError(t, err)
	require.Equal(t, updated.SubRules[1].ID, unchanged.SubRules[1].ID)
	require.Equal(t, int64(1), countActions(t, db, models.ActionRuleModified))

	require.NoError(t, svc.Delete(ctx, created.ID, testActor()))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrRuleNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID, testActor()), ErrRuleNotFound)

	action = lastAction(t, db, models.ActionRuleDeleted)
	info = action.ExtraData["sub_rules_info"].(map[string]interface{})
	require.Len(t, info["sub_rules_deleted"], 2)

	list, err := svc.List(ctx, dto.RuleListRequest{})
	require.NoError(t, err)
	require.Empty(t, list.Items)
}

func withID(input rules.Input, id uint) rules.Input {
	input.ID = &id
	return input
}

func TestOfferValidationRuleServiceCompileErrors(t *testing.T) {
	svc, _ := newRuleServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.RuleRequest{
		Name:     "Invalide",
		SubRules: []rules.Input{nameInput("x"), priceInput(rules.OperatorIn, 10)},
	}, testActor())
	requireValidation(t, err, "sub_rules[1].operator")

	_, err = svc.Create(ctx, dto.RuleRequest{
		Name:     "Vide",
		SubRules: []rules.Input{nameInput(" , ")},
	}, testActor())
	requireValidation(t, err, "sub_rules[0].list_field")

	_, err = svc.Create(ctx, dto.RuleRequest{Name: "Sans sous-règle"}, testActor())
	require.Error(t, err)
}

func TestOfferValidationRuleServiceMatchingForOffer(t *testing.T) {
	svc, db := newRuleServiceForTest(t)
	ctx := context.Background()

	offer := seedOffer(t, db, "Grand concert de rentrée", 45000)
	venueID := offer.VenueID

	matching, err := svc.Create(ctx, dto.RuleRequest{
		Name:     "Concerts chers",
		SubRules: []rules.Input{priceInput(rules.OperatorGreaterThan, 300), nameInput("concert")},
	}, testActor())
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.RuleRequest{
		Name:     "Autre lieu",
		SubRules: []rules.Input{{Type: rules.TypeIDVenue, Operator: rules.OperatorIn, VenueIDs: []uint{venueID + 100}}},
	}, testActor())
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.RuleRequest{
		Name:     "Livres",
		SubRules: []rules.Input{{Type: rules.TypeSubcategoryOffer, Operator: rules.OperatorNotIn, Subcategories: []string{"LIVRE_PAPIER"}}},
	}, testActor())
	require.NoError(t, err)

	result, err := svc.MatchingForOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, result.Rules, 1)
	require.Equal(t, matching.ID, result.Rules[0].ID)

	_, err = svc.MatchingForOffer(ctx, 999)
	require.ErrorIs(t, err, ErrOfferNotFound)
}
