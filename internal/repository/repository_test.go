package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func strPtr(value string) *string {
	return &value
}

func uintPtr(value uint) *uint {
	return &value
}

func countActions(t *testing.T, db *gorm.DB, actionType models.ActionType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ActionHistory{}).Where("action_type = ?", actionType).Count(&count).Error)
	return count
}

func TestActionHistoryRepositoryListsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActionHistoryRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.ActionHistory{ActionType: models.ActionOffererValidated, ActionDate: base, OffererID: uintPtr(1)}))
	require.NoError(t, repo.Create(ctx, &models.ActionHistory{ActionType: models.ActionOffererRejected, ActionDate: base.Add(time.Hour), OffererID: uintPtr(1)}))
	require.NoError(t, repo.Create(ctx, &models.ActionHistory{ActionType: models.ActionUserSuspended, ActionDate: base.Add(2 * time.Hour), UserID: uintPtr(7)}))

	page, err := repo.List(ctx, ActionHistoryFilter{Params: pagination.Params{Page: 1, PerPage: 10}, OffererID: uintPtr(1)})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalItems)
	require.Equal(t, models.ActionOffererRejected, page.Items[0].ActionType)

	page, err = repo.List(ctx, ActionHistoryFilter{Params: pagination.Params{Page: 1, PerPage: 10}, ActionType: string(models.ActionUserSuspended)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, uint(7), *page.Items[0].UserID)
}

func TestOffererRepositorySearchAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOffererRepository(db)
	ctx := context.Background()

	seed := []models.Offerer{
		{Name: "Librairie Été", Siren: "123456789", ValidationStatus: models.ValidationStatusNew},
		{Name: "Cinéma Lumière", Siren: "123999999", ValidationStatus: models.ValidationStatusValidated},
		{Name: "Opéra", Siren: "987654321", ValidationStatus: models.ValidationStatusPending},
	}
	require.NoError(t, db.Create(&seed).Error)
	require.NoError(t, db.Create(&models.Venue{OffererID: seed[0].ID, Name: "Zèbre", Siret: strPtr("12345678900011")}).Error)
	require.NoError(t, db.Create(&models.Venue{OffererID: seed[0].ID, Name: "Atelier"}).Error)

	params := pagination.Params{Page: 1, PerPage: 20}

	page, err := repo.Search(ctx, OffererFilter{Params: params, Query: "123"})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalItems)

	page, err = repo.Search(ctx, OffererFilter{Params: params, Query: "123", Statuses: []string{string(models.ValidationStatusNew)}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, seed[0].ID, page.Items[0].ID)

	page, err = repo.Search(ctx, OffererFilter{Params: params, Query: "op"})
	require.NoError(t, err)
	require.Zero(t, page.TotalItems, "short term must not query")

	page, err = repo.Search(ctx, OffererFilter{Params: params, Query: "ete"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	offerer, err := repo.GetByID(ctx, seed[0].ID)
	require.NoError(t, err)
	require.Len(t, offerer.Venues, 2)
	require.Equal(t, "Atelier", offerer.Venues[0].Name)

	action := &models.ActionHistory{ActionType: models.ActionOffererValidated, OffererID: &seed[0].ID}
	updated, err := repo.Update(ctx, seed[0].ID, map[string]interface{}{"validation_status": models.ValidationStatusValidated}, action)
	require.NoError(t, err)
	require.Equal(t, models.ValidationStatusValidated, updated.ValidationStatus)
	require.Equal(t, int64(1), countActions(t, db, models.ActionOffererValidated))

	_, err = repo.Update(ctx, 999, map[string]interface{}{"validation_status": models.ValidationStatusValidated}, &models.ActionHistory{ActionType: models.ActionOffererValidated})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Equal(t, int64(1), countActions(t, db, models.ActionOffererValidated))
}

func TestVenueRepositoryMoveSiret(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVenueRepository(db)
	ctx := context.Background()

	offerer := models.Offerer{Name: "Compagnie", Siren: "111222333", ValidationStatus: models.ValidationStatusValidated}
	require.NoError(t, db.Create(&offerer).Error)
	source := models.Venue{OffererID: offerer.ID, Name: "Salle A", Siret: strPtr("11122233300011")}
	target := models.Venue{OffererID: offerer.ID, Name: "Salle B"}
	occupied := models.Venue{OffererID: offerer.ID, Name: "Salle C", Siret: strPtr("11122233300029")}
	require.NoError(t, db.Create(&source).Error)
	require.NoError(t, db.Create(&target).Error)
	require.NoError(t, db.Create(&occupied).Error)

	err := repo.MoveSiret(ctx, SiretMove{SourceID: source.ID, TargetID: occupied.ID, Siret: "11122233300011", SourceComment: "x"},
		&models.ActionHistory{ActionType: models.ActionInfoModified, VenueID: &source.ID})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reloaded, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Siret, "failed move must roll back")
	require.Zero(t, countActions(t, db, models.ActionInfoModified))

	err = repo.MoveSiret(ctx, SiretMove{SourceID: source.ID, TargetID: target.ID, Siret: "11122233300011", SourceComment: "SIRET déplacé"},
		&models.ActionHistory{ActionType: models.ActionInfoModified, VenueID: &source.ID},
		&models.ActionHistory{ActionType: models.ActionInfoModified, VenueID: &target.ID})
	require.NoError(t, err)

	reloaded, err = repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.Siret)
	require.Equal(t, "SIRET déplacé", reloaded.Comment)
	require.NotNil(t, reloaded.Offerer)

	moved, err := repo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, "11122233300011", *moved.Siret)
	require.Equal(t, int64(2), countActions(t, db, models.ActionInfoModified))
}

func TestVenueRepositoryRevenueSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVenueRepository(db)
	ctx := context.Background()

	yearStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	used := yearStart.AddDate(0, 2, 0)
	lastYear := yearStart.AddDate(0, -1, 0)

	bookings := []models.Booking{
		{Token: "AAAAAA", OfferID: 1, VenueID: 5, OffererID: 1, Quantity: 2, AmountCents: 1000, Status: models.BookingStatusUsed, DateUsed: &used},
		{Token: "BBBBBB", OfferID: 1, VenueID: 5, OffererID: 1, Quantity: 1, AmountCents: 700, Status: models.BookingStatusReimbursed, DateUsed: &used},
		{Token: "CCCCCC", OfferID: 1, VenueID: 5, OffererID: 1, Quantity: 1, AmountCents: 900, Status: models.BookingStatusUsed, DateUsed: &lastYear},
		{Token: "DDDDDD", OfferID: 1, VenueID: 5, OffererID: 1, Quantity: 1, AmountCents: 500, Status: models.BookingStatusConfirmed},
		{Token: "EEEEEE", OfferID: 1, VenueID: 6, OffererID: 1, Quantity: 1, AmountCents: 500, Status: models.BookingStatusUsed, DateUsed: &used},
	}
	require.NoError(t, db.Create(&bookings).Error)

	revenue, err := repo.RevenueSince(ctx, 5, yearStart)
	require.NoError(t, err)
	require.Equal(t, int64(2700), revenue)

	revenue, err = repo.RevenueSince(ctx, 42, yearStart)
	require.NoError(t, err)
	require.Zero(t, revenue)
}

func TestUserRepositoryUpdateLocked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := models.User{FirstName: "Alice", LastName: "Durand", Email: "alice@example.com", Role: models.UserRoleBeneficiary}
	bob := models.User{FirstName: "Bob", LastName: "Martin", Email: "bob@example.com", Role: models.UserRoleBeneficiary}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	_, err := repo.UpdateLocked(ctx, alice.ID, func(user *models.User) (*models.ActionHistory, error) {
		user.Email = "BOB@example.com"
		return &models.ActionHistory{ActionType: models.ActionInfoModified, UserID: &user.ID}, nil
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	require.Zero(t, countActions(t, db, models.ActionInfoModified))

	updated, err := repo.UpdateLocked(ctx, alice.ID, func(user *models.User) (*models.ActionHistory, error) {
		user.LastName = "Lefèvre"
		return &models.ActionHistory{ActionType: models.ActionInfoModified, UserID: &user.ID}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Lefèvre", updated.LastName)
	require.Equal(t, int64(1), countActions(t, db, models.ActionInfoModified))

	page, err := repo.Search(ctx, UserFilter{Params: pagination.Params{Page: 1, PerPage: 20}, Query: "lefevre"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, alice.ID, page.Items[0].ID)

	page, err = repo.Search(ctx, UserFilter{Params: pagination.Params{Page: 1, PerPage: 20}, Query: "bob@example.com"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, bob.ID, page.Items[0].ID)

	unchanged, err := repo.UpdateLocked(ctx, bob.ID, func(user *models.User) (*models.ActionHistory, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Bob", unchanged.FirstName)

	suspended, err := repo.SetActive(ctx, bob.ID, false, &models.ActionHistory{ActionType: models.ActionUserSuspended, UserID: &bob.ID})
	require.NoError(t, err)
	require.False(t, suspended.IsActive)

	inactive := false
	page, err = repo.Search(ctx, UserFilter{Params: pagination.Params{Page: 1, PerPage: 20}, Active: &inactive})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, bob.ID, page.Items[0].ID)
}

func TestBookingRepositoryListAndCancel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	offer := models.Offer{VenueID: 1, Name: "Concert d'été", PriceCents: 1500}
	other := models.Offer{VenueID: 1, Name: "Exposition", PriceCents: 800}
	require.NoError(t, db.Create(&offer).Error)
	require.NoError(t, db.Create(&other).Error)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var bookings []models.Booking
	for i := 0; i < 4; i++ {
		bookings = append(bookings, models.Booking{
			Token:       fmt.Sprintf("TOK%03d", i),
			OfferID:     offer.ID,
			VenueID:     1,
			OffererID:   1,
			Quantity:    1,
			AmountCents: 1500,
			Status:      models.BookingStatusConfirmed,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	bookings = append(bookings, models.Booking{Token: "XYZ789", OfferID: other.ID, VenueID: 2, OffererID: 1, Quantity: 1, AmountCents: 800, Status: models.BookingStatusReimbursed, CreatedAt: base})
	require.NoError(t, db.Create(&bookings).Error)

	result, err := repo.List(ctx, BookingFilter{Query: "xyz789", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Exposition", result.Items[0].Offer.Name)

	result, err = repo.List(ctx, BookingFilter{Query: "concert d'ete", Limit: 3})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.True(t, result.HasMore)
	require.Equal(t, "TOK003", result.Items[0].Token, "newest first")

	result, err = repo.List(ctx, BookingFilter{Query: "ab", Limit: 3})
	require.NoError(t, err)
	require.Empty(t, result.Items)

	result, err = repo.List(ctx, BookingFilter{Statuses: []string{string(models.BookingStatusReimbursed)}, VenueIDs: []uint{2}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.False(t, result.HasMore)

	at := base.Add(24 * time.Hour)
	action := &models.ActionHistory{ActionType: models.ActionBookingCancelled, BookingID: &bookings[0].ID}
	require.NoError(t, repo.Cancel(ctx, bookings[0].ID, models.CancellationReasonBackoffice, at, action))

	cancelled, err := repo.GetByID(ctx, bookings[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.Equal(t, models.CancellationReasonBackoffice, *cancelled.CancellationReason)

	err = repo.Cancel(ctx, bookings[0].ID, models.CancellationReasonBackoffice, at, &models.ActionHistory{ActionType: models.ActionBookingCancelled})
	require.ErrorIs(t, err, ErrStaleState)
	require.Equal(t, int64(1), countActions(t, db, models.ActionBookingCancelled))

	found, err := repo.FindByIDs(ctx, []uint{bookings[4].ID, bookings[1].ID})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, bookings[1].ID, found[0].ID)
}

func TestFinanceIncidentRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFinanceIncidentRepository(db)
	ctx := context.Background()

	venue := models.Venue{OffererID: 1, Name: "Théâtre"}
	require.NoError(t, db.Create(&venue).Error)
	booking := models.Booking{Token: "FIN001", OfferID: 1, VenueID: venue.ID, OffererID: 1, Quantity: 1, AmountCents: 2000, Status: models.BookingStatusReimbursed}
	require.NoError(t, db.Create(&booking).Error)

	incident := models.FinanceIncident{
		Kind:             models.IncidentKindOverpayment,
		Status:           models.IncidentStatusCreated,
		VenueID:          venue.ID,
		BookingIncidents: []models.BookingFinanceIncident{{BookingID: booking.ID, AmountCents: 2000}},
	}
	action := &models.ActionHistory{ActionType: models.ActionFinanceIncidentCreated, VenueID: &venue.ID}
	require.NoError(t, repo.Create(ctx, &incident, action))
	require.NotZero(t, incident.ID)
	require.Equal(t, incident.ID, *action.FinanceIncidentID)

	inIncidents, err := repo.BookingsInIncidents(ctx, []uint{booking.ID, 999})
	require.NoError(t, err)
	require.Equal(t, []uint{booking.ID}, inIncidents)

	loaded, err := repo.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2000), loaded.TotalCents())
	require.Equal(t, "FIN001", loaded.BookingIncidents[0].Booking.Token)

	require.NoError(t, repo.UpdateStatus(ctx, incident.ID, models.IncidentStatusCreated, models.IncidentStatusCancelled, "doublon",
		&models.ActionHistory{ActionType: models.ActionFinanceIncidentCancelled}))

	err = repo.UpdateStatus(ctx, incident.ID, models.IncidentStatusCreated, models.IncidentStatusValidated, "", nil)
	require.ErrorIs(t, err, ErrStaleState)

	err = repo.UpdateStatus(ctx, 404, models.IncidentStatusCreated, models.IncidentStatusValidated, "", nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	inIncidents, err = repo.BookingsInIncidents(ctx, []uint{booking.ID})
	require.NoError(t, err)
	require.Empty(t, inIncidents, "cancelled incidents release their bookings")

	page, err := repo.List(ctx, FinanceIncidentFilter{Params: pagination.Params{Page: 1, PerPage: 10}, Statuses: []string{string(models.IncidentStatusCancelled)}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Venue)
}

func TestCashflowBatchRepositoryOrdersByCutoff(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCashflowBatchRepository(db)

	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.CashflowBatch{
		{Label: "VIR1", Cutoff: base},
		{Label: "VIR3", Cutoff: base.AddDate(0, 1, 0)},
		{Label: "VIR2", Cutoff: base.AddDate(0, 0, 15)},
	}).Error)

	page, err := repo.List(context.Background(), pagination.Params{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.TotalItems)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, "VIR3", page.Items[0].Label)
	require.Equal(t, "VIR2", page.Items[1].Label)
}

func TestCustomReimbursementRuleRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomReimbursementRuleRepository(db)
	ctx := context.Background()

	rate := 50.0
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rule := models.CustomReimbursementRule{OffererID: uintPtr(3), RatePercent: &rate, TimespanStart: start}
	action := &models.ActionHistory{ActionType: models.ActionCustomReimbursementRule, OffererID: uintPtr(3)}
	require.NoError(t, repo.Create(ctx, &rule, action))
	require.EqualValues(t, rule.ID, action.ExtraData["custom_reimbursement_rule_id"])

	found, err := repo.FindForTarget(ctx, ReimbursementTarget{OffererID: uintPtr(3)})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = repo.FindForTarget(ctx, ReimbursementTarget{VenueID: uintPtr(3)})
	require.NoError(t, err)
	require.Empty(t, found)

	end := start.AddDate(0, 6, 0)
	updated, err := repo.UpdateEnd(ctx, rule.ID, &end, &models.ActionHistory{ActionType: models.ActionCustomReimbursementEdit})
	require.NoError(t, err)
	require.True(t, updated.TimespanEnd.Equal(end))

	page, err := repo.List(ctx, CustomReimbursementRuleFilter{Params: pagination.Params{Page: 1, PerPage: 10}, OffererIDs: []uint{3}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestCustomReimbursementRuleTargetExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomReimbursementRuleRepository(db)
	ctx := context.Background()

	offerer := models.Offerer{Name: "Cinéma Lumière", Siren: "300000003", ValidationStatus: models.ValidationStatusValidated}
	require.NoError(t, db.Create(&offerer).Error)
	venue := models.Venue{OffererID: offerer.ID, Name: "Salle 1"}
	require.NoError(t, db.Create(&venue).Error)

	exists, err := repo.TargetExists(ctx, ReimbursementTarget{OffererID: &offerer.ID})
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.TargetExists(ctx, ReimbursementTarget{VenueID: &venue.ID})
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.TargetExists(ctx, ReimbursementTarget{VenueID: uintPtr(venue.ID + 100)})
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = repo.TargetExists(ctx, ReimbursementTarget{OfferID: uintPtr(1)})
	require.NoError(t, err)
	require.False(t, exists)
}

func TestProviderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProviderRepository(db)
	ctx := context.Background()

	provider := models.Provider{Name: "Billetterie Éclair", IsActive: true}
	require.NoError(t, repo.Create(ctx, &provider, &models.ActionHistory{ActionType: models.ActionProviderCreated}))

	taken, err := repo.NameTaken(ctx, "billetterie eclair", 0)
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = repo.NameTaken(ctx, "Billetterie Éclair", provider.ID)
	require.NoError(t, err)
	require.False(t, taken)

	provider.EnabledForPro = true
	require.NoError(t, repo.Save(ctx, &provider, &models.ActionHistory{ActionType: models.ActionProviderModified}))

	page, err := repo.Search(ctx, ProviderFilter{Params: pagination.Params{Page: 1, PerPage: 10}, Query: "eclair"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.True(t, page.Items[0].EnabledForPro)
}
