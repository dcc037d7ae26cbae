package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
)

type bookingFixture struct {
	offerer models.Offerer
	venue   models.Venue
	offer   models.Offer
}

func seedBookingFixture(t *testing.T, db *gorm.DB, siren string) bookingFixture {
	t.Helper()
	offerer := seedOfferer(t, db, "Scène Nationale "+siren, siren, models.ValidationStatusValidated)
	venue := seedVenue(t, db, offerer.ID, "Grande Salle", nil)
	offer := models.Offer{VenueID: venue.ID, Name: "Concert du Printemps", PriceCents: 1250}
	require.NoError(t, db.Create(&offer).Error)
	return bookingFixture{offerer: offerer, venue: venue, offer: offer}
}

func (f bookingFixture) book(t *testing.T, db *gorm.DB, token string, status models.BookingStatus) models.Booking {
	t.Helper()
	booking := models.Booking{
		Token:       token,
		OfferID:     f.offer.ID,
		VenueID:     f.venue.ID,
		OffererID:   f.offerer.ID,
		Quantity:    2,
		AmountCents: f.offer.PriceCents,
		Status:      status,
	}
	if status == models.BookingStatusReimbursed {
		reimbursedAt := time.Now().UTC()
		booking.ReimbursedAt = &reimbursedAt
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}

func TestBookingListByToken(t *testing.T) {
	env := setupTestApp(t, "admin")
	fixture := seedBookingFixture(t, env.db, "600000001")
	fixture.book(t, env.db, "ABC123", models.BookingStatusConfirmed)
	fixture.book(t, env.db, "XYZ789", models.BookingStatusConfirmed)

	resp := env.do(t, http.MethodGet, "/backoffice/bookings?q=abc123", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeResponse(t, resp)

	var list dto.BookingListResponse
	require.NoError(t, json.Unmarshal(payload.Data, &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, "ABC123", list.Items[0].Token)
	require.Equal(t, "25,00 €", list.Items[0].Total)
	require.False(t, list.HasMore)
}

func TestBookingCancel(t *testing.T) {
	env := setupTestApp(t, "admin")
	fixture := seedBookingFixture(t, env.db, "600000002")
	confirmed := fixture.book(t, env.db, "CNF001", models.BookingStatusConfirmed)
	reimbursed := fixture.book(t, env.db, "RMB001", models.BookingStatusReimbursed)

	path := fmt.Sprintf("/backoffice/bookings/%d/cancel", confirmed.ID)
	resp := env.do(t, http.MethodPost, path, map[string]string{"reason": "FRAUD"}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/backoffice/bookings", resp.Header.Get("Location"))

	var stored models.Booking
	require.NoError(t, env.db.First(&stored, confirmed.ID).Error)
	require.Equal(t, models.BookingStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	require.Equal(t, models.CancellationReasonFraud, *stored.CancellationReason)

	resp = env.do(t, http.MethodPost, path, map[string]string{"reason": "FRAUD"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := decodeResponse(t, resp)
	require.Equal(t, "Impossible d'annuler une réservation déjà annulée", payload.Message)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/backoffice/bookings/%d/cancel", reimbursed.ID), map[string]string{"reason": "BACKOFFICE"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload = decodeResponse(t, resp)
	require.Equal(t, "Impossible d'annuler une réservation déjà remboursée", payload.Message)
}
