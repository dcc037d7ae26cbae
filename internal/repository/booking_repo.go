package repository

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// ErrStaleState indicates a conditional update found the row in another state.
var ErrStaleState = errors.New("row state changed concurrently")

// offerNameMinLength guards offer name matching in booking searches.
const offerNameMinLength = 3

var bookingToken = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// BookingFilter defines the booking list filters.
type BookingFilter struct {
	Query      string
	Statuses   []string
	OffererIDs []uint
	VenueIDs   []uint
	From       *time.Time
	To         *time.Time
	Collective *bool
	Limit      int
}

// BookingRepository exposes booking persistence for the backoffice.
type BookingRepository interface {
	List(ctx context.Context, filter BookingFilter) (pagination.Bounded[models.Booking], error)
	GetByID(ctx context.Context, id uint) (models.Booking, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Booking, error)
	Cancel(ctx context.Context, id uint, reason models.BookingCancellationReason, at time.Time, action *models.ActionHistory) error
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository constructs the booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) (pagination.Bounded[models.Booking], error) {
	builder := search.NewBuilder().
		InStrings("status", filter.Statuses).
		InIDs("offerer_id", filter.OffererIDs).
		InIDs("venue_id", filter.VenueIDs).
		DateRange("created_at", filter.From, filter.To).
		Bool("is_collective", filter.Collective)

	if term := strings.TrimSpace(filter.Query); term != "" {
		if !bookingText(builder, term) {
			return pagination.Bounded[models.Booking]{Items: []models.Booking{}, Limit: filter.Limit}, nil
		}
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.Booking{}))
	return pagination.FetchBounded[models.Booking](query, filter.Limit, pagination.Query{
		Order:   []string{"created_at DESC", "id DESC"},
		Preload: []string{"Offer"},
	})
}

// bookingText matches a term against the token, the id and the offer name. It
// returns false when the term cannot match anything.
func bookingText(builder *search.Builder, term string) bool {
	var clauses []string
	var args []interface{}

	if bookingToken.MatchString(term) {
		clauses = append(clauses, "token = ?")
		args = append(args, strings.ToUpper(term))
	}
	if search.IsNumeric(term) {
		if id, err := strconv.ParseUint(term, 10, 32); err == nil {
			clauses = append(clauses, "id = ?")
			args = append(args, id)
		}
	}
	if normalized := search.Normalize(term); len([]rune(normalized)) >= offerNameMinLength && !search.IsNumeric(term) {
		clauses = append(clauses, `offer_id IN (SELECT id FROM offers WHERE search_name LIKE ? ESCAPE '\')`)
		args = append(args, "%"+search.EscapeLike(normalized)+"%")
	}

	if len(clauses) == 0 {
		return false
	}
	builder.Where("("+strings.Join(clauses, " OR ")+")", args...)
	return true
}

func (r *bookingRepository) GetByID(ctx context.Context, id uint) (models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Offer").First(&booking, id).Error; err != nil {
		return models.Booking{}, err
	}
	return booking, nil
}

func (r *bookingRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if len(ids) == 0 {
		return bookings, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&bookings).Error
	return bookings, err
}

// Cancel only applies to bookings still confirmed or used.
func (r *bookingRepository) Cancel(ctx context.Context, id uint, reason models.BookingCancellationReason, at time.Time, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", id, []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusUsed}).
			Updates(map[string]interface{}{
				"status":              models.BookingStatusCancelled,
				"cancellation_reason": reason,
				"cancelled_at":        at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		return insertActions(tx, action)
	})
}
