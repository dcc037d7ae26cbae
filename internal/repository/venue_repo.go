package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// VenueTextSpec matches venues by id, SIRET prefix or names.
var VenueTextSpec = search.TextSpec{
	MinLength:        3,
	IDColumn:         "id",
	IdentifierColumn: "siret",
	IdentifierLength: models.SiretLength,
	SearchColumns:    []string{"search_name"},
}

// VenueFilter defines the venue list filters.
type VenueFilter struct {
	Params     pagination.Params
	Query      string
	OffererIDs []uint
}

// SiretMove describes the transfer of a SIRET between two venues of one offerer.
type SiretMove struct {
	SourceID      uint
	TargetID      uint
	Siret         string
	SourceComment string
}

// VenueRepository exposes venue persistence for the backoffice.
type VenueRepository interface {
	Search(ctx context.Context, filter VenueFilter) (pagination.Page[models.Venue], error)
	Autocomplete(ctx context.Context, query string, limit int) ([]models.Venue, error)
	GetByID(ctx context.Context, id uint) (models.Venue, error)
	RevenueSince(ctx context.Context, venueID uint, since time.Time) (int64, error)
	MoveSiret(ctx context.Context, move SiretMove, actions ...*models.ActionHistory) error
}

type venueRepository struct {
	db *gorm.DB
}

// NewVenueRepository constructs the venue repository.
func NewVenueRepository(db *gorm.DB) VenueRepository {
	return &venueRepository{db: db}
}

func (r *venueRepository) Search(ctx context.Context, filter VenueFilter) (pagination.Page[models.Venue], error) {
	builder := search.NewBuilder().
		Text(filter.Query, VenueTextSpec).
		InIDs("offerer_id", filter.OffererIDs)
	if builder.Empty() {
		return pagination.Empty[models.Venue](filter.Params), nil
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.Venue{}))
	return pagination.Paginate[models.Venue](query, filter.Params, pagination.Query{
		Order:   []string{"name"},
		Preload: []string{"Offerer"},
	})
}

func (r *venueRepository) Autocomplete(ctx context.Context, query string, limit int) ([]models.Venue, error) {
	builder := search.NewBuilder().Text(query, VenueTextSpec)
	if builder.Empty() || query == "" {
		return []models.Venue{}, nil
	}

	bounded, err := pagination.FetchBounded[models.Venue](
		builder.Apply(r.db.WithContext(ctx).Model(&models.Venue{})),
		limit,
		pagination.Query{Order: []string{"name"}},
	)
	if err != nil {
		return nil, err
	}
	return bounded.Items, nil
}

func (r *venueRepository) GetByID(ctx context.Context, id uint) (models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).Preload("Offerer").First(&venue, id).Error; err != nil {
		return models.Venue{}, err
	}
	return venue, nil
}

// RevenueSince sums the value of used or reimbursed bookings of the venue.
func (r *venueRepository) RevenueSince(ctx context.Context, venueID uint, since time.Time) (int64, error) {
	var revenue int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("COALESCE(SUM(amount_cents * quantity), 0)").
		Where("venue_id = ?", venueID).
		Where("status IN ?", []models.BookingStatus{models.BookingStatusUsed, models.BookingStatusReimbursed}).
		Where("date_used >= ?", since).
		Scan(&revenue).Error
	return revenue, err
}

func (r *venueRepository) MoveSiret(ctx context.Context, move SiretMove, actions ...*models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source := tx.Model(&models.Venue{}).
			Where("id = ? AND siret = ?", move.SourceID, move.Siret).
			Updates(map[string]interface{}{"siret": nil, "comment": move.SourceComment})
		if source.Error != nil {
			return source.Error
		}
		if source.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		target := tx.Model(&models.Venue{}).
			Where("id = ? AND siret IS NULL", move.TargetID).
			Update("siret", move.Siret)
		if target.Error != nil {
			return target.Error
		}
		if target.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return insertActions(tx, actions...)
	})
}
