package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// FinanceIncidentFilter defines the incident list filters.
type FinanceIncidentFilter struct {
	Params   pagination.Params
	Statuses []string
	Kinds    []string
	VenueIDs []uint
	From     *time.Time
	To       *time.Time
}

// FinanceIncidentRepository exposes finance incident persistence.
type FinanceIncidentRepository interface {
	List(ctx context.Context, filter FinanceIncidentFilter) (pagination.Page[models.FinanceIncident], error)
	GetByID(ctx context.Context, id uint) (models.FinanceIncident, error)
	BookingsInIncidents(ctx context.Context, bookingIDs []uint) ([]uint, error)
	Create(ctx context.Context, incident *models.FinanceIncident, action *models.ActionHistory) error
	UpdateStatus(ctx context.Context, id uint, from, to models.IncidentStatus, comment string, action *models.ActionHistory) error
}

type financeIncidentRepository struct {
	db *gorm.DB
}

// NewFinanceIncidentRepository constructs the incident repository.
func NewFinanceIncidentRepository(db *gorm.DB) FinanceIncidentRepository {
	return &financeIncidentRepository{db: db}
}

func (r *financeIncidentRepository) List(ctx context.Context, filter FinanceIncidentFilter) (pagination.Page[models.FinanceIncident], error) {
	query := search.NewBuilder().
		InStrings("status", filter.Statuses).
		InStrings("kind", filter.Kinds).
		InIDs("venue_id", filter.VenueIDs).
		DateRange("created_at", filter.From, filter.To).
		Apply(r.db.WithContext(ctx).Model(&models.FinanceIncident{}))

	return pagination.Paginate[models.FinanceIncident](query, filter.Params, pagination.Query{
		Order:   []string{"created_at DESC"},
		Preload: []string{"Venue", "BookingIncidents"},
	})
}

func (r *financeIncidentRepository) GetByID(ctx context.Context, id uint) (models.FinanceIncident, error) {
	var incident models.FinanceIncident
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("BookingIncidents.Booking").
		First(&incident, id).Error
	if err != nil {
		return models.FinanceIncident{}, err
	}
	return incident, nil
}

// BookingsInIncidents returns which of the bookings already belong to a
// non-cancelled incident.
func (r *financeIncidentRepository) BookingsInIncidents(ctx context.Context, bookingIDs []uint) ([]uint, error) {
	var ids []uint
	if len(bookingIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&models.BookingFinanceIncident{}).
		Joins("JOIN finance_incidents ON finance_incidents.id = booking_finance_incidents.incident_id").
		Where("booking_finance_incidents.booking_id IN ?", bookingIDs).
		Where("finance_incidents.status <> ?", models.IncidentStatusCancelled).
		Distinct().
		Order("booking_finance_incidents.booking_id").
		Pluck("booking_finance_incidents.booking_id", &ids).Error
	return ids, err
}

func (r *financeIncidentRepository) Create(ctx context.Context, incident *models.FinanceIncident, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(incident).Error; err != nil {
			return err
		}
		if action != nil {
			action.FinanceIncidentID = &incident.ID
		}
		return insertActions(tx, action)
	})
}

// UpdateStatus moves an incident from one status to another; ErrStaleState is
// returned when the incident is no longer in the expected status.
func (r *financeIncidentRepository) UpdateStatus(ctx context.Context, id uint, from, to models.IncidentStatus, comment string, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": to}
		if comment != "" {
			updates["comment"] = comment
		}
		result := tx.Model(&models.FinanceIncident{}).Where("id = ? AND status = ?", id, from).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.FinanceIncident{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrStaleState
		}
		return insertActions(tx, action)
	})
}
