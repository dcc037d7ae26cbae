package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// OffererTextSpec matches offerers by id, SIREN prefix or name.
var OffererTextSpec = search.TextSpec{
	MinLength:        3,
	IDColumn:         "id",
	IdentifierColumn: "siren",
	IdentifierLength: models.SirenLength,
	SearchColumns:    []string{"search_name"},
}

// OffererFilter defines the offerer list filters.
type OffererFilter struct {
	Params   pagination.Params
	Query    string
	Statuses []string
	From     *time.Time
	To       *time.Time
	Active   *bool
}

// OffererRepository exposes offerer persistence for the backoffice.
type OffererRepository interface {
	Search(ctx context.Context, filter OffererFilter) (pagination.Page[models.Offerer], error)
	Autocomplete(ctx context.Context, query string, limit int) ([]models.Offerer, error)
	GetByID(ctx context.Context, id uint) (models.Offerer, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}, action *models.ActionHistory) (models.Offerer, error)
}

type offererRepository struct {
	db *gorm.DB
}

// NewOffererRepository constructs the offerer repository.
func NewOffererRepository(db *gorm.DB) OffererRepository {
	return &offererRepository{db: db}
}

func (r *offererRepository) Search(ctx context.Context, filter OffererFilter) (pagination.Page[models.Offerer], error) {
	builder := search.NewBuilder().
		Text(filter.Query, OffererTextSpec).
		InStrings("validation_status", filter.Statuses).
		DateRange("created_at", filter.From, filter.To).
		Bool("is_active", filter.Active)
	if builder.Empty() {
		return pagination.Empty[models.Offerer](filter.Params), nil
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.Offerer{}))
	return pagination.Paginate[models.Offerer](query, filter.Params, pagination.Query{
		Order: []string{"name"},
	})
}

func (r *offererRepository) Autocomplete(ctx context.Context, query string, limit int) ([]models.Offerer, error) {
	builder := search.NewBuilder().Text(query, OffererTextSpec)
	if builder.Empty() || query == "" {
		return []models.Offerer{}, nil
	}

	bounded, err := pagination.FetchBounded[models.Offerer](
		builder.Apply(r.db.WithContext(ctx).Model(&models.Offerer{})),
		limit,
		pagination.Query{Order: []string{"name"}},
	)
	if err != nil {
		return nil, err
	}
	return bounded.Items, nil
}

func (r *offererRepository) GetByID(ctx context.Context, id uint) (models.Offerer, error) {
	var offerer models.Offerer
	err := r.db.WithContext(ctx).
		Preload("Venues", func(db *gorm.DB) *gorm.DB { return db.Order("name").Order("id") }).
		First(&offerer, id).Error
	if err != nil {
		return models.Offerer{}, err
	}
	return offerer, nil
}

func (r *offererRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, action *models.ActionHistory) (models.Offerer, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var offerer models.Offerer
		if err := tx.First(&offerer, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&offerer).Updates(updates).Error; err != nil {
			return err
		}
		return insertActions(tx, action)
	})
	if err != nil {
		return models.Offerer{}, err
	}
	return r.GetByID(ctx, id)
}
