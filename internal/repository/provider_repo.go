package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// ProviderTextSpec matches providers by id or name.
var ProviderTextSpec = search.TextSpec{
	MinLength:     2,
	IDColumn:      "id",
	SearchColumns: []string{"search_name"},
}

// ProviderFilter defines the provider list filters.
type ProviderFilter struct {
	Params pagination.Params
	Query  string
}

// ProviderRepository exposes synchronisation provider persistence.
type ProviderRepository interface {
	Search(ctx context.Context, filter ProviderFilter) (pagination.Page[models.Provider], error)
	GetByID(ctx context.Context, id uint) (models.Provider, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, provider *models.Provider, action *models.ActionHistory) error
	Save(ctx context.Context, provider *models.Provider, action *models.ActionHistory) error
}

type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository constructs the provider repository.
func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) Search(ctx context.Context, filter ProviderFilter) (pagination.Page[models.Provider], error) {
	builder := search.NewBuilder().Text(filter.Query, ProviderTextSpec)
	if builder.Empty() {
		return pagination.Empty[models.Provider](filter.Params), nil
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.Provider{}))
	return pagination.Paginate[models.Provider](query, filter.Params, pagination.Query{
		Order: []string{"name"},
	})
}

func (r *providerRepository) GetByID(ctx context.Context, id uint) (models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, id).Error; err != nil {
		return models.Provider{}, err
	}
	return provider, nil
}

// NameTaken compares names accent and case insensitively.
func (r *providerRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Provider{}).
		Where("search_name = ? AND id <> ?", search.Normalize(name), excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *providerRepository) Create(ctx context.Context, provider *models.Provider, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active := provider.IsActive
		if err := tx.Create(provider).Error; err != nil {
			return err
		}
		// is_active has a column default that swallows an explicit false on insert.
		if !active {
			if err := tx.Model(provider).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		if action != nil {
			if action.ExtraData == nil {
				action.ExtraData = map[string]interface{}{}
			}
			action.ExtraData["provider_id"] = provider.ID
		}
		return insertActions(tx, action)
	})
}

func (r *providerRepository) Save(ctx context.Context, provider *models.Provider, action *models.ActionHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(provider).Error; err != nil {
			return err
		}
		return insertActions(tx, action)
	})
}
