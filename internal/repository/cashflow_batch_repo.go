package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
)

// CashflowBatchRepository reads cashflow batches.
type CashflowBatchRepository interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.CashflowBatch], error)
	GetByID(ctx context.Context, id uint) (models.CashflowBatch, error)
}

type cashflowBatchRepository struct {
	db *gorm.DB
}

// NewCashflowBatchRepository constructs the batch repository.
func NewCashflowBatchRepository(db *gorm.DB) CashflowBatchRepository {
	return &cashflowBatchRepository{db: db}
}

func (r *cashflowBatchRepository) List(ctx context.Context, params pagination.Params) (pagination.Page[models.CashflowBatch], error) {
	return pagination.Paginate[models.CashflowBatch](r.db.WithContext(ctx).Model(&models.CashflowBatch{}), params, pagination.Query{
		Order: []string{"cutoff DESC"},
	})
}

func (r *cashflowBatchRepository) GetByID(ctx context.Context, id uint) (models.CashflowBatch, error) {
	var batch models.CashflowBatch
	if err := r.db.WithContext(ctx).First(&batch, id).Error; err != nil {
		return models.CashflowBatch{}, err
	}
	return batch, nil
}
