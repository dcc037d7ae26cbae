package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
)

// OfferRepository reads offers checked against validation rules.
type OfferRepository interface {
	GetByID(ctx context.Context, id uint) (models.Offer, error)
}

type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository constructs the offer repository.
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) GetByID(ctx context.Context, id uint) (models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Preload("Venue").First(&offer, id).Error; err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}
