package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/search"
)

// UserTextSpec matches users by id, email or name.
var UserTextSpec = search.TextSpec{
	MinLength:     2,
	IDColumn:      "id",
	SearchColumns: []string{"search_text"},
	EmailColumn:   "email",
}

// UserFilter defines the account list filters.
type UserFilter struct {
	Params pagination.Params
	Query  string
	Roles  []string
	Active *bool
}

// UserMutation edits a locked user and returns the audit entry for the change,
// or nil when nothing changed.
type UserMutation func(user *models.User) (*models.ActionHistory, error)

// UserRepository exposes account persistence for the backoffice.
type UserRepository interface {
	Search(ctx context.Context, filter UserFilter) (pagination.Page[models.User], error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	UpdateLocked(ctx context.Context, id uint, mutate UserMutation) (models.User, error)
	SetActive(ctx context.Context, id uint, active bool, action *models.ActionHistory) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Search(ctx context.Context, filter UserFilter) (pagination.Page[models.User], error) {
	builder := search.NewBuilder().
		Text(filter.Query, UserTextSpec).
		InStrings("role", filter.Roles).
		Bool("is_active", filter.Active)
	if builder.Empty() {
		return pagination.Empty[models.User](filter.Params), nil
	}

	query := builder.Apply(r.db.WithContext(ctx).Model(&models.User{}))
	return pagination.Paginate[models.User](query, filter.Params, pagination.Query{
		Order: []string{"last_name", "first_name"},
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateLocked serialises concurrent edits of one account with a row lock.
// A changed email already used by another account fails with gorm.ErrDuplicatedKey.
func (r *userRepository) UpdateLocked(ctx context.Context, id uint, mutate UserMutation) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			return err
		}
		previousEmail := user.Email

		action, err := mutate(&user)
		if err != nil {
			return err
		}
		if action == nil {
			return nil
		}

		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		if user.Email != previousEmail {
			var taken int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", user.Email, user.ID).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return gorm.ErrDuplicatedKey
			}
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return insertActions(tx, action)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) SetActive(ctx context.Context, id uint, active bool, action *models.ActionHistory) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("is_active", active).Error; err != nil {
			return err
		}
		return insertActions(tx, action)
	})
	if err != nil {
		return models.User{}, err
	}
	user.IsActive = active
	return user, nil
}
