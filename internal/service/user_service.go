package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/pagination"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/internal/search"
	"github.com/noah-isme/backoffice-api/pkg/crm"
)

// ErrUserNotFound indicates the account does not exist in the requested scope.
var ErrUserNotFound = errors.New("user not found")

// UserScope restricts a user service to a family of accounts.
type UserScope struct {
	Name  string
	Roles []models.UserRole
}

var (
	// PublicAccounts covers beneficiaries and professionals.
	PublicAccounts = UserScope{Name: "public_account", Roles: []models.UserRole{models.UserRoleBeneficiary, models.UserRolePro}}
	// BackofficeUsers covers admin accounts.
	BackofficeUsers = UserScope{Name: "bo_user", Roles: []models.UserRole{models.UserRoleAdmin}}
)

func (s UserScope) contains(role models.UserRole) bool {
	for _, candidate := range s.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (s UserScope) roleNames() []string {
	names := make([]string, 0, len(s.Roles))
	for _, role := range s.Roles {
		names = append(names, string(role))
	}
	return names
}

// UserService orchestrates account search and edition.
type UserService interface {
	Search(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	UpdateInfo(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor ActivityActor) (dto.UserResponse, error)
	Suspend(ctx context.Context, id uint, payload dto.UserSuspendRequest, actor ActivityActor) (dto.UserResponse, error)
	Unsuspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	crm       CRMPublisher
	validator *validator.Validate
	limits    pagination.Limits
	scope     UserScope
	logger    zerolog.Logger
}

// NewUserService constructs a user service bound to scope.
func NewUserService(repo repository.UserRepository, crm CRMPublisher, validator *validator.Validate, limits pagination.Limits, scope UserScope, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		crm:       crm,
		validator: validator,
		limits:    limits,
		scope:     scope,
		logger:    logger.With().Str("component", "user_service").Str("scope", scope.Name).Logger(),
	}
}

func (s *userService) Search(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error) {
	active, err := search.ParseBool("active", req.Active)
	if err != nil {
		return dto.UserListResponse{}, fromFieldError(err)
	}

	filter := repository.UserFilter{
		Params: normalizeParams(s.limits, req.ListRequest),
		Query:  strings.TrimSpace(req.Query),
		Roles:  s.scope.roleNames(),
		Active: active,
	}
	page, err := s.repo.Search(ctx, filter)
	if err != nil {
		return dto.UserListResponse{}, err
	}
	recordSearch(s.scope.Name, search.NewBuilder().Text(filter.Query, repository.UserTextSpec).Empty(), page.TotalItems)

	items := make([]dto.UserResponse, 0, len(page.Items))
	for _, user := range page.Items {
		items = append(items, dto.NewUserResponse(user))
	}
	return dto.UserListResponse{Items: items, Pagination: dto.NewPaginationMeta(page)}, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) load(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, ErrUserNotFound)
	}
	if !s.scope.contains(user.Role) {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateInfo(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor ActivityActor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return dto.UserResponse{}, err
	}

	updated, err := s.repo.UpdateLocked(ctx, id, func(user *models.User) (*models.ActionHistory, error) {
		info := map[string]interface{}{}
		apply := func(field string, target *string, value *string, normalize func(string) string) {
			if value == nil {
				return
			}
			next := normalize(*value)
			if next == *target {
				return
			}
			modifiedInfo(info, field, *target, next)
			*target = next
		}

		apply("first_name", &user.FirstName, payload.FirstName, strings.TrimSpace)
		apply("last_name", &user.LastName, payload.LastName, strings.TrimSpace)
		apply("email", &user.Email, payload.Email, func(value string) string {
			return strings.ToLower(strings.TrimSpace(value))
		})
		apply("phone_number", &user.PhoneNumber, payload.PhoneNumber, strings.TrimSpace)
		apply("postal_code", &user.PostalCode, payload.PostalCode, strings.TrimSpace)

		if len(info) == 0 {
			return nil, nil
		}
		action := newAction(models.ActionInfoModified, actor, "")
		action.UserID = uintPtr(user.ID)
		action.ExtraData = map[string]interface{}{"modified_info": info}
		return action, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, newFieldError("email", "L'email est déjà associé à un autre compte")
		}
		return dto.UserResponse{}, notFound(err, ErrUserNotFound)
	}

	s.logger.Info().Uint("user_id", id).Uint("author_id", actor.ID).Msg("user info updated")
	syncCRM(ctx, s.crm, s.logger, crm.Event{Entity: crm.EntityUser, ID: id, Action: string(models.ActionInfoModified)})

	return dto.NewUserResponse(updated), nil
}

func (s *userService) Suspend(ctx context.Context, id uint, payload dto.UserSuspendRequest, actor ActivityActor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if !user.IsActive {
		return dto.UserResponse{}, newValidationError("Le compte est déjà suspendu")
	}

	action := newAction(models.ActionUserSuspended, actor, sanitizeComment(payload.Comment))
	action.UserID = uintPtr(id)
	action.ExtraData = map[string]interface{}{"reason": payload.Reason}
	return s.setActive(ctx, id, false, action)
}

func (s *userService) Unsuspend(ctx context.Context, id uint, payload dto.CommentRequest, actor ActivityActor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if user.IsActive {
		return dto.UserResponse{}, newValidationError("Le compte n'est pas suspendu")
	}

	action := newAction(models.ActionUserUnsuspended, actor, sanitizeComment(payload.Comment))
	action.UserID = uintPtr(id)
	return s.setActive(ctx, id, true, action)
}

func (s *userService) setActive(ctx context.Context, id uint, active bool, action *models.ActionHistory) (dto.UserResponse, error) {
	user, err := s.repo.SetActive(ctx, id, active, action)
	if err != nil {
		return dto.UserResponse{}, notFound(err, ErrUserNotFound)
	}

	s.logger.Info().Uint("user_id", id).Bool("active", active).Msg("user activation changed")
	syncCRM(ctx, s.crm, s.logger, crm.Event{Entity: crm.EntityUser, ID: id, Action: string(action.ActionType)})

	return dto.NewUserResponse(user), nil
}
