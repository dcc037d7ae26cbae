package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/dto"
	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/repository"
	"github.com/noah-isme/backoffice-api/pkg/crm"
)

func seedUsers(t *testing.T, db *gorm.DB) (models.User, models.User, models.User) {
	t.Helper()
	beneficiary := models.User{FirstName: "Hélène", LastName: "Durand", Email: "helene@example.com", Role: models.UserRoleBeneficiary}
	pro := models.User{FirstName: "Marc", LastName: "Petit", Email: "marc@example.com", Role: models.UserRolePro}
	admin := models.User{FirstName: "Alice", LastName: "Admin", Email: "alice@backoffice.test", Role: models.UserRoleAdmin}
	for _, user := range []*models.User{&beneficiary, &pro, &admin} {
		require.NoError(t, db.Create(user).Error)
	}
	return beneficiary, pro, admin
}

func TestUserServiceScopes(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)
	beneficiary, _, admin := seedUsers(t, db)
	ctx := context.Background()

	public := NewUserService(repo, nil, newTestValidator(), testLimits, PublicAccounts, nopLogger())
	backoffice := NewUserService(repo, nil, newTestValidator(), testLimits, BackofficeUsers, nopLogger())

	result, err := public.Search(ctx, dto.UserListRequest{Query: "helene"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, beneficiary.ID, result.Items[0].ID)

	result, err = public.Search(ctx, dto.UserListRequest{Query: "alice@backoffice.test"})
	require.NoError(t, err)
	require.Empty(t, result.Items)

	result, err = backoffice.Search(ctx, dto.UserListRequest{Query: "alice@backoffice.test"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	_, err = public.Get(ctx, admin.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	response, err := backoffice.Get(ctx, admin.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Admin", response.FullName)
}

func TestUserServiceUpdateInfoRecordsModifiedInfo(t *testing.T) {
	db := setupTestDB(t)
	publisher := &recordingCRM{}
	svc := NewUserService(repository.NewUserRepository(db), publisher, newTestValidator(), testLimits, PublicAccounts, nopLogger())
	beneficiary, pro, _ := seedUsers(t, db)
	ctx := context.Background()

	response, err := svc.UpdateInfo(ctx, beneficiary.ID, dto.UserUpdateRequest{
		FirstName: strPtr("Helena"),
		Email:     strPtr("Helena@Example.com"),
		LastName:  strPtr("Durand"),
	}, testActor())
	require.NoError(t, err)
	require.Equal(t, "helena@example.com", response.Email)

	action := lastAction(t, db, models.ActionInfoModified)
	require.Equal(t, beneficiary.ID, *action.UserID)
	info, ok := action.ExtraData["modified_info"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, info, "first_name")
	require.Contains(t, info, "email")
	require.NotContains(t, info, "last_name")
	require.Equal(t, map[string]interface{}{"old_info": "Hélène", "new_info": "Helena"}, info["first_name"])

	events := publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, crm.EntityUser, events[0].Entity)

	_, err = svc.UpdateInfo(ctx, beneficiary.ID, dto.UserUpdateRequest{Email: strPtr(pro.Email)}, testActor())
	requireValidation(t, err, "email")

	_, err = svc.UpdateInfo(ctx, beneficiary.ID, dto.UserUpdateRequest{FirstName: strPtr("Helena")}, testActor())
	require.NoError(t, err)
	require.Equal(t, int64(1), countActions(t, db, models.ActionInfoModified))

	_, err = svc.UpdateInfo(ctx, beneficiary.ID, dto.UserUpdateRequest{PostalCode: strPtr("75A")}, testActor())
	require.Error(t, err)
}

func TestUserServiceSuspendAndUnsuspend(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), &recordingCRM{}, newTestValidator(), testLimits, PublicAccounts, nopLogger())
	beneficiary, _, _ := seedUsers(t, db)
	ctx := context.Background()

	response, err := svc.Suspend(ctx, beneficiary.ID, dto.UserSuspendRequest{Reason: "FRAUD_SUSPICION", Comment: "doublon"}, testActor())
	require.NoError(t, err)
	require.False(t, response.IsActive)

	action := lastAction(t, db, models.ActionUserSuspended)
	require.Equal(t, "FRAUD_SUSPICION", action.ExtraData["reason"])
	require.Equal(t, "doublon", action.Comment)

	_, err = svc.Suspend(ctx, beneficiary.ID, dto.UserSuspendRequest{Reason: "FRAUD_SUSPICION"}, testActor())
	requireValidation(t, err, "")

	response, err = svc.Unsuspend(ctx, beneficiary.ID, dto.CommentRequest{}, testActor())
	require.NoError(t, err)
	require.True(t, response.IsActive)
}
