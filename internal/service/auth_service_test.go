package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/domain"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

func TestLoginStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	staff, token, _, err := f.auth.LoginStaff(ctx, " ADMIN ", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, staff.ID)

	claims, err := f.auth.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, claims.RegisteredClaims.Subject)
	assert.Equal(t, domain.StaffRoleAdmin, claims.Role)

	_, _, _, err = f.auth.LoginStaff(ctx, "admin", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	_, _, _, err = f.auth.LoginStaff(ctx, "nobody", "admin-pass")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestInactiveStaffCannotLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.staff.UpdateStaffMember(ctx, f.admin, f.officer.ID, "", domain.StaffRoleOfficer, false)
	require.NoError(t, err)

	_, _, _, err = f.auth.LoginStaff(ctx, "officer1", "officer-pass")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.auth.ChangePassword(ctx, f.officer.ID, "wrong", "new-password")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	err = f.auth.ChangePassword(ctx, f.officer.ID, "officer-pass", "short")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	require.NoError(t, f.auth.ChangePassword(ctx, f.officer.ID, "officer-pass", "new-password"))
	_, _, _, err = f.auth.LoginStaff(ctx, "officer1", "new-password")
	assert.NoError(t, err)
}

func TestPasswordResetIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.IssuePasswordReset(ctx, f.officer, f.admin.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	token, err := f.auth.IssuePasswordReset(ctx, f.admin, f.officer.ID)
	require.NoError(t, err)
	assert.Equal(t, f.officer.ID, token.StaffID)

	require.NoError(t, f.auth.ConfirmPasswordReset(ctx, token.Token, "reset-password"))
	_, _, _, err = f.auth.LoginStaff(ctx, "officer1", "reset-password")
	require.NoError(t, err)

	err = f.auth.ConfirmPasswordReset(ctx, token.Token, "another-password")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	err = f.auth.ConfirmPasswordReset(ctx, "unknown", "another-password")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
