package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"
	"tabour/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) Service {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&StaffUser{}))

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: testSecret, JWTExpiresIn: time.Hour},
	}
	return NewService(NewRepository(db), cfg, logger.New())
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	assert.NoError(t, err)
	assert.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	staff, err := svc.CreateStaff(ctx, &CreateStaffRequest{
		Username: "admin",
		Password: "admin-secret",
		Role:     middleware.RoleAdmin,
	})
	assert.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "admin", Password: "admin-secret"})
	assert.NoError(t, err)
	assert.Equal(t, middleware.RoleAdmin, resp.Role)
	assert.Nil(t, resp.BranchID)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, staff.ID.String(), claims["user_id"])
	assert.Equal(t, middleware.RoleAdmin, claims["role"])
	_, hasBranch := claims["branch_id"]
	assert.False(t, hasBranch)
}

func TestLoginManagerCarriesBranchScope(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	branchID := uuid.New()

	_, err := svc.CreateStaff(ctx, &CreateStaffRequest{
		Username: "manager-1",
		Password: "manager-secret",
		Role:     middleware.RoleManager,
		BranchID: &branchID,
	})
	assert.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "manager-1", Password: "manager-secret"})
	assert.NoError(t, err)
	assert.NotNil(t, resp.BranchID)
	assert.Equal(t, branchID, *resp.BranchID)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, branchID.String(), claims["branch_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, &CreateStaffRequest{
		Username: "admin",
		Password: "admin-secret",
		Role:     middleware.RoleAdmin,
	})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames get the same answer as wrong passwords.
	_, err = svc.Login(ctx, &LoginRequest{Username: "ghost", Password: "admin-secret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateStaffManagerNeedsBranch(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.CreateStaff(context.Background(), &CreateStaffRequest{
		Username: "manager-1",
		Password: "manager-secret",
		Role:     middleware.RoleManager,
	})
	assert.ErrorIs(t, err, ErrBranchRequired)
}

func TestListStaffOmitsPasswordHash(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, &CreateStaffRequest{
		Username: "admin",
		Password: "admin-secret",
		Role:     middleware.RoleAdmin,
	})
	assert.NoError(t, err)

	staff, err := svc.ListStaff(ctx)
	assert.NoError(t, err)
	assert.Len(t, staff, 1)
	assert.Equal(t, "admin", staff[0].Username)
}
