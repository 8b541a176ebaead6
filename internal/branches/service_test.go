package branches

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeOccupancy struct {
	highest int
}

func (f *fakeOccupancy) HighestOccupiedRoom(ctx context.Context, branchID uuid.UUID) (int, error) {
	return f.highest, nil
}

func newBranchService(t *testing.T) (Service, *fakeOccupancy) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&Branch{}))

	occupancy := &fakeOccupancy{}
	return NewService(NewRepository(db), occupancy, nil), occupancy
}

func createBranch(t *testing.T, svc Service, rooms, wait int) *Branch {
	branch, err := svc.CreateBranch(context.Background(), &CreateBranchRequest{
		Name:             "Downtown",
		Address:          "King Fahd Road",
		Phone:            "+966512000001",
		RoomsCount:       rooms,
		ExpectedWaitTime: wait,
		Password:         "branch-secret",
	})
	assert.NoError(t, err)
	return branch
}

func TestCreateBranchDefaults(t *testing.T) {
	svc, _ := newBranchService(t)

	branch := createBranch(t, svc, 0, 0)
	assert.Equal(t, MinRooms, branch.RoomsCount)
	assert.Equal(t, 15, branch.ExpectedWaitTime)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(branch.PasswordHash), []byte("branch-secret")))
}

func TestCreateBranchRejectsOffStepWait(t *testing.T) {
	svc, _ := newBranchService(t)

	_, err := svc.CreateBranch(context.Background(), &CreateBranchRequest{
		Name:             "Corniche",
		Address:          "Corniche Road",
		Phone:            "+966512000002",
		ExpectedWaitTime: 7,
		Password:         "branch-secret",
	})
	assert.ErrorIs(t, err, ErrInvalidWaitTime)
}

func TestGetBranchNotFound(t *testing.T) {
	svc, _ := newBranchService(t)

	_, err := svc.GetBranch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestUpdateSettings(t *testing.T) {
	svc, _ := newBranchService(t)
	ctx := context.Background()
	branch := createBranch(t, svc, 5, 15)

	rooms := 8
	wait := 30
	updated, err := svc.UpdateSettings(ctx, branch.ID, &UpdateSettingsRequest{
		RoomsCount:       &rooms,
		ExpectedWaitTime: &wait,
	})
	assert.NoError(t, err)
	assert.Equal(t, 8, updated.RoomsCount)
	assert.Equal(t, 30, updated.ExpectedWaitTime)

	zero := 0
	_, err = svc.UpdateSettings(ctx, branch.ID, &UpdateSettingsRequest{RoomsCount: &zero})
	assert.ErrorIs(t, err, ErrMinRooms)

	offStep := 12
	_, err = svc.UpdateSettings(ctx, branch.ID, &UpdateSettingsRequest{ExpectedWaitTime: &offStep})
	assert.ErrorIs(t, err, ErrInvalidWaitTime)
}

func TestUpdateSettingsRefusesShrinkBelowOccupied(t *testing.T) {
	svc, occupancy := newBranchService(t)
	ctx := context.Background()
	branch := createBranch(t, svc, 8, 15)

	occupancy.highest = 6
	rooms := 5
	_, err := svc.UpdateSettings(ctx, branch.ID, &UpdateSettingsRequest{RoomsCount: &rooms})
	assert.ErrorIs(t, err, ErrRoomsInUse)

	// Shrinking down to the highest occupied room is still fine.
	rooms = 6
	updated, err := svc.UpdateSettings(ctx, branch.ID, &UpdateSettingsRequest{RoomsCount: &rooms})
	assert.NoError(t, err)
	assert.Equal(t, 6, updated.RoomsCount)
}

func TestAdjustRooms(t *testing.T) {
	svc, occupancy := newBranchService(t)
	ctx := context.Background()
	branch := createBranch(t, svc, 2, 15)

	updated, err := svc.AdjustRooms(ctx, branch.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, 3, updated.RoomsCount)

	occupancy.highest = 3
	_, err = svc.AdjustRooms(ctx, branch.ID, false)
	assert.ErrorIs(t, err, ErrRoomsInUse)

	occupancy.highest = 0
	updated, err = svc.AdjustRooms(ctx, branch.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, 2, updated.RoomsCount)

	updated, err = svc.AdjustRooms(ctx, branch.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated.RoomsCount)

	_, err = svc.AdjustRooms(ctx, branch.ID, false)
	assert.ErrorIs(t, err, ErrMinRooms)
}

func TestAdjustExpectedWaitClamps(t *testing.T) {
	svc, _ := newBranchService(t)
	ctx := context.Background()
	branch := createBranch(t, svc, 3, 55)

	updated, err := svc.AdjustExpectedWait(ctx, branch.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, 60, updated.ExpectedWaitTime)

	// Already at the ceiling; another bump stays put.
	updated, err = svc.AdjustExpectedWait(ctx, branch.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, 60, updated.ExpectedWaitTime)

	for i := 0; i < 11; i++ {
		updated, err = svc.AdjustExpectedWait(ctx, branch.ID, false)
		assert.NoError(t, err)
	}
	assert.Equal(t, 5, updated.ExpectedWaitTime)

	updated, err = svc.AdjustExpectedWait(ctx, branch.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, 5, updated.ExpectedWaitTime)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newBranchService(t)
	ctx := context.Background()
	branch := createBranch(t, svc, 3, 15)

	assert.NoError(t, svc.ChangePassword(ctx, branch.ID, "rotated-secret"))

	reloaded, err := svc.GetBranch(ctx, branch.ID)
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("rotated-secret")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("branch-secret")))
}
