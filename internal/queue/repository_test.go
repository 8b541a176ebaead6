package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tabour/internal/customers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&customers.Customer{}, &Entry{}))
	assert.NoError(t, EnsureIndexes(db))
	return db
}

func newTestRepository(t *testing.T) (Repository, *gorm.DB) {
	db := newTestDB(t)
	return NewRepository(db, 1, time.Millisecond), db
}

func seedCustomer(t *testing.T, db *gorm.DB, name, phone string) *customers.Customer {
	customer := &customers.Customer{ID: uuid.New(), Name: name, Phone: phone}
	assert.NoError(t, db.Create(customer).Error)
	return customer
}

func seedEntry(t *testing.T, db *gorm.DB, customerID, branchID uuid.UUID, status Status) *Entry {
	entry := &Entry{
		ID:         uuid.New(),
		CustomerID: customerID,
		BranchID:   branchID,
		Guests:     2,
		WaitTime:   15,
		Status:     status,
	}
	assert.NoError(t, db.Create(entry).Error)
	return entry
}

func TestUpdateStatusGuardedWrite(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Sara", "+966512345678")
	branchID := uuid.New()
	entry := seedEntry(t, db, customer.ID, branchID, StatusWaiting)

	updated, err := repo.UpdateStatus(ctx, entry.ID, StatusWaiting, StatusCalled)
	assert.NoError(t, err)
	assert.Equal(t, StatusCalled, updated.Status)

	// A write guarded on a stale source status must not apply.
	_, err = repo.UpdateStatus(ctx, entry.ID, StatusWaiting, StatusCancelled)
	var illegalErr *IllegalTransitionError
	assert.True(t, errors.As(err, &illegalErr))
	assert.Equal(t, StatusCalled, illegalErr.From)
	assert.Equal(t, StatusCancelled, illegalErr.To)

	current, err := repo.GetByID(ctx, entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCalled, current.Status)
}

func TestUpdateStatusClearsRoomOnTerminal(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Omar", "+96551234567")
	branchID := uuid.New()

	room := 4
	entry := &Entry{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		BranchID:   branchID,
		Guests:     3,
		WaitTime:   20,
		Status:     StatusSeated,
		RoomNumber: &room,
	}
	assert.NoError(t, db.Create(entry).Error)

	updated, err := repo.UpdateStatus(ctx, entry.ID, StatusSeated, StatusCompleted)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Nil(t, updated.RoomNumber)

	// The record itself survives for the archive.
	kept, err := repo.GetByID(ctx, entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, kept.Status)
}

func TestAssignRoomExclusivity(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	branchID := uuid.New()
	first := seedEntry(t, db, seedCustomer(t, db, "Aisha", "+966512000001").ID, branchID, StatusCalled)
	second := seedEntry(t, db, seedCustomer(t, db, "Badr", "+966512000002").ID, branchID, StatusCalled)

	seated, err := repo.AssignRoom(ctx, first.ID, branchID, 2)
	assert.NoError(t, err)
	assert.Equal(t, StatusSeated, seated.Status)
	assert.NotNil(t, seated.RoomNumber)
	assert.Equal(t, 2, *seated.RoomNumber)

	// Second party loses the race for room 2 and stays called.
	_, err = repo.AssignRoom(ctx, second.ID, branchID, 2)
	var conflictErr *RoomConflictError
	assert.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, 2, conflictErr.RoomNumber)

	current, err := repo.GetByID(ctx, second.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCalled, current.Status)
	assert.Nil(t, current.RoomNumber)

	// A different room works immediately.
	seated, err = repo.AssignRoom(ctx, second.ID, branchID, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, *seated.RoomNumber)
}

func TestAssignRoomSameRoomDifferentBranch(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	branchA := uuid.New()
	branchB := uuid.New()
	first := seedEntry(t, db, seedCustomer(t, db, "Dana", "+966512000003").ID, branchA, StatusCalled)
	second := seedEntry(t, db, seedCustomer(t, db, "Fahd", "+966512000004").ID, branchB, StatusCalled)

	_, err := repo.AssignRoom(ctx, first.ID, branchA, 1)
	assert.NoError(t, err)

	// Room numbers are scoped per branch.
	_, err = repo.AssignRoom(ctx, second.ID, branchB, 1)
	assert.NoError(t, err)
}

func TestAssignRoomRequiresCalledStatus(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	branchID := uuid.New()
	entry := seedEntry(t, db, seedCustomer(t, db, "Ghada", "+966512000005").ID, branchID, StatusWaiting)

	_, err := repo.AssignRoom(ctx, entry.ID, branchID, 1)
	var illegalErr *IllegalTransitionError
	assert.True(t, errors.As(err, &illegalErr))
	assert.Equal(t, StatusWaiting, illegalErr.From)
	assert.Equal(t, StatusSeated, illegalErr.To)
}

func TestFindActiveByCustomer(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Huda", "+966512000006")
	branchID := uuid.New()

	active, err := repo.FindActiveByCustomer(ctx, customer.ID)
	assert.NoError(t, err)
	assert.Nil(t, active)

	seedEntry(t, db, customer.ID, branchID, StatusCompleted)
	active, err = repo.FindActiveByCustomer(ctx, customer.ID)
	assert.NoError(t, err)
	assert.Nil(t, active)

	live := seedEntry(t, db, customer.ID, branchID, StatusCalled)
	active, err = repo.FindActiveByCustomer(ctx, customer.ID)
	assert.NoError(t, err)
	assert.NotNil(t, active)
	assert.Equal(t, live.ID, active.ID)
}

func TestListActiveTodayAndArchive(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	branchID := uuid.New()
	customer := seedCustomer(t, db, "Ibrahim", "+966512000007")

	yesterday := time.Now().UTC().Add(-26 * time.Hour)
	old := &Entry{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		BranchID:   branchID,
		Guests:     2,
		WaitTime:   10,
		Status:     StatusCancelled,
		CreatedAt:  yesterday,
		UpdatedAt:  yesterday,
	}
	assert.NoError(t, db.Create(old).Error)

	finished := seedEntry(t, db, customer.ID, branchID, StatusCompleted)
	live := seedEntry(t, db, seedCustomer(t, db, "Imad", "+966512000017").ID, branchID, StatusWaiting)
	dropped := seedEntry(t, db, seedCustomer(t, db, "Iman", "+966512000018").ID, branchID, StatusCancelled)

	// Cancelled today stays on the board so staff can see who dropped
	// out; only completion moves an entry to the archive early.
	today, err := repo.ListActiveToday(ctx, branchID)
	assert.NoError(t, err)
	assert.Len(t, today, 2)
	todayIDs := []uuid.UUID{today[0].ID, today[1].ID}
	assert.Contains(t, todayIDs, live.ID)
	assert.Contains(t, todayIDs, dropped.ID)

	archive, err := repo.ListArchive(ctx, branchID)
	assert.NoError(t, err)
	assert.Len(t, archive, 2)
	ids := []uuid.UUID{archive[0].ID, archive[1].ID}
	assert.Contains(t, ids, old.ID)
	assert.Contains(t, ids, finished.ID)
}

func TestOccupiedRoomNumbers(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	branchID := uuid.New()

	seated := []struct {
		room  int
		name  string
		phone string
	}{
		{5, "Jana", "+966512000008"},
		{2, "Kamal", "+966512000019"},
	}
	for _, s := range seated {
		r := s.room
		entry := &Entry{
			ID:         uuid.New(),
			CustomerID: seedCustomer(t, db, s.name, s.phone).ID,
			BranchID:   branchID,
			Guests:     2,
			WaitTime:   10,
			Status:     StatusSeated,
			RoomNumber: &r,
		}
		assert.NoError(t, db.Create(entry).Error)
	}
	seedEntry(t, db, seedCustomer(t, db, "Lama", "+966512000020").ID, branchID, StatusWaiting)

	rooms, err := repo.OccupiedRoomNumbers(ctx, branchID)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 5}, rooms)
}

func TestCreateRejectsSecondActiveEntry(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Mona", "+966512000021")
	branchID := uuid.New()

	first := &Entry{CustomerID: customer.ID, BranchID: branchID, Guests: 2, WaitTime: 15, Status: StatusWaiting}
	assert.NoError(t, repo.Create(ctx, first))

	// The store itself blocks a second live entry for the customer,
	// even at another branch, so a raced insert cannot slip past the
	// service-level check.
	second := &Entry{CustomerID: customer.ID, BranchID: uuid.New(), Guests: 3, WaitTime: 15, Status: StatusWaiting}
	assert.Error(t, repo.Create(ctx, second))

	// Once the first entry is terminal the customer can join again.
	_, err := repo.UpdateStatus(ctx, first.ID, StatusWaiting, StatusCancelled)
	assert.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, second))
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
