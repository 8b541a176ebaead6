package queue

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*Entry, error)
	WaitTimesSince(ctx context.Context, branchID uuid.UUID, since time.Time) ([]int, error)
	ListActiveToday(ctx context.Context, branchID uuid.UUID) ([]Entry, error)
	ListArchive(ctx context.Context, branchID uuid.UUID) ([]Entry, error)
	OccupiedRoomNumbers(ctx context.Context, branchID uuid.UUID) ([]int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Entry, error)
	AssignRoom(ctx context.Context, id uuid.UUID, branchID uuid.UUID, roomNumber int) (*Entry, error)
}

type repository struct {
	db            *gorm.DB
	retryAttempts uint64
	retryBase     time.Duration
}

// EnsureIndexes creates the partial unique index that backs the
// one-live-entry-per-customer rule at the store level. AutoMigrate
// cannot express a partial index, so it is created directly.
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_entries_customer_active
		ON queue_entries (customer_id)
		WHERE status IN ('waiting', 'called', 'seated')`).Error
}

func NewRepository(db *gorm.DB, retryAttempts int, retryBase time.Duration) Repository {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &repository{
		db:            db,
		retryAttempts: uint64(retryAttempts),
		retryBase:     retryBase,
	}
}

// withReadRetry retries a read with exponential backoff. Writes never
// go through here: a write that could have partially succeeded must
// not be replayed without an idempotency guard.
func (r *repository) withReadRetry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryBase

	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.retryAttempts-1), ctx))

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, context.Canceled) {
		return &TransientStoreError{Op: op, Err: err}
	}
	return err
}

func (r *repository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.withReadRetry(ctx, "get_entry", func() error {
		return r.db.WithContext(ctx).Preload("Customer").First(&entry, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindActiveByCustomer looks across every branch. Returns nil with no
// error when the customer holds no live position.
func (r *repository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.withReadRetry(ctx, "find_active_entry", func() error {
		return r.db.WithContext(ctx).
			Where("customer_id = ? AND status IN ?", customerID, ActiveStatuses).
			First(&entry).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) WaitTimesSince(ctx context.Context, branchID uuid.UUID, since time.Time) ([]int, error) {
	var waits []int
	err := r.withReadRetry(ctx, "wait_times_since", func() error {
		return r.db.WithContext(ctx).Model(&Entry{}).
			Where("branch_id = ? AND created_at >= ? AND status <> ?", branchID, since, StatusCancelled).
			Pluck("wait_time", &waits).Error
	})
	if err != nil {
		return nil, err
	}
	return waits, nil
}

func (r *repository) ListActiveToday(ctx context.Context, branchID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := r.withReadRetry(ctx, "list_active_today", func() error {
		return r.db.WithContext(ctx).Preload("Customer").
			Where("branch_id = ? AND created_at >= ? AND status <> ?",
				branchID, startOfToday(), StatusCompleted).
			Order("created_at asc").
			Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListArchive(ctx context.Context, branchID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := r.withReadRetry(ctx, "list_archive", func() error {
		return r.db.WithContext(ctx).Preload("Customer").
			Where("branch_id = ? AND (created_at < ? OR status = ?)",
				branchID, startOfToday(), StatusCompleted).
			Order("created_at desc").
			Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) OccupiedRoomNumbers(ctx context.Context, branchID uuid.UUID) ([]int, error) {
	var rooms []int
	err := r.withReadRetry(ctx, "occupied_rooms", func() error {
		return r.db.WithContext(ctx).Model(&Entry{}).
			Where("branch_id = ? AND status = ? AND room_number IS NOT NULL", branchID, StatusSeated).
			Order("room_number asc").
			Pluck("room_number", &rooms).Error
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// UpdateStatus performs a guarded write: the row is updated only if it
// is still in the expected source state. Terminal transitions also
// clear room_number so the room is freed in the same statement.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Entry, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if to.IsTerminal() {
		updates["room_number"] = nil
	}

	result := r.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &IllegalTransitionError{From: current.Status, To: to}
	}

	return r.GetByID(ctx, id)
}

// AssignRoom is the called to seated transition. The room-availability
// check and the write happen in one conditional UPDATE so two staff
// members racing for the same room cannot both win.
func (r *repository) AssignRoom(ctx context.Context, id uuid.UUID, branchID uuid.UUID, roomNumber int) (*Entry, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE queue_entries
		SET status = ?, room_number = ?, updated_at = ?
		WHERE id = ? AND status = ?
		AND NOT EXISTS (
			SELECT 1 FROM queue_entries occupied
			WHERE occupied.branch_id = ?
			AND occupied.status = ?
			AND occupied.room_number = ?
		)`,
		StatusSeated, roomNumber, time.Now().UTC(),
		id, StatusCalled,
		branchID, StatusSeated, roomNumber,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status != StatusCalled {
			return nil, &IllegalTransitionError{From: current.Status, To: StatusSeated}
		}
		return nil, &RoomConflictError{RoomNumber: roomNumber}
	}

	return r.GetByID(ctx, id)
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
