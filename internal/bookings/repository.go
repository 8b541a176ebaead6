package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("booking not found")

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID, date string) ([]Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Customer").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID uuid.UUID, date string) ([]Booking, error) {
	query := r.db.WithContext(ctx).Preload("Customer").
		Where("branch_id = ?", branchID)
	if date != "" {
		query = query.Where("date = ?", date)
	}

	var bookings []Booking
	err := query.Order("date asc, time asc").Find(&bookings).Error
	return bookings, err
}

// UpdateStatus is guarded on the expected source status so concurrent
// staff updates cannot clobber each other.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*Booking, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return r.GetByID(ctx, id)
}

var ErrStaleStatus = errors.New("booking status changed concurrently, reload and retry")
