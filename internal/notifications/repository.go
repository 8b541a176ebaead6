package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, record *SMSRecord) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListRecent(ctx context.Context, limit int) ([]SMSRecord, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]SMSRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *SMSRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&SMSRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     StatusSent,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&SMSRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     StatusFailed,
			"last_error": reason,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]SMSRecord, error) {
	var records []SMSRecord
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repository) ListByPhone(ctx context.Context, phone string, limit int) ([]SMSRecord, error) {
	var records []SMSRecord
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}
