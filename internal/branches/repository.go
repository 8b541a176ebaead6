package branches

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, branch *Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	GetByName(ctx context.Context, name string) (*Branch, error)
	List(ctx context.Context) ([]Branch, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, branch *Branch) error {
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Branch, error) {
	var branch Branch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*Branch, error) {
	var branch Branch
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&branch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

func (r *repository) List(ctx context.Context) ([]Branch, error) {
	var result []Branch
	err := r.db.WithContext(ctx).Order("name asc").Find(&result).Error
	return result, err
}

func (r *repository) UpdateSettings(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).
		Model(&Branch{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBranchNotFound
	}
	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.UpdateSettings(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}
