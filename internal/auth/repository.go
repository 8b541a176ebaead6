package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("staff user not found")

type Repository interface {
	Create(ctx context.Context, user *StaffUser) error
	GetByUsername(ctx context.Context, username string) (*StaffUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StaffUser, error)
	List(ctx context.Context) ([]StaffUser, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *StaffUser) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*StaffUser, error) {
	var user StaffUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*StaffUser, error) {
	var user StaffUser
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context) ([]StaffUser, error) {
	var users []StaffUser
	err := r.db.WithContext(ctx).Order("username asc").Find(&users).Error
	return users, err
}
