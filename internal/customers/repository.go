package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	UpsertByPhone(ctx context.Context, name, phone string) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertByPhone creates the customer or, when the phone is already known,
// refreshes the stored name. Either way the caller gets the current row back.
func (r *repository) UpsertByPhone(ctx context.Context, name, phone string) (*Customer, error) {
	customer := &Customer{
		ID:    uuid.New(),
		Name:  name,
		Phone: phone,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(customer).Error
	if err != nil {
		return nil, err
	}

	// The conflict path does not populate the generated ID; re-read by phone.
	return r.GetByPhone(ctx, phone)
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	var customer Customer
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var customer Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
