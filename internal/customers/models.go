package customers

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the identity record for a guest, keyed by phone number. The
// same phone always maps to the same customer across visits.
type Customer struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(20);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Customer
func (Customer) TableName() string {
	return "customers"
}
