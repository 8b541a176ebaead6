package otp

import (
	"time"

	"github.com/google/uuid"
)

// Verification is one issued code challenge. At most one unverified
// row per phone is live at a time; issuing a new code supersedes the
// previous one.
type Verification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Phone     string    `json:"phone" gorm:"type:varchar(20);not null;index"`
	Code      string    `json:"-" gorm:"type:varchar(10);not null"`
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Verification) TableName() string {
	return "otp_verifications"
}
