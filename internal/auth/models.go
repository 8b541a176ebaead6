package auth

import (
	"time"

	"github.com/google/uuid"
)

// StaffUser is a staff login. Admins are not branch-scoped; managers
// carry the branch they run.
type StaffUser struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Username     string     `json:"username" gorm:"type:varchar(60);not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	Role         string     `json:"role" gorm:"type:varchar(20);not null"`
	BranchID     *uuid.UUID `json:"branch_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	Role      string     `json:"role"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type CreateStaffRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=60"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     string     `json:"role" validate:"required,oneof=admin manager"`
	BranchID *uuid.UUID `json:"branch_id"`
}

type StaffResponse struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Role     string     `json:"role"`
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
}

func (u *StaffUser) ToResponse() StaffResponse {
	return StaffResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		BranchID: u.BranchID,
	}
}
