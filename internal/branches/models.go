package branches

import (
	"time"

	"github.com/google/uuid"
)

// Settings bounds. Expected wait moves in 5-minute steps between 5 and 60;
// a branch always keeps at least one room.
const (
	MinRooms         = 1
	MinExpectedWait  = 5
	MaxExpectedWait  = 60
	ExpectedWaitStep = 5
)

// Branch is a restaurant location with its own queue, rooms and staff login.
type Branch struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(120);not null"`
	Address          string    `json:"address" gorm:"type:varchar(255);not null"`
	Phone            string    `json:"phone" gorm:"type:varchar(20);not null"`
	RoomsCount       int       `json:"rooms_count" gorm:"not null;default:1"`
	ExpectedWaitTime int       `json:"expected_wait_time" gorm:"not null;default:15"`
	PasswordHash     string    `json:"-" gorm:"type:varchar(100);not null"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Branch
func (Branch) TableName() string {
	return "branches"
}

// CreateBranchRequest is the admin payload for a new branch
type CreateBranchRequest struct {
	Name             string `json:"name" binding:"required,min=2"`
	Address          string `json:"address" binding:"required"`
	Phone            string `json:"phone" binding:"required"`
	RoomsCount       int    `json:"rooms_count" binding:"omitempty,min=1"`
	ExpectedWaitTime int    `json:"expected_wait_time" binding:"omitempty,min=5,max=60"`
	Password         string `json:"password" binding:"required,min=8"`
}

// UpdateSettingsRequest carries optional settings changes; nil means "leave as is"
type UpdateSettingsRequest struct {
	RoomsCount       *int `json:"rooms_count" binding:"omitempty,min=1"`
	ExpectedWaitTime *int `json:"expected_wait_time" binding:"omitempty,min=5,max=60"`
}

// BranchResponse is the public projection of a branch (no credentials)
type BranchResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	RoomsCount       int       `json:"rooms_count"`
	ExpectedWaitTime int       `json:"expected_wait_time"`
}

func (b *Branch) ToResponse() BranchResponse {
	return BranchResponse{
		ID:               b.ID,
		Name:             b.Name,
		Address:          b.Address,
		Phone:            b.Phone,
		RoomsCount:       b.RoomsCount,
		ExpectedWaitTime: b.ExpectedWaitTime,
	}
}
