package queue

import (
	"time"

	"tabour/internal/customers"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCalled    Status = "called"
	StatusSeated    Status = "seated"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the states in which a customer holds a live queue
// position. A customer may hold at most one entry in these states
// across all branches.
var ActiveStatuses = []Status{StatusWaiting, StatusCalled, StatusSeated}

// transitions enumerates every permitted status change. Anything not
// listed here is rejected.
var transitions = map[Status][]Status{
	StatusWaiting:   {StatusCalled, StatusCancelled},
	StatusCalled:    {StatusSeated, StatusCancelled},
	StatusSeated:    {StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) IsActive() bool {
	return s == StatusWaiting || s == StatusCalled || s == StatusSeated
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

type Entry struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID          `json:"customer_id" gorm:"type:uuid;not null;index"`
	Customer   customers.Customer `json:"customer" gorm:"foreignKey:CustomerID"`
	BranchID   uuid.UUID          `json:"branch_id" gorm:"type:uuid;not null;index"`
	Guests     int                `json:"guests" gorm:"not null"`
	WaitTime   int                `json:"wait_time" gorm:"not null"`
	Status     Status             `json:"status" gorm:"type:varchar(20);not null;default:'waiting';index"`
	RoomNumber *int               `json:"room_number" gorm:"index"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (Entry) TableName() string {
	return "queue_entries"
}

type JoinRequest struct {
	Name        string    `json:"name" binding:"required,min=2,max=120"`
	CountryCode string    `json:"country_code" binding:"required"`
	LocalNumber string    `json:"local_number" binding:"required"`
	Guests      int       `json:"guests" binding:"required,min=1,max=50"`
	BranchID    uuid.UUID `json:"branch_id" binding:"required"`
}

type VerifyRequest struct {
	JoinRequest
	Code string `json:"code" binding:"required,len=6,numeric"`
}

type TransitionRequest struct {
	TargetStatus Status `json:"target_status" binding:"required"`
	RoomNumber   *int   `json:"room_number"`
}

type EntryResponse struct {
	ID             uuid.UUID `json:"id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	BranchID       uuid.UUID `json:"branch_id"`
	Guests         int       `json:"guests"`
	WaitTime       int       `json:"wait_time"`
	Status         Status    `json:"status"`
	RoomNumber     *int      `json:"room_number,omitempty"`
	Position       int       `json:"position,omitempty"`
	ElapsedMinutes *int      `json:"elapsed_minutes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StatusView is the public customer-facing poll payload. Phone numbers
// are withheld from it.
type StatusView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Guests     int       `json:"guests"`
	WaitTime   int       `json:"wait_time"`
	Status     Status    `json:"status"`
	Position   int       `json:"position,omitempty"`
	RoomNumber *int      `json:"room_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BranchSummary is the dashboard occupancy snapshot.
type BranchSummary struct {
	BranchID        uuid.UUID `json:"branch_id"`
	Waiting         int       `json:"waiting"`
	Called          int       `json:"called"`
	Seated          int       `json:"seated"`
	RoomsCount      int       `json:"rooms_count"`
	OccupiedRooms   []int     `json:"occupied_rooms"`
	CurrentEstimate int       `json:"current_estimate"`
}

// ElapsedMinutes derives how long the entry has been (or was) in the
// queue. Waiting entries keep counting from creation; called, seated
// and completed entries freeze at their last status change; cancelled
// entries report nothing.
func (e *Entry) ElapsedMinutes(now time.Time) *int {
	var d time.Duration
	switch e.Status {
	case StatusWaiting:
		d = now.Sub(e.CreatedAt)
	case StatusCalled, StatusSeated, StatusCompleted:
		d = e.UpdatedAt.Sub(e.CreatedAt)
	default:
		return nil
	}
	minutes := int(d.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}

func (e *Entry) ToResponse(now time.Time) EntryResponse {
	return EntryResponse{
		ID:             e.ID,
		CustomerName:   e.Customer.Name,
		CustomerPhone:  e.Customer.Phone,
		BranchID:       e.BranchID,
		Guests:         e.Guests,
		WaitTime:       e.WaitTime,
		Status:         e.Status,
		RoomNumber:     e.RoomNumber,
		ElapsedMinutes: e.ElapsedMinutes(now),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
