package bookings

import (
	"time"

	"tabour/internal/customers"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Booking is a plain reservation record. No wait-time or room logic
// attaches to it; the live queue handles those.
type Booking struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID          `json:"customer_id" gorm:"type:uuid;not null;index"`
	Customer   customers.Customer `json:"customer" gorm:"foreignKey:CustomerID"`
	BranchID   uuid.UUID          `json:"branch_id" gorm:"type:uuid;not null;index"`
	Date       string             `json:"date" gorm:"type:varchar(10);not null;index"`
	Time       string             `json:"time" gorm:"type:varchar(5);not null"`
	Guests     int                `json:"guests" gorm:"not null"`
	Status     BookingStatus      `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

type CreateBookingRequest struct {
	Name        string    `json:"name" binding:"required,min=2,max=120"`
	CountryCode string    `json:"country_code" binding:"required"`
	LocalNumber string    `json:"local_number" binding:"required"`
	BranchID    uuid.UUID `json:"branch_id" binding:"required"`
	Date        string    `json:"date" binding:"required"`
	Time        string    `json:"time" binding:"required"`
	Guests      int       `json:"guests" binding:"required,min=1,max=50"`
}

type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

type BookingResponse struct {
	ID            uuid.UUID     `json:"id"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	BranchID      uuid.UUID     `json:"branch_id"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Guests        int           `json:"guests"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		CustomerName:  b.Customer.Name,
		CustomerPhone: b.Customer.Phone,
		BranchID:      b.BranchID,
		Date:          b.Date,
		Time:          b.Time,
		Guests:        b.Guests,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
}
