package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	StatusQueued DeliveryStatus = "queued"
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// SMSMessage is the wire payload carried over the message broker.
type SMSMessage struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *SMSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SMSMessageFromJSON(data []byte) (*SMSMessage, error) {
	var msg SMSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SMSRecord is the delivery log row. Every dispatched message leaves
// one, whatever its fate, so operators can audit what customers were
// told.
type SMSRecord struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Phone     string         `json:"phone" gorm:"type:varchar(20);not null;index"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Status    DeliveryStatus `json:"status" gorm:"type:varchar(10);not null;default:'queued';index"`
	LastError *string        `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (SMSRecord) TableName() string {
	return "sms_records"
}
