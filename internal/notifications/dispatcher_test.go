package notifications

import (
	"context"
	"fmt"
	"testing"

	"tabour/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newNotificationsDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&SMSRecord{}))
	return db
}

func TestDirectDispatcherMarksSent(t *testing.T) {
	db := newNotificationsDB(t)
	repo := NewRepository(db)
	dispatcher := NewDirectDispatcher(NewProvider("noop", logger.New()), repo, logger.New())

	err := dispatcher.Send(context.Background(), "+966512345678", "Your table is ready!")
	assert.NoError(t, err)

	records, err := repo.ListByPhone(context.Background(), "+966512345678", 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, StatusSent, records[0].Status)
	assert.Equal(t, "Your table is ready!", records[0].Message)
	assert.Nil(t, records[0].LastError)
}

func TestDirectDispatcherMarksFailed(t *testing.T) {
	db := newNotificationsDB(t)
	repo := NewRepository(db)
	dispatcher := NewDirectDispatcher(NewProvider("fail", logger.New()), repo, logger.New())

	err := dispatcher.Send(context.Background(), "+966512345678", "hello")
	assert.Error(t, err)

	// The record survives with the failure reason; the caller decides
	// whether the error matters.
	records, err := repo.ListByPhone(context.Background(), "+966512345678", 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, StatusFailed, records[0].Status)
	assert.NotNil(t, records[0].LastError)
	assert.Equal(t, "provider failure", *records[0].LastError)
}

func TestListRecentHonorsLimit(t *testing.T) {
	db := newNotificationsDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := &SMSRecord{
			Phone:   fmt.Sprintf("+96651200000%d", i),
			Message: "ping",
			Status:  StatusQueued,
		}
		assert.NoError(t, repo.Create(ctx, record))
	}

	records, err := repo.ListRecent(ctx, 3)
	assert.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestSMSMessageRoundTrip(t *testing.T) {
	msg := &SMSMessage{ID: uuid.New(), Phone: "+96551234567", Message: "code 123456"}
	payload, err := msg.ToJSON()
	assert.NoError(t, err)

	decoded, err := SMSMessageFromJSON(payload)
	assert.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Phone, decoded.Phone)

	_, err = SMSMessageFromJSON([]byte("{not json"))
	assert.Error(t, err)
}
