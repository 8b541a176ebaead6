package otp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tabour/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Send(ctx context.Context, phone, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func newOTPService(t *testing.T, expiry time.Duration) (Service, *gorm.DB, *recordingSender) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&Verification{}))

	sender := &recordingSender{}
	return NewService(db, sender, 6, expiry, logger.New()), db, sender
}

func pendingCode(t *testing.T, db *gorm.DB, phone string) string {
	var verification Verification
	err := db.Where("phone = ? AND verified = ?", phone, false).
		Order("created_at desc").First(&verification).Error
	assert.NoError(t, err)
	return verification.Code
}

func TestBeginIssuesCode(t *testing.T) {
	svc, db, sender := newOTPService(t, 5*time.Minute)
	ctx := context.Background()

	assert.NoError(t, svc.Begin(ctx, "+966512345678"))

	code := pendingCode(t, db, "+966512345678")
	assert.Len(t, code, 6)
	assert.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], code)
}

func TestBeginReusesPendingCode(t *testing.T) {
	svc, db, sender := newOTPService(t, 5*time.Minute)
	ctx := context.Background()
	phone := "+966512345678"

	assert.NoError(t, svc.Begin(ctx, phone))
	first := pendingCode(t, db, phone)

	// Tapping "send code" again while the challenge is live changes
	// nothing: no new row, no second SMS, the first code still works.
	assert.NoError(t, svc.Begin(ctx, phone))

	var count int64
	assert.NoError(t, db.Model(&Verification{}).
		Where("phone = ? AND verified = ?", phone, false).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, sender.messages, 1)

	assert.Equal(t, first, pendingCode(t, db, phone))
	assert.NoError(t, svc.Confirm(ctx, phone, first))
}

func TestBeginReplacesExpiredCode(t *testing.T) {
	svc, db, sender := newOTPService(t, 5*time.Minute)
	ctx := context.Background()
	phone := "+966512345678"

	stale := &Verification{
		ID:        uuid.New(),
		Phone:     phone,
		Code:      "111111",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	assert.NoError(t, db.Create(stale).Error)

	assert.NoError(t, svc.Begin(ctx, phone))

	// The expired challenge is gone and a single fresh one is live.
	var count int64
	assert.NoError(t, db.Model(&Verification{}).
		Where("phone = ? AND verified = ?", phone, false).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, sender.messages, 1)

	code := pendingCode(t, db, phone)
	assert.Contains(t, sender.messages[0], code)
	assert.NoError(t, svc.Confirm(ctx, phone, code))
}

func TestConfirmHappyPath(t *testing.T) {
	svc, db, _ := newOTPService(t, 5*time.Minute)
	ctx := context.Background()
	phone := "+96551234567"

	assert.NoError(t, svc.Begin(ctx, phone))
	code := pendingCode(t, db, phone)

	assert.NoError(t, svc.Confirm(ctx, phone, code))

	// The challenge is consumed; replaying it finds nothing pending.
	assert.ErrorIs(t, svc.Confirm(ctx, phone, code), ErrNoPendingCode)
}

func TestConfirmTrimsWhitespace(t *testing.T) {
	svc, db, _ := newOTPService(t, 5*time.Minute)
	ctx := context.Background()
	phone := "+96551234567"

	assert.NoError(t, svc.Begin(ctx, phone))
	code := pendingCode(t, db, phone)

	assert.NoError(t, svc.Confirm(ctx, phone, " "+code+" "))
}

func TestConfirmWrongCode(t *testing.T) {
	svc, db, _ := newOTPService(t, 5*time.Minute)
	ctx := context.Background()
	phone := "+96551234567"

	assert.NoError(t, svc.Begin(ctx, phone))
	code := pendingCode(t, db, phone)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	assert.ErrorIs(t, svc.Confirm(ctx, phone, wrong), ErrCodeInvalid)

	// A wrong guess does not burn the challenge.
	assert.NoError(t, svc.Confirm(ctx, phone, code))
}

func TestConfirmExpiredCode(t *testing.T) {
	svc, db, _ := newOTPService(t, -time.Minute)
	ctx := context.Background()
	phone := "+96551234567"

	assert.NoError(t, svc.Begin(ctx, phone))
	code := pendingCode(t, db, phone)

	assert.ErrorIs(t, svc.Confirm(ctx, phone, code), ErrCodeExpired)
}

func TestConfirmWithoutPendingCode(t *testing.T) {
	svc, _, _ := newOTPService(t, 5*time.Minute)

	assert.ErrorIs(t, svc.Confirm(context.Background(), "+96551234567", "123456"), ErrNoPendingCode)
}
