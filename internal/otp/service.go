package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"tabour/pkg/logger"

	"github.com/google/uuid"

	"gorm.io/gorm"
)

var (
	ErrNoPendingCode = errors.New("no pending verification for this phone")
	ErrCodeExpired   = errors.New("verification code has expired")
	ErrCodeInvalid   = errors.New("verification code is incorrect")
)

// Sender delivers the code out of band.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type Service interface {
	Begin(ctx context.Context, phone string) error
	Confirm(ctx context.Context, phone, code string) error
}

type service struct {
	db     *gorm.DB
	sender Sender
	length int
	expiry time.Duration
	logger *logger.Logger
}

func NewService(db *gorm.DB, sender Sender, length int, expiry time.Duration, log *logger.Logger) Service {
	return &service{
		db:     db,
		sender: sender,
		length: length,
		expiry: expiry,
		logger: log,
	}
}

// Begin issues a code for the phone. A re-request while an unexpired
// code is still pending is a no-op success, so the code the customer
// already received by SMS keeps working. Expired leftovers are
// discarded before a fresh code is written.
func (s *service) Begin(ctx context.Context, phone string) error {
	var pending Verification
	err := s.db.WithContext(ctx).
		Where("phone = ? AND verified = ? AND expires_at > ?", phone, false, time.Now().UTC()).
		Order("created_at desc").
		First(&pending).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	code, err := generateCode(s.length)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ? AND verified = ?", phone, false).
			Delete(&Verification{}).Error; err != nil {
			return err
		}
		return tx.Create(&Verification{
			ID:        uuid.New(),
			Phone:     phone,
			Code:      code,
			ExpiresAt: time.Now().UTC().Add(s.expiry),
		}).Error
	})
	if err != nil {
		return err
	}

	if s.sender != nil {
		message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
			code, int(s.expiry.Minutes()))
		if err := s.sender.Send(ctx, phone, message); err != nil {
			s.logger.LogNotificationFailure(ctx, phone, err)
		}
	}
	return nil
}

// Confirm checks the code against the live challenge and marks it
// verified on success.
func (s *service) Confirm(ctx context.Context, phone, code string) error {
	var verification Verification
	err := s.db.WithContext(ctx).
		Where("phone = ? AND verified = ?", phone, false).
		Order("created_at desc").
		First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPendingCode
		}
		return err
	}

	if time.Now().UTC().After(verification.ExpiresAt) {
		return ErrCodeExpired
	}
	if verification.Code != strings.TrimSpace(code) {
		return ErrCodeInvalid
	}

	return s.db.WithContext(ctx).Model(&verification).
		Updates(map[string]interface{}{"verified": true, "updated_at": time.Now().UTC()}).Error
}

func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
