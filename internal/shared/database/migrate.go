package database

import (
	"tabour/internal/auth"
	"tabour/internal/bookings"
	"tabour/internal/branches"
	"tabour/internal/customers"
	"tabour/internal/notifications"
	"tabour/internal/otp"
	"tabour/internal/queue"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&auth.StaffUser{},
		&branches.Branch{},
		&customers.Customer{},
		&queue.Entry{},
		&bookings.Booking{},
		&otp.Verification{},
		&notifications.SMSRecord{},
	); err != nil {
		return err
	}
	return queue.EnsureIndexes(db)
}
