package bookings

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"tabour/internal/customers"
	"tabour/internal/queue"
	"tabour/internal/shared/middleware"
	"tabour/pkg/logger"

	"github.com/google/uuid"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type Service interface {
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error)
	ListBookings(ctx context.Context, cap middleware.Capability, branchID uuid.UUID, date string) ([]BookingResponse, error)
	UpdateStatus(ctx context.Context, cap middleware.Capability, bookingID uuid.UUID, req *UpdateStatusRequest) (*BookingResponse, error)
}

type service struct {
	repo      Repository
	customers customers.Repository
	branches  queue.BranchReader
	notifier  queue.Notifier
	logger    *logger.Logger
}

func NewService(repo Repository, customerRepo customers.Repository, branchReader queue.BranchReader, notifier queue.Notifier, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		customers: customerRepo,
		branches:  branchReader,
		notifier:  notifier,
		logger:    log,
	}
}

func (s *service) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error) {
	phone, err := queue.NormalizePhone(req.CountryCode, req.LocalNumber)
	if err != nil {
		return nil, err
	}
	if !datePattern.MatchString(req.Date) {
		return nil, queue.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if !timePattern.MatchString(req.Time) {
		return nil, queue.NewValidationError("time", "must be HH:MM")
	}
	if day, err := time.Parse("2006-01-02", req.Date); err != nil || day.Before(startOfToday()) {
		return nil, queue.NewValidationError("date", "must be today or later")
	}

	branch, err := s.branches.GetBranch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.UpsertByPhone(ctx, req.Name, phone)
	if err != nil {
		return nil, err
	}

	booking := &Booking{
		CustomerID: customer.ID,
		BranchID:   req.BranchID,
		Date:       req.Date,
		Time:       req.Time,
		Guests:     req.Guests,
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	booking.Customer = *customer

	s.notify(ctx, phone, fmt.Sprintf(
		"Hi %s, your booking at %s on %s at %s for %d guests is received and pending confirmation.",
		customer.Name, branch.Name, booking.Date, booking.Time, booking.Guests))

	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) ListBookings(ctx context.Context, cap middleware.Capability, branchID uuid.UUID, date string) ([]BookingResponse, error) {
	if !cap.CanManageBranch(branchID.String()) {
		return nil, queue.ErrNotAuthorized
	}
	if date != "" && !datePattern.MatchString(date) {
		return nil, queue.NewValidationError("date", "must be YYYY-MM-DD")
	}

	bookings, err := s.repo.ListByBranch(ctx, branchID, date)
	if err != nil {
		return nil, err
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}
	return responses, nil
}

func (s *service) UpdateStatus(ctx context.Context, cap middleware.Capability, bookingID uuid.UUID, req *UpdateStatusRequest) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !cap.CanManageBranch(booking.BranchID.String()) {
		return nil, queue.ErrNotAuthorized
	}

	target := req.Status
	if !target.IsValid() {
		return nil, queue.NewValidationError("status", "unknown status")
	}
	if !booking.Status.CanTransitionTo(target) {
		return nil, queue.NewValidationError("status",
			fmt.Sprintf("cannot change booking from %s to %s", booking.Status, target))
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, booking.Status, target)
	if err != nil {
		return nil, err
	}

	switch target {
	case StatusConfirmed:
		s.notify(ctx, updated.Customer.Phone, fmt.Sprintf(
			"Your booking on %s at %s is confirmed. See you then!", updated.Date, updated.Time))
	case StatusCancelled:
		s.notify(ctx, updated.Customer.Phone, "Your booking has been cancelled.")
	}

	resp := updated.ToResponse()
	return &resp, nil
}

func (s *service) notify(ctx context.Context, phone, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, phone, message); err != nil {
		s.logger.LogNotificationFailure(ctx, phone, err)
	}
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
