package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tabour/internal/branches"
	"tabour/internal/customers"
	"tabour/internal/shared/middleware"
	"tabour/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotAuthorized = errors.New("not authorized for this branch")

// BranchReader fetches branch details (to avoid import cycles the
// queue package only needs reads).
type BranchReader interface {
	GetBranch(ctx context.Context, id uuid.UUID) (*branches.Branch, error)
}

// Verifier runs the out-of-band code challenge before a join is
// admitted.
type Verifier interface {
	Begin(ctx context.Context, phone string) error
	Confirm(ctx context.Context, phone, code string) error
}

// Notifier delivers a customer-facing message. Delivery is best
// effort; a failure never rolls back the transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// ChangePublisher fans an entry change out to live viewers.
type ChangePublisher interface {
	EntryChanged(branchID uuid.UUID, event string, payload interface{})
}

// Service interface defines the contract for queue business operations
type Service interface {
	// Customer-facing intake
	RequestJoin(ctx context.Context, req *JoinRequest) error
	VerifyAndJoin(ctx context.Context, req *VerifyRequest) (*EntryResponse, error)
	BranchStatus(ctx context.Context, branchID uuid.UUID) ([]StatusView, error)

	// Staff-facing operations
	Transition(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, req *TransitionRequest) (*EntryResponse, error)
	ListToday(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]EntryResponse, error)
	ListArchive(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]EntryResponse, error)
	AvailableRooms(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]int, error)
	BranchSummary(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) (*BranchSummary, error)
	HoldRoom(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, roomNumber int) error
	ReleaseRoom(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, roomNumber int) error
}

type service struct {
	repo      Repository
	customers customers.Repository
	branches  BranchReader
	estimator *Estimator
	allocator *Allocator
	holds     *RoomHolds
	verifier  Verifier
	notifier  Notifier
	publisher ChangePublisher
	logger    *logger.Logger
}

func NewService(
	repo Repository,
	customerRepo customers.Repository,
	branchReader BranchReader,
	estimator *Estimator,
	allocator *Allocator,
	holds *RoomHolds,
	verifier Verifier,
	notifier Notifier,
	publisher ChangePublisher,
	log *logger.Logger,
) Service {
	return &service{
		repo:      repo,
		customers: customerRepo,
		branches:  branchReader,
		estimator: estimator,
		allocator: allocator,
		holds:     holds,
		verifier:  verifier,
		notifier:  notifier,
		publisher: publisher,
		logger:    log,
	}
}

// RequestJoin runs intake steps that precede admission: phone
// validation, the system-wide duplicate check, then the code
// challenge. No entry is written here.
func (s *service) RequestJoin(ctx context.Context, req *JoinRequest) error {
	phone, err := NormalizePhone(req.CountryCode, req.LocalNumber)
	if err != nil {
		return err
	}
	if req.Guests < 1 {
		return NewValidationError("guests", "party size must be at least 1")
	}

	if _, err := s.branches.GetBranch(ctx, req.BranchID); err != nil {
		return err
	}

	if err := s.rejectDuplicateActive(ctx, phone); err != nil {
		return err
	}

	return s.verifier.Begin(ctx, phone)
}

// VerifyAndJoin finalizes admission after a successful code challenge.
// Validation and the duplicate check run again here so a conflicting
// entry created while the code was in flight is still caught before
// the write.
func (s *service) VerifyAndJoin(ctx context.Context, req *VerifyRequest) (*EntryResponse, error) {
	phone, err := NormalizePhone(req.CountryCode, req.LocalNumber)
	if err != nil {
		return nil, err
	}
	if req.Guests < 1 {
		return nil, NewValidationError("guests", "party size must be at least 1")
	}

	branch, err := s.branches.GetBranch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	if err := s.rejectDuplicateActive(ctx, phone); err != nil {
		return nil, err
	}

	if err := s.verifier.Confirm(ctx, phone, req.Code); err != nil {
		return nil, err
	}

	customer, err := s.customers.UpsertByPhone(ctx, req.Name, phone)
	if err != nil {
		return nil, err
	}

	waitTime, err := s.estimator.Estimate(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		CustomerID: customer.ID,
		BranchID:   req.BranchID,
		Guests:     req.Guests,
		WaitTime:   waitTime,
		Status:     StatusWaiting,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		// The unique index on active entries can reject a write that
		// raced past the check above. Re-read so the caller gets the
		// same duplicate error either way.
		if dupErr := s.rejectDuplicateActive(ctx, phone); dupErr != nil {
			return nil, dupErr
		}
		return nil, err
	}
	entry.Customer = *customer

	s.logger.LogQueueEntryCreated(ctx, entry.ID.String(), entry.BranchID.String(), waitTime)
	s.notify(ctx, phone, fmt.Sprintf(
		"Welcome %s! You joined the queue at %s. Estimated wait: %d minutes.",
		customer.Name, branch.Name, waitTime))
	s.publish(entry, "entry_created")

	resp := entry.ToResponse(time.Now().UTC())
	return &resp, nil
}

// rejectDuplicateActive enforces one live queue position per customer
// across the whole system, not just the requested branch.
func (s *service) rejectDuplicateActive(ctx context.Context, phone string) error {
	customer, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	active, err := s.repo.FindActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return err
	}
	if active == nil {
		return nil
	}

	branchName := "another branch"
	if branch, err := s.branches.GetBranch(ctx, active.BranchID); err == nil {
		branchName = branch.Name
	}
	return &DuplicateActiveError{Status: active.Status, BranchName: branchName}
}

// BranchStatus is the public poll payload: today's live entries with
// queue positions, phone numbers withheld.
func (s *service) BranchStatus(ctx context.Context, branchID uuid.UUID) ([]StatusView, error) {
	entries, err := s.repo.ListActiveToday(ctx, branchID)
	if err != nil {
		return nil, err
	}

	views := make([]StatusView, 0, len(entries))
	position := 0
	for i := range entries {
		entry := &entries[i]
		view := StatusView{
			ID:         entry.ID,
			Name:       entry.Customer.Name,
			Guests:     entry.Guests,
			WaitTime:   entry.WaitTime,
			Status:     entry.Status,
			RoomNumber: entry.RoomNumber,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.Status == StatusWaiting {
			position++
			view.Position = position
		}
		views = append(views, view)
	}
	return views, nil
}

// Transition applies a staff-driven status change. The room check for
// seating happens inside a single guarded write, so a losing racer
// gets a RoomConflictError instead of a silent double booking.
func (s *service) Transition(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, req *TransitionRequest) (*EntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !cap.CanManageBranch(entry.BranchID.String()) {
		return nil, ErrNotAuthorized
	}

	target := req.TargetStatus
	if !target.IsValid() {
		return nil, NewValidationError("target_status", "unknown status")
	}
	if !entry.Status.CanTransitionTo(target) {
		return nil, &IllegalTransitionError{From: entry.Status, To: target}
	}

	var updated *Entry
	if target == StatusSeated {
		if req.RoomNumber == nil {
			return nil, ErrRoomNumberNeeded
		}
		branch, err := s.branches.GetBranch(ctx, entry.BranchID)
		if err != nil {
			return nil, err
		}
		if *req.RoomNumber < 1 || *req.RoomNumber > branch.RoomsCount {
			return nil, NewValidationError("room_number",
				fmt.Sprintf("room must be between 1 and %d", branch.RoomsCount))
		}
		updated, err = s.repo.AssignRoom(ctx, entryID, entry.BranchID, *req.RoomNumber)
		if err != nil {
			return nil, err
		}
		if holdErr := s.holds.Release(ctx, entry.BranchID, *req.RoomNumber, entryID); holdErr != nil {
			s.logger.WithError(holdErr).Warn("failed to release room hold")
		}
		s.logger.LogRoomAssigned(ctx, entryID.String(), entry.BranchID.String(), *req.RoomNumber)
	} else {
		updated, err = s.repo.UpdateStatus(ctx, entryID, entry.Status, target)
		if err != nil {
			return nil, err
		}
	}

	s.logger.LogQueueTransition(ctx, entryID.String(), string(entry.Status), string(target))
	s.notifyTransition(ctx, updated, target, req.RoomNumber)
	s.publish(updated, "entry_updated")

	resp := updated.ToResponse(time.Now().UTC())
	return &resp, nil
}

// notifyTransition fires the side-channel message for seated,
// cancelled and completed. Calling a customer intentionally sends
// nothing; staff announce it in person.
func (s *service) notifyTransition(ctx context.Context, entry *Entry, target Status, roomNumber *int) {
	var message string
	switch target {
	case StatusSeated:
		room := 0
		if roomNumber != nil {
			room = *roomNumber
		}
		message = fmt.Sprintf("Your table is ready! Please proceed to room %d.", room)
	case StatusCancelled:
		message = "Your queue request has been cancelled."
	case StatusCompleted:
		message = "Thank you for visiting us! We hope to see you again."
	default:
		return
	}
	s.notify(ctx, entry.Customer.Phone, message)
}

func (s *service) notify(ctx context.Context, phone, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, phone, message); err != nil {
		s.logger.LogNotificationFailure(ctx, phone, err)
	}
}

func (s *service) publish(entry *Entry, event string) {
	if s.publisher == nil {
		return
	}
	s.publisher.EntryChanged(entry.BranchID, event, entry.ToResponse(time.Now().UTC()))
}

func (s *service) ListToday(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]EntryResponse, error) {
	if !cap.CanManageBranch(branchID.String()) {
		return nil, ErrNotAuthorized
	}
	entries, err := s.repo.ListActiveToday(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return toResponses(entries), nil
}

func (s *service) ListArchive(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]EntryResponse, error) {
	if !cap.CanManageBranch(branchID.String()) {
		return nil, ErrNotAuthorized
	}
	entries, err := s.repo.ListArchive(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return toResponses(entries), nil
}

func (s *service) AvailableRooms(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]int, error) {
	if !cap.CanManageBranch(branchID.String()) {
		return nil, ErrNotAuthorized
	}
	branch, err := s.branches.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return s.allocator.AvailableRooms(ctx, branchID, branch.RoomsCount)
}

// BranchSummary is the dashboard header: live counts, occupancy and
// the current quote a new customer would receive.
func (s *service) BranchSummary(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) (*BranchSummary, error) {
	if !cap.CanManageBranch(branchID.String()) {
		return nil, ErrNotAuthorized
	}
	branch, err := s.branches.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListActiveToday(ctx, branchID)
	if err != nil {
		return nil, err
	}
	summary := &BranchSummary{
		BranchID:   branchID,
		RoomsCount: branch.RoomsCount,
	}
	for i := range entries {
		switch entries[i].Status {
		case StatusWaiting:
			summary.Waiting++
		case StatusCalled:
			summary.Called++
		case StatusSeated:
			summary.Seated++
		}
	}

	occupied, err := s.repo.OccupiedRoomNumbers(ctx, branchID)
	if err != nil {
		return nil, err
	}
	summary.OccupiedRooms = occupied

	estimate, err := s.estimator.Estimate(ctx, branchID)
	if err != nil {
		return nil, err
	}
	summary.CurrentEstimate = estimate

	return summary, nil
}

func (s *service) HoldRoom(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, roomNumber int) error {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if !cap.CanManageBranch(entry.BranchID.String()) {
		return ErrNotAuthorized
	}
	return s.holds.Hold(ctx, entry.BranchID, roomNumber, entryID)
}

func (s *service) ReleaseRoom(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, roomNumber int) error {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if !cap.CanManageBranch(entry.BranchID.String()) {
		return ErrNotAuthorized
	}
	return s.holds.Release(ctx, entry.BranchID, roomNumber, entryID)
}

func toResponses(entries []Entry) []EntryResponse {
	now := time.Now().UTC()
	responses := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse(now))
	}
	return responses
}
