package branches

import (
	"context"
	"fmt"
	"time"

	"tabour/pkg/cache"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoomOccupancy reports seating facts owned by the queue engine (interface
// here to avoid an import cycle with internal/queue).
type RoomOccupancy interface {
	HighestOccupiedRoom(ctx context.Context, branchID uuid.UUID) (int, error)
}

// Service interface defines the contract for branch administration
type Service interface {
	CreateBranch(ctx context.Context, req *CreateBranchRequest) (*Branch, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req *UpdateSettingsRequest) (*Branch, error)
	AdjustRooms(ctx context.Context, id uuid.UUID, increment bool) (*Branch, error)
	AdjustExpectedWait(ctx context.Context, id uuid.UUID, increment bool) (*Branch, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
}

type service struct {
	repo      Repository
	occupancy RoomOccupancy
	cache     cache.Service
}

// NewService creates a new branch service. The cache may be nil (tests).
func NewService(repo Repository, occupancy RoomOccupancy, cacheSvc cache.Service) Service {
	return &service{
		repo:      repo,
		occupancy: occupancy,
		cache:     cacheSvc,
	}
}

func (s *service) CreateBranch(ctx context.Context, req *CreateBranchRequest) (*Branch, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash branch password: %w", err)
	}

	branch := &Branch{
		Name:             req.Name,
		Address:          req.Address,
		Phone:            req.Phone,
		RoomsCount:       req.RoomsCount,
		ExpectedWaitTime: req.ExpectedWaitTime,
		PasswordHash:     string(hash),
	}
	if branch.RoomsCount < MinRooms {
		branch.RoomsCount = MinRooms
	}
	if branch.ExpectedWaitTime == 0 {
		branch.ExpectedWaitTime = 15
	}
	if err := validateExpectedWait(branch.ExpectedWaitTime); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.invalidateCache(ctx, branch.ID)
	return branch, nil
}

func (s *service) GetBranch(ctx context.Context, id uuid.UUID) (*Branch, error) {
	if s.cache != nil {
		var branch Branch
		err := s.cache.GetOrSet(ctx, cache.BranchKey(id.String()), time.Hour, func() (interface{}, error) {
			return s.repo.GetByID(ctx, id)
		}, &branch)
		if err == nil {
			return &branch, nil
		}
		// Fall through to the store on any cache trouble
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateSettings(ctx context.Context, id uuid.UUID, req *UpdateSettingsRequest) (*Branch, error) {
	updates := map[string]interface{}{}

	if req.RoomsCount != nil {
		if *req.RoomsCount < MinRooms {
			return nil, ErrMinRooms
		}
		if err := s.checkShrink(ctx, id, *req.RoomsCount); err != nil {
			return nil, err
		}
		updates["rooms_count"] = *req.RoomsCount
	}

	if req.ExpectedWaitTime != nil {
		if err := validateExpectedWait(*req.ExpectedWaitTime); err != nil {
			return nil, err
		}
		updates["expected_wait_time"] = *req.ExpectedWaitTime
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateSettings(ctx, id, updates); err != nil {
			return nil, err
		}
		s.invalidateCache(ctx, id)
	}

	return s.repo.GetByID(ctx, id)
}

// AdjustRooms bumps rooms_count one step up or down. Decrementing below one
// room, or below the highest currently occupied room, is rejected.
func (s *service) AdjustRooms(ctx context.Context, id uuid.UUID, increment bool) (*Branch, error) {
	branch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newCount := branch.RoomsCount + 1
	if !increment {
		newCount = branch.RoomsCount - 1
		if newCount < MinRooms {
			return nil, ErrMinRooms
		}
		if err := s.checkShrink(ctx, id, newCount); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateSettings(ctx, id, map[string]interface{}{"rooms_count": newCount}); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, id)

	branch.RoomsCount = newCount
	return branch, nil
}

// AdjustExpectedWait moves expected_wait_time one 5-minute step, clamped to
// the [5, 60] range.
func (s *service) AdjustExpectedWait(ctx context.Context, id uuid.UUID, increment bool) (*Branch, error) {
	branch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newWait := branch.ExpectedWaitTime + ExpectedWaitStep
	if !increment {
		newWait = branch.ExpectedWaitTime - ExpectedWaitStep
	}
	if newWait < MinExpectedWait {
		newWait = MinExpectedWait
	}
	if newWait > MaxExpectedWait {
		newWait = MaxExpectedWait
	}

	if newWait != branch.ExpectedWaitTime {
		if err := s.repo.UpdateSettings(ctx, id, map[string]interface{}{"expected_wait_time": newWait}); err != nil {
			return nil, err
		}
		s.invalidateCache(ctx, id)
	}

	branch.ExpectedWaitTime = newWait
	return branch, nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash branch password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// checkShrink rejects a rooms_count that would strand a seated party in a
// room above the new capacity.
func (s *service) checkShrink(ctx context.Context, id uuid.UUID, newCount int) error {
	if s.occupancy == nil {
		return nil
	}
	highest, err := s.occupancy.HighestOccupiedRoom(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check room occupancy: %w", err)
	}
	if newCount < highest {
		return ErrRoomsInUse
	}
	return nil
}

func (s *service) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cache.BranchKey(id.String()))
	_ = s.cache.Delete(ctx, cache.BranchListKey())
}

func validateExpectedWait(minutes int) error {
	if minutes < MinExpectedWait || minutes > MaxExpectedWait || minutes%ExpectedWaitStep != 0 {
		return ErrInvalidWaitTime
	}
	return nil
}
