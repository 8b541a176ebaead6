package queue

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound    = errors.New("queue entry not found")
	ErrRoomNumberNeeded = errors.New("room number is required when seating an entry")
)

// ValidationError reports a malformed intake field. Nothing is written
// when one is returned.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateActiveError rejects a join attempt from a customer who
// already holds a live queue position somewhere in the system. It
// carries the conflicting entry's status and branch name so the
// customer can be told where they already are.
type DuplicateActiveError struct {
	Status     Status `json:"status"`
	BranchName string `json:"branch_name"`
}

func (e *DuplicateActiveError) Error() string {
	return fmt.Sprintf("customer already has a %s entry at %s", e.Status, e.BranchName)
}

// IllegalTransitionError rejects a status change that is not in the
// transition table. The entry is left untouched.
type IllegalTransitionError struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot transition queue entry from %s to %s", e.From, e.To)
}

// RoomConflictError means the target room was taken between the staff
// member's read and the write. The caller should pick another room.
type RoomConflictError struct {
	RoomNumber int `json:"room_number"`
}

func (e *RoomConflictError) Error() string {
	return fmt.Sprintf("room %d is already occupied", e.RoomNumber)
}

// TransientStoreError wraps a store failure that exhausted its retry
// budget.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}
