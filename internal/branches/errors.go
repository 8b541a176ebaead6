package branches

import "errors"

var (
	ErrBranchNotFound  = errors.New("branch not found")
	ErrMinRooms        = errors.New("a branch must keep at least one room")
	ErrRoomsInUse      = errors.New("cannot shrink rooms below the highest occupied room")
	ErrInvalidWaitTime = errors.New("expected wait time must be between 5 and 60 minutes in steps of 5")
)
