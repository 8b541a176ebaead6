package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Allocator derives room occupancy for a branch from the live seated
// entries. Nothing here is cached: occupancy is recomputed from the
// store on every call so concurrent dashboards converge.
type Allocator struct {
	repo Repository
}

func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

func (a *Allocator) OccupiedRooms(ctx context.Context, branchID uuid.UUID) (map[int]bool, error) {
	rooms, err := a.repo.OccupiedRoomNumbers(ctx, branchID)
	if err != nil {
		return nil, err
	}
	occupied := make(map[int]bool, len(rooms))
	for _, room := range rooms {
		occupied[room] = true
	}
	return occupied, nil
}

// AvailableRooms returns 1..roomsCount minus the occupied rooms, in
// ascending order.
func (a *Allocator) AvailableRooms(ctx context.Context, branchID uuid.UUID, roomsCount int) ([]int, error) {
	occupied, err := a.OccupiedRooms(ctx, branchID)
	if err != nil {
		return nil, err
	}
	available := make([]int, 0, roomsCount)
	for room := 1; room <= roomsCount; room++ {
		if !occupied[room] {
			available = append(available, room)
		}
	}
	return available, nil
}

// HighestOccupiedRoom returns 0 when no room is occupied. Branch
// settings use it to refuse shrinking rooms_count below a seated room.
func (a *Allocator) HighestOccupiedRoom(ctx context.Context, branchID uuid.UUID) (int, error) {
	rooms, err := a.repo.OccupiedRoomNumbers(ctx, branchID)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, room := range rooms {
		if room > highest {
			highest = room
		}
	}
	return highest, nil
}

// Lua script for atomic room holding - prevents two dashboards from
// picking the same room while a seating dialog is open
const luaAtomicRoomHold = `
-- KEYS[1] = room hold key
-- ARGV[1] = entry_id
-- ARGV[2] = ttl_seconds

local hold_key = KEYS[1]
local entry_id = ARGV[1]
local ttl = tonumber(ARGV[2])

local holder = redis.call("GET", hold_key)
if holder and holder ~= entry_id then
    return {0, holder}
end

redis.call("SETEX", hold_key, ttl, entry_id)
return {1, entry_id}
`

const luaAtomicRoomRelease = `
-- KEYS[1] = room hold key
-- ARGV[1] = entry_id

local hold_key = KEYS[1]
local entry_id = ARGV[1]

local holder = redis.call("GET", hold_key)
if not holder then
    return {0, "hold_not_found"}
end
if holder ~= entry_id then
    return {0, "held_by_other"}
end

redis.call("DEL", hold_key)
return {1, entry_id}
`

// RoomHolds layers a short-lived advisory hold on top of the guarded
// seat write. The conditional UPDATE in the repository stays
// authoritative; the hold only shrinks the race window between a staff
// member opening the room picker and committing the assignment.
type RoomHolds struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRoomHolds(redisClient *redis.Client, ttl time.Duration) *RoomHolds {
	return &RoomHolds{redis: redisClient, ttl: ttl}
}

func roomHoldKey(branchID uuid.UUID, roomNumber int) string {
	return fmt.Sprintf("tabour:room_hold:%s:%d", branchID, roomNumber)
}

// Hold reserves the room for the given entry. A hold already owned by
// the same entry is refreshed rather than rejected.
func (h *RoomHolds) Hold(ctx context.Context, branchID uuid.UUID, roomNumber int, entryID uuid.UUID) error {
	if h.redis == nil {
		return nil
	}

	keys := []string{roomHoldKey(branchID, roomNumber)}
	args := []interface{}{entryID.String(), strconv.Itoa(int(h.ttl.Seconds()))}

	result, err := h.redis.EvalSha(ctx, luaAtomicRoomHold, keys, args...).Result()
	if err != nil {
		result, err = h.redis.Eval(ctx, luaAtomicRoomHold, keys, args...).Result()
		if err != nil {
			return fmt.Errorf("failed to execute room hold: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from room hold script")
	}
	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in room hold result")
	}
	if success == 0 {
		return &RoomConflictError{RoomNumber: roomNumber}
	}
	return nil
}

// Release drops a hold owned by the entry. A missing or foreign hold
// is not an error worth surfacing to staff.
func (h *RoomHolds) Release(ctx context.Context, branchID uuid.UUID, roomNumber int, entryID uuid.UUID) error {
	if h.redis == nil {
		return nil
	}

	keys := []string{roomHoldKey(branchID, roomNumber)}
	result, err := h.redis.EvalSha(ctx, luaAtomicRoomRelease, keys, entryID.String()).Result()
	if err != nil {
		result, err = h.redis.Eval(ctx, luaAtomicRoomRelease, keys, entryID.String()).Result()
		if err != nil {
			return fmt.Errorf("failed to execute room release: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from room release script")
	}
	return nil
}

// PreloadScripts loads the Lua scripts into Redis at startup.
func (h *RoomHolds) PreloadScripts(ctx context.Context) error {
	if h.redis == nil {
		return nil
	}
	if _, err := h.redis.ScriptLoad(ctx, luaAtomicRoomHold).Result(); err != nil {
		return fmt.Errorf("failed to load room hold script: %w", err)
	}
	if _, err := h.redis.ScriptLoad(ctx, luaAtomicRoomRelease).Result(); err != nil {
		return fmt.Errorf("failed to load room release script: %w", err)
	}
	return nil
}
