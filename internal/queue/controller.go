package queue

import (
	"context"
	"errors"
	"net/http"

	"tabour/internal/branches"
	"tabour/internal/otp"
	"tabour/internal/shared/middleware"
	"tabour/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// RequestJoin starts intake. On success a verification code is on its
// way to the customer; no entry exists yet.
func (ctrl *Controller) RequestJoin(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := ctrl.service.RequestJoin(c.Request.Context(), &req); err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Verification code sent", nil)
}

// VerifyAndJoin completes intake after the code challenge.
func (ctrl *Controller) VerifyAndJoin(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	entry, err := ctrl.service.VerifyAndJoin(c.Request.Context(), &req)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Joined queue", entry)
}

// BranchStatus is the public poll endpoint for the customer status
// screen.
func (ctrl *Controller) BranchStatus(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	views, err := ctrl.service.BranchStatus(c.Request.Context(), branchID)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Queue status", views)
}

func (ctrl *Controller) Transition(c *gin.Context) {
	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid entry ID", nil)
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	entry, err := ctrl.service.Transition(c.Request.Context(), cap, entryID, &req)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Queue entry updated", entry)
}

func (ctrl *Controller) ListToday(c *gin.Context) {
	ctrl.listEntries(c, "Today's queue", ctrl.service.ListToday)
}

func (ctrl *Controller) ListArchive(c *gin.Context) {
	ctrl.listEntries(c, "Queue archive", ctrl.service.ListArchive)
}

func (ctrl *Controller) listEntries(c *gin.Context, message string,
	fn func(ctx context.Context, cap middleware.Capability, branchID uuid.UUID) ([]EntryResponse, error)) {

	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	entries, err := fn(c.Request.Context(), cap, branchID)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, message, entries)
}

func (ctrl *Controller) AvailableRooms(c *gin.Context) {
	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	rooms, err := ctrl.service.AvailableRooms(c.Request.Context(), cap, branchID)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Available rooms", gin.H{"available_rooms": rooms})
}

func (ctrl *Controller) Summary(c *gin.Context) {
	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	summary, err := ctrl.service.BranchSummary(c.Request.Context(), cap, branchID)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Branch summary", summary)
}

// HoldRoom pins a room while the seating dialog is open.
func (ctrl *Controller) HoldRoom(c *gin.Context) {
	ctrl.roomHold(c, "Room held", ctrl.service.HoldRoom)
}

func (ctrl *Controller) ReleaseRoom(c *gin.Context) {
	ctrl.roomHold(c, "Room released", ctrl.service.ReleaseRoom)
}

func (ctrl *Controller) roomHold(c *gin.Context, message string,
	fn func(ctx context.Context, cap middleware.Capability, entryID uuid.UUID, roomNumber int) error) {

	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid entry ID", nil)
		return
	}

	var req struct {
		RoomNumber int `json:"room_number" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := fn(c.Request.Context(), cap, entryID, req.RoomNumber); err != nil {
		respondQueueError(c, err)
		return
	}

	response.Success(c, http.StatusOK, message, nil)
}

// respondQueueError maps domain errors onto HTTP statuses with enough
// context attached for staff to resolve the conflict without reading
// logs.
func respondQueueError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var duplicateErr *DuplicateActiveError
	var illegalErr *IllegalTransitionError
	var conflictErr *RoomConflictError
	var storeErr *TransientStoreError

	switch {
	case errors.As(err, &validationErr):
		response.Error(c, http.StatusBadRequest, validationErr.Error(), validationErr)
	case errors.As(err, &duplicateErr):
		response.Error(c, http.StatusConflict, duplicateErr.Error(), duplicateErr)
	case errors.As(err, &illegalErr):
		response.Error(c, http.StatusConflict, illegalErr.Error(), illegalErr)
	case errors.As(err, &conflictErr):
		response.Error(c, http.StatusConflict, conflictErr.Error(), conflictErr)
	case errors.As(err, &storeErr):
		response.Error(c, http.StatusServiceUnavailable, "temporary store failure, please retry", nil)
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, branches.ErrBranchNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrNotAuthorized):
		response.Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, ErrRoomNumberNeeded):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, otp.ErrCodeInvalid), errors.Is(err, otp.ErrCodeExpired), errors.Is(err, otp.ErrNoPendingCode):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
