package bookings

import (
	"errors"
	"net/http"

	"tabour/internal/branches"
	"tabour/internal/queue"
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

func (ctrl *Controller) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Booking created", booking)
}

func (ctrl *Controller) ListBookings(c *gin.Context) {
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

	bookings, err := ctrl.service.ListBookings(c.Request.Context(), cap, branchID, c.Query("date"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Bookings", bookings)
}

func (ctrl *Controller) UpdateStatus(c *gin.Context) {
	cap, ok := middleware.GetCapability(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := ctrl.service.UpdateStatus(c.Request.Context(), cap, bookingID, &req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Booking updated", booking)
}

func respondBookingError(c *gin.Context, err error) {
	var validationErr *queue.ValidationError

	switch {
	case errors.As(err, &validationErr):
		response.Error(c, http.StatusBadRequest, validationErr.Error(), validationErr)
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, branches.ErrBranchNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrStaleStatus):
		response.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, queue.ErrNotAuthorized):
		response.Error(c, http.StatusForbidden, err.Error(), nil)
	default:
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
