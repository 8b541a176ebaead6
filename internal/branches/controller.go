package branches

import (
	"errors"
	"net/http"

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

func (ctrl *Controller) CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	branch, err := ctrl.service.CreateBranch(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	response.Success(c, http.StatusCreated, "Branch created", branch.ToResponse())
}

func (ctrl *Controller) GetBranch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	branch, err := ctrl.service.GetBranch(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			response.Error(c, http.StatusNotFound, "Branch not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, "Branch detail", branch.ToResponse())
}

func (ctrl *Controller) ListBranches(c *gin.Context) {
	list, err := ctrl.service.ListBranches(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	resp := make([]BranchResponse, 0, len(list))
	for i := range list {
		resp = append(resp, list[i].ToResponse())
	}
	response.Success(c, http.StatusOK, "Branch list", resp)
}

func (ctrl *Controller) UpdateSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	branch, err := ctrl.service.UpdateSettings(c.Request.Context(), id, &req)
	if err != nil {
		code := settingsErrorCode(err)
		response.Error(c, code, err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, "Branch settings updated", branch.ToResponse())
}

// AdjustRooms handles the +/- room buttons on the branch dashboard
func (ctrl *Controller) AdjustRooms(c *gin.Context) {
	ctrl.adjust(c, func(ctx *gin.Context, id uuid.UUID, inc bool) (*Branch, error) {
		return ctrl.service.AdjustRooms(ctx.Request.Context(), id, inc)
	})
}

// AdjustExpectedWait handles the +/- expected wait buttons
func (ctrl *Controller) AdjustExpectedWait(c *gin.Context) {
	ctrl.adjust(c, func(ctx *gin.Context, id uuid.UUID, inc bool) (*Branch, error) {
		return ctrl.service.AdjustExpectedWait(ctx.Request.Context(), id, inc)
	})
}

func (ctrl *Controller) adjust(c *gin.Context, fn func(*gin.Context, uuid.UUID, bool) (*Branch, error)) {
	id, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	var req struct {
		Increment *bool `json:"increment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	branch, err := fn(c, id, *req.Increment)
	if err != nil {
		response.Error(c, settingsErrorCode(err), err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, "Branch settings updated", branch.ToResponse())
}

func (ctrl *Controller) ChangePassword(c *gin.Context) {
	id, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid branch ID", nil)
		return
	}

	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := ctrl.service.ChangePassword(c.Request.Context(), id, req.Password); err != nil {
		response.Error(c, settingsErrorCode(err), err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, "Branch password updated", nil)
}

func settingsErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrBranchNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMinRooms), errors.Is(err, ErrRoomsInUse), errors.Is(err, ErrInvalidWaitTime):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
