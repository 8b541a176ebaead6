package notifications

import (
	"net/http"
	"strconv"

	"tabour/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	repo Repository
}

func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// ListRecent returns the delivery log, newest first.
func (ctrl *Controller) ListRecent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			response.Error(c, http.StatusBadRequest, "limit must be between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	var (
		records []SMSRecord
		err     error
	)
	if phone := c.Query("phone"); phone != "" {
		records, err = ctrl.repo.ListByPhone(c.Request.Context(), phone, limit)
	} else {
		records, err = ctrl.repo.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, "Notification log", records)
}
