package handler

import (
	"net/http"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
	guard           *middleware.Guard
}

func NewActivityHandler(activityService service.ActivityService, guard *middleware.Guard) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, guard: guard}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/activity-logs", h.guard.Require(middleware.OpListActivity), h.GetActivityLogs)
}

// GetActivityLogs returns the whole activity log, newest first
// @Summary      Get activity logs
// @Description  Lists every recorded document action with the acting user and document details resolved
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ActivityLogResponse}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/activity-logs [get]
func (h *ActivityHandler) GetActivityLogs(c *gin.Context) {
	logs, err := h.activityService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
