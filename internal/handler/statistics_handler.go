package handler

import (
	"net/http"

	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/service"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	authz             *middleware.Authorizer
}

func NewStatisticsHandler(statisticsService service.StatisticsService, authz *middleware.Authorizer) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, authz: authz}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/inventory/progress", h.authz.RequirePermission(model.PermDashboardRead), h.GetProgress)
}

// @Summary      Get counting progress
// @Description  Total, counted and pending SKUs per warehouse and overall
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.CountProgress}
// @Router       /api/inventory/progress [get]
func (h *StatisticsHandler) GetProgress(c *gin.Context) {
	progress, err := h.statisticsService.GetProgress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, progress))
}
