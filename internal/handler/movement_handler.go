package handler

import (
	"net/http"

	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/service"
	"stockcount/pkg/pagination"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

type MovementHandler struct {
	movementService service.MovementService
	authz           *middleware.Authorizer
}

func NewMovementHandler(movementService service.MovementService, authz *middleware.Authorizer) *MovementHandler {
	return &MovementHandler{movementService: movementService, authz: authz}
}

func (h *MovementHandler) RegisterRoutes(router *gin.RouterGroup) {
	mov := router.Group("/api/movements")
	{
		mov.GET("", h.authz.RequirePermission(model.PermMovementsRead), h.List)
		mov.POST("", h.authz.RequirePermission(model.PermMovementsWrite), h.Create)
		mov.DELETE("/:id", h.authz.RequireRole(model.RoleAdmin), h.authz.RequirePermission(model.PermMovementsDelete), h.Delete)
	}
}

// List returns a page of the movement ledger
// @Summary      List movements
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        warehouse  query     string  false  "Warehouse"
// @Param        brand      query     string  false  "Brand"
// @Param        barcode    query     string  false  "Barcode"
// @Param        kind       query     string  false  "IN or OUT"
// @Param        from       query     string  false  "Earliest occurred_at (RFC 3339 or YYYY-MM-DD)"
// @Param        to         query     string  false  "Latest occurred_at (RFC 3339 or YYYY-MM-DD)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.MovementResponse}
// @Failure      400        {object}  response.Response
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		badRequest(c, err)
		return
	}

	filter := model.MovementFilter{
		Warehouse: c.Query("warehouse"),
		Brand:     c.Query("brand"),
		Barcode:   c.Query("barcode"),
		Kind:      c.Query("kind"),
		From:      from,
		To:        to,
	}

	p := pagination.Parse(c)
	items, total, err := h.movementService.List(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// Create records a stock movement performed by the caller
// @Summary      Create movement
// @Description  occurred_at defaults to the current time
// @Tags         movements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMovementRequest  true  "Movement"
// @Success      201      {object}  response.Response{data=service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/movements [post]
func (h *MovementHandler) Create(c *gin.Context) {
	var req service.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mov, err := h.movementService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, mov))
}

// Delete removes a movement permanently
// @Summary      Delete movement
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Movement ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/movements/{id} [delete]
func (h *MovementHandler) Delete(c *gin.Context) {
	if err := h.movementService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Movement deleted"}))
}
