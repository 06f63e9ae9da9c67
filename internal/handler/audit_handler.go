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

type AuditHandler struct {
	auditService service.AuditService
	authz        *middleware.Authorizer
}

func NewAuditHandler(auditService service.AuditService, authz *middleware.Authorizer) *AuditHandler {
	return &AuditHandler{auditService: auditService, authz: authz}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.authz.RequirePermission(model.PermAuditRead))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated audit records, newest first
// @Summary      Get audit logs
// @Description  Retrieves a page of audit logs with the acting user
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Action, e.g. RECORD_COUNT"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        user_id    query     string  false  "Acting user ID"
// @Param        from       query     string  false  "Earliest created_at (RFC 3339 or YYYY-MM-DD)"
// @Param        to         query     string  false  "Latest created_at (RFC 3339 or YYYY-MM-DD)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      400        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
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

	query := service.AuditQuery{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		UserID:   c.Query("user_id"),
		From:     from,
		To:       to,
	}

	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
