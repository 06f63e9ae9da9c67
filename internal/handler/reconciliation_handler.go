package handler

import (
	"bytes"
	"errors"
	"net/http"

	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/reconciliation"
	"stockcount/internal/service"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

// Error codes returned by the reconciliation endpoints
const (
	CodeReconciliationFailed = "RECONCILIATION_FAILED"
	CodeExportFailed         = "EXPORT_FAILED"
)

type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	authz                 *middleware.Authorizer
}

func NewReconciliationHandler(reconciliationService service.ReconciliationService, authz *middleware.Authorizer) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService, authz: authz}
}

func (h *ReconciliationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/reconciliation")
	group.Use(h.authz.RequirePermission(model.PermReconciliationRead))
	{
		group.GET("", h.Reconcile)
		group.GET("/export", h.Export)
	}
}

// Reconcile compares counted stock against system stock adjusted by pre-count movements
// @Summary      Run reconciliation
// @Description  Returns one record per counted SKU plus summary counters. brand and location only narrow the movement lookup when both are given.
// @Tags         reconciliation
// @Produce      json
// @Security     BearerAuth
// @Param        warehouse  query     string  false  "Warehouse"
// @Param        brand      query     string  false  "Brand"
// @Param        location   query     string  false  "Location"
// @Param        format     query     string  false  "xlsx to download the workbook"
// @Success      200        {object}  response.Response{data=reconciliation.Result}
// @Failure      500        {object}  response.Response
// @Router       /api/reconciliation [get]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	if c.Query("format") == "xlsx" {
		h.Export(c)
		return
	}

	res, err := h.reconciliationService.Run(c.Request.Context(), inventoryFilter(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.ErrorWithCode(http.StatusInternalServerError, CodeReconciliationFailed, "Reconciliation could not be computed"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Export downloads the reconciliation as a two-sheet workbook
// @Summary      Export reconciliation workbook
// @Tags         reconciliation
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        warehouse  query  string  false  "Warehouse"
// @Param        brand      query  string  false  "Brand"
// @Param        location   query  string  false  "Location"
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /api/reconciliation/export [get]
func (h *ReconciliationHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reconciliationService.Export(c.Request.Context(), inventoryFilter(c), &buf); err != nil {
		_ = c.Error(err)
		if errors.Is(err, reconciliation.ErrExport) {
			c.JSON(http.StatusInternalServerError, response.ErrorWithCode(http.StatusInternalServerError, CodeExportFailed, "Reconciliation workbook could not be generated"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorWithCode(http.StatusInternalServerError, CodeReconciliationFailed, "Reconciliation could not be computed"))
		return
	}
	attachment(c, "reconciliation.xlsx", buf.Bytes())
}
