package handler

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/service"
	"stockcount/pkg/pagination"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds uploaded workbooks
const maxImportSize = 32 << 20

type InventoryHandler struct {
	inventoryService service.InventoryService
	authz            *middleware.Authorizer
}

func NewInventoryHandler(inventoryService service.InventoryService, authz *middleware.Authorizer) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, authz: authz}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inv := router.Group("/api/inventory")
	{
		inv.GET("", h.authz.RequirePermission(model.PermInventoryRead), h.List)
		inv.GET("/export", h.authz.RequirePermission(model.PermInventoryRead), h.Export)
		inv.GET("/:id", h.authz.RequirePermission(model.PermInventoryRead), h.Get)
		inv.POST("", h.authz.RequirePermission(model.PermInventoryWrite), h.Create)
		inv.PUT("/:id", h.authz.RequirePermission(model.PermInventoryWrite), h.Update)
		inv.PUT("/:id/count", h.authz.RequirePermission(model.PermInventoryCount), h.RecordCount)
		inv.POST("/import", h.authz.RequirePermission(model.PermInventoryImport), h.Import)
		inv.DELETE("", h.authz.RequireRole(model.RoleAdmin), h.authz.RequirePermission(model.PermInventoryReset), h.Reset)
	}
}

// List returns a page of inventory rows
// @Summary      List inventory
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        warehouse  query     string  false  "Warehouse"
// @Param        brand      query     string  false  "Brand"
// @Param        location   query     string  false  "Location"
// @Param        search     query     string  false  "Matches barcode or description"
// @Param        status     query     string  false  "counted or pending"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.InventoryResponse}
// @Failure      400        {object}  response.Response
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.inventoryService.List(c.Request.Context(), inventoryListFilter(c), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// Get returns a single inventory row
// @Summary      Get inventory row
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Inventory ID"
// @Success      200  {object}  response.Response{data=service.InventoryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.inventoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create adds a single SKU to the count
// @Summary      Create inventory row
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateInventoryRequest  true  "SKU"
// @Success      201      {object}  response.Response{data=service.InventoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req service.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update changes description or system quantity
// @Summary      Update inventory row
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Inventory ID"
// @Param        payload  body      service.UpdateInventoryRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.InventoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/{id} [put]
func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RecordCount stores the physical quantity counted for a row
// @Summary      Record physical count
// @Description  Accepts the quantity as a number or numeric string. Sets counted_at and counted_by.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Inventory ID"
// @Param        payload  body      service.RecordCountRequest  true  "Counted quantity"
// @Success      200      {object}  response.Response{data=service.InventoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/{id}/count [put]
func (h *InventoryHandler) RecordCount(c *gin.Context) {
	var req service.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.RecordCount(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Import upserts inventory rows from an uploaded workbook
// @Summary      Import inventory workbook
// @Description  Upserts rows by warehouse, location, brand and barcode. Rows with missing keys or bad quantities are reported and skipped.
// @Tags         inventory
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  ".xlsx workbook"
// @Success      200   {object}  response.Response{data=service.ImportSummary}
// @Failure      400   {object}  response.Response
// @Router       /api/inventory/import [post]
func (h *InventoryHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A workbook must be uploaded in the 'file' field"))
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Only .xlsx workbooks are supported"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded file"))
		return
	}
	defer f.Close()

	summary, err := h.inventoryService.Import(c.Request.Context(), middleware.UserID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Export downloads the filtered inventory as a workbook
// @Summary      Export inventory workbook
// @Tags         inventory
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        warehouse  query  string  false  "Warehouse"
// @Param        brand      query  string  false  "Brand"
// @Param        location   query  string  false  "Location"
// @Param        status     query  string  false  "counted or pending"
// @Success      200  {file}  file
// @Router       /api/inventory/export [get]
func (h *InventoryHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.inventoryService.Export(c.Request.Context(), inventoryListFilter(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "inventory.xlsx", buf.Bytes())
}

// Reset deletes every inventory row
// @Summary      Reset inventory
// @Description  Administrative wipe of the inventory table before a new count
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/inventory [delete]
func (h *InventoryHandler) Reset(c *gin.Context) {
	deleted, err := h.inventoryService.Reset(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": deleted}))
}
