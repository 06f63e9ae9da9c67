package handler

import (
	"errors"
	"net/http"
	"time"

	"stockcount/internal/model"
	"stockcount/internal/service"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// respondError maps service sentinels to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	default:
		_ = c.Error(err)
	}
	c.JSON(status, response.Error(status, msg))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

func inventoryFilter(c *gin.Context) model.InventoryFilter {
	return model.InventoryFilter{
		Warehouse: c.Query("warehouse"),
		Brand:     c.Query("brand"),
		Location:  c.Query("location"),
	}
}

func inventoryListFilter(c *gin.Context) model.InventoryListFilter {
	return model.InventoryListFilter{
		InventoryFilter: inventoryFilter(c),
		Search:          c.Query("search"),
		Status:          c.Query("status"),
	}
}

// parseTimeQuery accepts RFC 3339 timestamps or plain dates
func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, errors.New(key + " must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	return &t, nil
}

func attachment(c *gin.Context, name string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, body)
}
