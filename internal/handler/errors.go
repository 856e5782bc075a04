package handler

import (
	"errors"
	"net/http"

	"inventory-portal/internal/service"
	"inventory-portal/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses with the standard
// envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var serialErr *service.SerialResolutionError
	switch {
	case service.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.As(err, &serialErr):
		status = http.StatusConflict
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrWarehouseNotFound),
		errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrPendingRequestExists),
		errors.Is(err, service.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPermissionDenied):
		status = http.StatusForbidden
	}

	c.JSON(status, response.Error(status, err.Error()))
}
