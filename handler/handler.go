package handler

import (
	"errors"
	"net/http"

	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// respondError maps the error taxonomy onto HTTP statuses. Rebuild
// rejections are retryable and say so.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var validationErr *types.ValidationError
	var notFoundErr *types.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrRebuildInProgress):
		status = http.StatusServiceUnavailable
		c.Header("Retry-After", "5")
	}

	c.JSON(status, types.DataResponse{
		Status:  statusError,
		Message: err.Error(),
	})
}
