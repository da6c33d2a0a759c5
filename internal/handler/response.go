package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coinpulse/internal/service"
)

// Fail writes the structured error body used across the API.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

// FailFrom maps domain errors to their HTTP statuses. Unknown errors are
// reported opaquely as 500; callers log the detail.
func FailFrom(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		Fail(c, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, service.ErrValidationUnavailable),
		errors.Is(err, service.ErrMarketUnavailable):
		Fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrCoinNotFound):
		Fail(c, http.StatusNotFound, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, "internal server error")
	}
}
