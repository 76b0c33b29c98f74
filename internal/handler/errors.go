package handler

import (
	"errors"
	"net/http"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, code, service.Message(err))
}

func badRequest(c *gin.Context, msg string) {
	response.Fail(c, http.StatusBadRequest, msg)
}

// actor returns the caller stored by the guard. Routes without a guard
// never call it.
func actor(c *gin.Context) service.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
