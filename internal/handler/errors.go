package handler

import (
	"errors"
	"net/http"

	"backoffice/internal/models"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/workflow"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, service.ErrRedeemOnHold),
		errors.Is(err, service.ErrNotPayable):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrUnknownTransition),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnbalancedRedeem),
		errors.Is(err, repository.ErrInsufficientAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoUploads):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusForbidden:
		msg = "access denied"
	}
	c.JSON(status, gin.H{"error": msg})
}
