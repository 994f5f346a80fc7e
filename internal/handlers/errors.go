package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto status codes. Anything outside
// it is logged and reported as a bare 500.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	var validation *errs.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": validation.Error()})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
	case errors.Is(err, errs.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
	case errors.Is(err, errs.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	case errors.Is(err, errs.ErrEmailRegistered):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": "Conflict"})
	case errors.Is(err, errs.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect email or password"})
	case errors.Is(err, errs.ErrUnauthorized):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
	default:
		_ = c.Error(err)
		log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			logger.Err(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// bindingError reports a body or form that could not be decoded.
func bindingError(err error) error {
	return errs.Validation("body", err.Error())
}
