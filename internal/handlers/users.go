package handlers

import (
	"log/slog"
	"net/http"

	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	credentials services.CredentialService
	log         *slog.Logger
}

func NewUserHandler(credentials services.CredentialService, log *slog.Logger) *UserHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &UserHandler{credentials: credentials, log: log}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindingError(err))
		return
	}

	user, err := h.credentials.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("user registered", slog.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, user)
}

// Me returns the user the bearer token was issued for. It must run behind
// middleware.BearerAuth.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	user, err := h.credentials.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
