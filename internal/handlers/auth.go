package handlers

import (
	"log/slog"
	"net/http"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const tokenTypeBearer = "bearer"

type AuthHandler struct {
	credentials services.CredentialService
	tokens      services.TokenService
	log         *slog.Logger
}

func NewAuthHandler(credentials services.CredentialService, tokens services.TokenService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &AuthHandler{credentials: credentials, tokens: tokens, log: log}
}

// Login follows the OAuth2 password flow: form fields username (the email)
// and password.
func (h *AuthHandler) Login(c *gin.Context) {
	username, hasUsername := c.GetPostForm("username")
	password, hasPassword := c.GetPostForm("password")
	if !hasUsername || username == "" {
		respondError(c, h.log, errs.Validation("username", "field required"))
		return
	}
	if !hasPassword || password == "" {
		respondError(c, h.log, errs.Validation("password", "field required"))
		return
	}

	user, err := h.credentials.VerifyCredentials(c.Request.Context(), username, password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	token, err := h.tokens.IssueDefault(user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}
