package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/pkg/models"
)

type AuthHandler struct {
	authService *services.AuthService
	validator   *validator.Validate
	logger      *logrus.Logger
}

func NewAuthHandler(authService *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
		logger:      logger,
	}
}

// IssueToken serves POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var request models.TokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondValidation(c, "INVALID_JSON", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		respondValidation(c, "VALIDATION_FAILED", err)
		return
	}

	userID, err := uuid.Parse(request.UserID)
	if err != nil || userID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID format")
		return
	}

	response, err := h.authService.IssueToken(c.Request.Context(), request.APIKey, userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			respondError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
			return
		}
		h.logger.WithError(err).Error("Failed to issue token")
		respondError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, response)
}
