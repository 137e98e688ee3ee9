package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/pkg/models"
)

type PreferenceHandler struct {
	service   services.PreferenceServiceInterface
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewPreferenceHandler(service services.PreferenceServiceInterface, logger *logrus.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Update serves PUT /recommendations/preferences
func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondValidation(c, "INVALID_JSON", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		respondValidation(c, "VALIDATION_FAILED", err)
		return
	}

	response, err := h.service.UpdateStatedPreferences(c.Request.Context(), userID, request.Preferences)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPreferences) {
			respondError(c, http.StatusBadRequest, "INVALID_PREFERENCES", err.Error())
			return
		}
		if respondInputError(c, err) {
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to update preferences")
		respondError(c, http.StatusInternalServerError, "PREFERENCE_UPDATE_FAILED", "Failed to update preferences")
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get serves GET /recommendations/preferences
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	response, err := h.service.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		if respondInputError(c, err) {
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load preferences")
		respondError(c, http.StatusInternalServerError, "PREFERENCE_RETRIEVAL_FAILED", "Failed to load preferences")
		return
	}

	c.JSON(http.StatusOK, response)
}
