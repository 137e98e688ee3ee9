package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

type RecommendationHandler struct {
	service services.RecommendationServiceInterface
	logger  *logrus.Logger
}

func NewRecommendationHandler(service services.RecommendationServiceInterface, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

// Get serves GET /recommendations?limit=&include_reasons=
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query models.RecommendationQuery
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		query.Limit = &limit
	}
	if reasons := c.Query("include_reasons"); reasons != "" {
		includeReasons, err := strconv.ParseBool(reasons)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_INCLUDE_REASONS", "include_reasons must be true or false")
			return
		}
		query.IncludeReasons = includeReasons
	}

	response, err := h.service.Get(c.Request.Context(), userID, query)
	if err != nil {
		if respondInputError(c, err) {
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
		respondError(c, http.StatusInternalServerError, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
		return
	}

	c.JSON(http.StatusOK, response)
}

// RecordClick serves POST /recommendations/:recommendationId/click
func (h *RecommendationHandler) RecordClick(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	recommendationID, err := uuid.Parse(c.Param("recommendationId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_RECOMMENDATION_ID", "Invalid recommendation ID format")
		return
	}

	if err := h.service.RecordClick(c.Request.Context(), userID, recommendationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "RECOMMENDATION_NOT_FOUND", "Recommendation not found")
			return
		}
		h.logger.WithError(err).WithField("recommendation_id", recommendationID).Error("Failed to record click")
		respondError(c, http.StatusInternalServerError, "CLICK_RECORDING_FAILED", "Failed to record click")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendation_id": recommendationID,
		"status":            "recorded",
	})
}
