package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/temcen/bookrec/internal/middleware"
	"github.com/temcen/bookrec/internal/recommend"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    code,
			"message": "Request validation failed",
			"details": err.Error(),
		},
	})
}

// currentUser returns the authenticated user or writes 400 INVALID_USER_ID.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, _, ok := middleware.GetUserFromContext(c)
	if !ok || userID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "A valid user ID is required")
		return uuid.Nil, false
	}
	return userID, true
}

// respondInputError maps the engine's input errors to 400 responses and
// reports whether err was one of them.
func respondInputError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, recommend.ErrInvalidUser):
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", err.Error())
	case errors.Is(err, recommend.ErrInvalidLimit):
		respondError(c, http.StatusBadRequest, "INVALID_LIMIT", err.Error())
	case errors.Is(err, recommend.ErrInvalidRating):
		respondError(c, http.StatusBadRequest, "INVALID_RATING", err.Error())
	default:
		return false
	}
	return true
}
