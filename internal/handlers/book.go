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

type BookHandler struct {
	service   services.BookServiceInterface
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewBookHandler(service services.BookServiceInterface, logger *logrus.Logger) *BookHandler {
	return &BookHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.CreateBookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid JSON in book creation request")
		respondValidation(c, "INVALID_JSON", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		respondValidation(c, "VALIDATION_FAILED", err)
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), userID, &request)
	if err != nil {
		if errors.Is(err, services.ErrInvalidBook) {
			respondError(c, http.StatusBadRequest, "INVALID_BOOK", err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to create book")
		respondError(c, http.StatusInternalServerError, "BOOK_CREATION_FAILED", "Failed to create book")
		return
	}

	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) List(c *gin.Context) {
	var query models.BookListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidation(c, "INVALID_QUERY_PARAM", err)
		return
	}
	if err := h.validator.Struct(&query); err != nil {
		respondValidation(c, "INVALID_QUERY_PARAM", err)
		return
	}

	response, err := h.service.ListBooks(c.Request.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list books")
		respondError(c, http.StatusInternalServerError, "BOOK_LISTING_FAILED", "Failed to list books")
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BookHandler) Get(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			respondError(c, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
			return
		}
		h.logger.WithError(err).WithField("book_id", bookID).Error("Failed to load book")
		respondError(c, http.StatusInternalServerError, "BOOK_RETRIEVAL_FAILED", "Failed to load book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// Rate serves POST /books/:bookId/rate
func (h *BookHandler) Rate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	var request models.RateBookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondValidation(c, "INVALID_JSON", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "rating must be between 1 and 5")
		return
	}

	response, err := h.service.RateBook(c.Request.Context(), userID, bookID, &request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondError(c, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
		case errors.Is(err, services.ErrAlreadyRated):
			respondError(c, http.StatusConflict, "ALREADY_RATED", "You have already rated this book")
		default:
			if respondInputError(c, err) {
				return
			}
			h.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"book_id": bookID,
			}).Error("Failed to rate book")
			respondError(c, http.StatusInternalServerError, "RATING_FAILED", "Failed to rate book")
		}
		return
	}

	c.JSON(http.StatusCreated, response)
}

func parseBookID(c *gin.Context) (uuid.UUID, bool) {
	bookID, err := uuid.Parse(c.Param("bookId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BOOK_ID", "Invalid book ID format")
		return uuid.Nil, false
	}
	return bookID, true
}
