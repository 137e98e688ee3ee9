package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/pkg/models"
)

func validCreateBookBody() map[string]interface{} {
	return map[string]interface{}{
		"title":            "The Hobbit",
		"author":           "J.R.R. Tolkien",
		"description":      "A hobbit goes on an unexpected journey.",
		"genres":           []string{"Fantasy", "Adventure"},
		"publication_year": 1937,
		"publisher":        "George Allen & Unwin",
		"language":         "en",
		"page_count":       310,
	}
}

func TestBookHandler_Create(t *testing.T) {
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		service := new(MockBookService)
		book := &models.Book{ID: uuid.New(), Title: "The Hobbit", Genres: []string{"Fantasy", "Adventure"}}
		service.On("CreateBook", mock.Anything, userID, mock.MatchedBy(func(req *models.CreateBookRequest) bool {
			return req.Title == "The Hobbit" && len(req.Genres) == 2
		})).Return(book, nil)

		router := newRouter(userID)
		router.POST("/books", NewBookHandler(service, testLogger()).Create)

		w := doRequest(router, http.MethodPost, "/books", validCreateBookBody())
		assert.Equal(t, http.StatusCreated, w.Code)

		var got models.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, book.ID, got.ID)
		service.AssertExpectations(t)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(body map[string]interface{})
		}{
			{name: "missing title", mutate: func(b map[string]interface{}) { delete(b, "title") }},
			{name: "no genres", mutate: func(b map[string]interface{}) { b["genres"] = []string{} }},
			{name: "year out of range", mutate: func(b map[string]interface{}) { b["publication_year"] = 999 }},
			{name: "page count too large", mutate: func(b map[string]interface{}) { b["page_count"] = 10001 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				service := new(MockBookService)
				router := newRouter(userID)
				router.POST("/books", NewBookHandler(service, testLogger()).Create)

				body := validCreateBookBody()
				tt.mutate(body)

				w := doRequest(router, http.MethodPost, "/books", body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))
				service.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("genres empty after normalization", func(t *testing.T) {
		service := new(MockBookService)
		service.On("CreateBook", mock.Anything, userID, mock.Anything).
			Return(nil, fmt.Errorf("%w: at least one genre is required", services.ErrInvalidBook))

		router := newRouter(userID)
		router.POST("/books", NewBookHandler(service, testLogger()).Create)

		body := validCreateBookBody()
		body["genres"] = []string{" "}
		w := doRequest(router, http.MethodPost, "/books", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_BOOK", errorCode(t, w))
	})
}

func TestBookHandler_GetAndList(t *testing.T) {
	userID := uuid.New()
	bookID := uuid.New()

	service := new(MockBookService)
	service.On("GetBook", mock.Anything, bookID).Return(&models.Book{ID: bookID, Title: "Emma"}, nil)
	service.On("GetBook", mock.Anything, mock.Anything).Return(nil, services.ErrBookNotFound)
	service.On("ListBooks", mock.Anything, models.BookListQuery{Genre: "Romance", Limit: 5}).
		Return(&models.BookListResponse{Books: []models.Book{{ID: bookID, Title: "Emma"}}, Limit: 5}, nil)

	handler := NewBookHandler(service, testLogger())
	router := newRouter(userID)
	router.GET("/books", handler.List)
	router.GET("/books/:bookId", handler.Get)

	w := doRequest(router, http.MethodGet, "/books/"+bookID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/books/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOK_NOT_FOUND", errorCode(t, w))

	w = doRequest(router, http.MethodGet, "/books/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BOOK_ID", errorCode(t, w))

	w = doRequest(router, http.MethodGet, "/books?genre=Romance&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list models.BookListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Books, 1)

	w = doRequest(router, http.MethodGet, "/books?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookHandler_Rate(t *testing.T) {
	userID := uuid.New()
	bookID := uuid.New()

	tests := []struct {
		name           string
		body           interface{}
		serviceErr     error
		callsService   bool
		expectedStatus int
		expectedCode   string
	}{
		{name: "rated", body: map[string]interface{}{"rating": 4.5}, callsService: true, expectedStatus: http.StatusCreated},
		{name: "already rated", body: map[string]interface{}{"rating": 4}, serviceErr: services.ErrAlreadyRated, callsService: true, expectedStatus: http.StatusConflict, expectedCode: "ALREADY_RATED"},
		{name: "unknown book", body: map[string]interface{}{"rating": 4}, serviceErr: services.ErrBookNotFound, callsService: true, expectedStatus: http.StatusNotFound, expectedCode: "BOOK_NOT_FOUND"},
		{name: "store failure", body: map[string]interface{}{"rating": 4}, serviceErr: errors.New("db down"), callsService: true, expectedStatus: http.StatusInternalServerError, expectedCode: "RATING_FAILED"},
		{name: "rating too high", body: map[string]interface{}{"rating": 6}, expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_RATING"},
		{name: "rating missing", body: map[string]interface{}{}, expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_RATING"},
		{name: "malformed json", body: `{"rating":`, expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockBookService)
			if tt.callsService {
				var resp *models.RateBookResponse
				if tt.serviceErr == nil {
					resp = &models.RateBookResponse{
						Book:        models.Book{ID: bookID, AverageRating: 4.5, RatingsCount: 1},
						Preferences: models.PreferenceMap{"Fantasy": 0.575},
					}
				}
				service.On("RateBook", mock.Anything, userID, bookID, mock.AnythingOfType("*models.RateBookRequest")).
					Return(resp, tt.serviceErr)
			}

			router := newRouter(userID)
			router.POST("/books/:bookId/rate", NewBookHandler(service, testLogger()).Rate)

			w := doRequest(router, http.MethodPost, "/books/"+bookID.String()+"/rate", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
			if !tt.callsService {
				service.AssertNotCalled(t, "RateBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
