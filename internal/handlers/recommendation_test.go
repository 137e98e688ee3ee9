package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

func TestRecommendationHandler_Get(t *testing.T) {
	userID := uuid.New()
	reason := "Matches your interest in Fantasy (82% match)"
	response := &models.RecommendationResponse{
		UserID:    userID,
		RequestID: uuid.New(),
		Recommendations: []models.ScoredBook{{
			RecommendationID: uuid.New(),
			Book:             models.Book{ID: uuid.New(), Title: "The Hobbit", Genres: []string{"Fantasy"}},
			Score:            0.82,
			Explanation:      &reason,
			Position:         1,
		}},
		TotalCount:  1,
		GeneratedAt: time.Now(),
	}

	tests := []struct {
		name           string
		userID         uuid.UUID
		query          string
		setup          func(m *MockRecommendationService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:   "default parameters",
			userID: userID,
			query:  "",
			setup: func(m *MockRecommendationService) {
				m.On("Get", mock.Anything, userID, models.RecommendationQuery{}).Return(response, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "limit and reasons",
			userID: userID,
			query:  "?limit=5&include_reasons=true",
			setup: func(m *MockRecommendationService) {
				m.On("Get", mock.Anything, userID, mock.MatchedBy(func(q models.RecommendationQuery) bool {
					return q.Limit != nil && *q.Limit == 5 && q.IncludeReasons
				})).Return(response, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "zero limit",
			userID: userID,
			query:  "?limit=0",
			setup: func(m *MockRecommendationService) {
				m.On("Get", mock.Anything, userID, mock.Anything).Return(nil, recommend.ErrInvalidLimit)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_LIMIT",
		},
		{
			name:           "non-numeric limit",
			userID:         userID,
			query:          "?limit=ten",
			setup:          func(m *MockRecommendationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_LIMIT",
		},
		{
			name:           "bad include_reasons",
			userID:         userID,
			query:          "?include_reasons=maybe",
			setup:          func(m *MockRecommendationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_INCLUDE_REASONS",
		},
		{
			name:           "no authenticated user",
			userID:         uuid.Nil,
			setup:          func(m *MockRecommendationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_USER_ID",
		},
		{
			name:   "engine failure",
			userID: userID,
			setup: func(m *MockRecommendationService) {
				m.On("Get", mock.Anything, userID, mock.Anything).Return(nil, errors.New("catalog unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "RECOMMENDATION_GENERATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRecommendationService)
			tt.setup(service)
			handler := NewRecommendationHandler(service, testLogger())

			router := newRouter(tt.userID)
			router.GET("/api/v1/recommendations", handler.Get)

			w := doRequest(router, http.MethodGet, "/api/v1/recommendations"+tt.query, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var got models.RecommendationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, userID, got.UserID)
				require.Len(t, got.Recommendations, 1)
				assert.Equal(t, reason, *got.Recommendations[0].Explanation)
			} else {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
			service.AssertExpectations(t)
		})
	}
}

func TestRecommendationHandler_RecordClick(t *testing.T) {
	userID := uuid.New()
	recID := uuid.New()

	tests := []struct {
		name           string
		path           string
		err            error
		expectedStatus int
	}{
		{name: "recorded", path: recID.String(), expectedStatus: http.StatusOK},
		{name: "unknown recommendation", path: recID.String(), err: fmt.Errorf("failed to record click: %w", store.ErrNotFound), expectedStatus: http.StatusNotFound},
		{name: "store failure", path: recID.String(), err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
		{name: "malformed id", path: "not-a-uuid", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRecommendationService)
			service.On("RecordClick", mock.Anything, userID, recID).Return(tt.err).Maybe()
			handler := NewRecommendationHandler(service, testLogger())

			router := newRouter(userID)
			router.POST("/api/v1/recommendations/:recommendationId/click", handler.RecordClick)

			w := doRequest(router, http.MethodPost, "/api/v1/recommendations/"+tt.path+"/click", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
