package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/internal/validation"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.APIKeys = map[string]string{"reader-key": services.TierReader}
	cfg.Auth.RateLimit = config.RateLimitConfig{Reader: 2, Librarian: 10, Window: time.Minute}
	return cfg
}

// echoUser reports the user the auth middleware attached.
func echoUser(c *gin.Context) {
	userID, tier, ok := GetUserFromContext(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "user_tier": tier})
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testLogger()
	authService := services.NewAuthService(testConfig(), logger, nil)

	userID := uuid.New()
	token, _, err := authService.GenerateToken(context.Background(), userID, services.TierReader)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", Auth(authService, logger), echoUser)

	tests := []struct {
		name           string
		authorization  string
		userHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{name: "jwt", authorization: "Bearer " + token, expectedStatus: http.StatusOK, expectedBody: userID.String()},
		{name: "api key with user", authorization: "Bearer reader-key", userHeader: userID.String(), expectedStatus: http.StatusOK, expectedBody: userID.String()},
		{name: "api key without user", authorization: "Bearer reader-key", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_USER_ID"},
		{name: "api key with nil user", authorization: "Bearer reader-key", userHeader: uuid.Nil.String(), expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_USER_ID"},
		{name: "unknown api key", authorization: "Bearer nope", userHeader: userID.String(), expectedStatus: http.StatusUnauthorized, expectedBody: "INVALID_API_KEY"},
		{name: "tampered jwt", authorization: "Bearer " + token + "x", expectedStatus: http.StatusUnauthorized, expectedBody: "INVALID_TOKEN"},
		{name: "missing header", expectedStatus: http.StatusUnauthorized, expectedBody: "MISSING_AUTHORIZATION"},
		{name: "wrong scheme", authorization: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedBody: "INVALID_AUTHORIZATION_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			if tt.userHeader != "" {
				req.Header.Set("X-User-ID", tt.userHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testLogger()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	authService := services.NewAuthService(cfg, logger, nil)
	rateLimitService := services.NewRateLimitService(cfg, logger, client)

	router := gin.New()
	router.Use(Auth(authService, logger), RateLimit(rateLimitService, logger))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	userID := uuid.New()
	do := func() *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer reader-key")
		req.Header.Set("X-User-ID", userID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := do()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, do().Code)

	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
}

func TestValidationMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sv, err := validation.NewDefaultSchemaValidator()
	require.NoError(t, err)
	vm := NewValidationMiddleware(sv)

	router := gin.New()
	router.Use(vm.ValidateHeaders())
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	router.POST("/books/:bookId/rate", vm.ValidatePathIDs("bookId"), vm.ValidateRateBook(), ok)
	router.POST("/recommendations/:recommendationId/click", vm.ValidatePathIDs("recommendationId"), ok)
	router.GET("/books", vm.ValidateListParams(), ok)

	bookPath := "/books/" + uuid.New().String() + "/rate"

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		contentType    string
		expectedStatus int
		expectedBody   string
	}{
		{name: "valid rating", method: http.MethodPost, path: bookPath, body: `{"rating": 4}`, contentType: "application/json", expectedStatus: http.StatusNoContent},
		{name: "schema violation", method: http.MethodPost, path: bookPath, body: `{"rating": 9}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedBody: "VALIDATION_ERROR"},
		{name: "malformed json", method: http.MethodPost, path: bookPath, body: `{"rating"`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_JSON"},
		{name: "empty body", method: http.MethodPost, path: bookPath, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedBody: "EMPTY_BODY"},
		{name: "wrong content type", method: http.MethodPost, path: bookPath, body: `{"rating": 4}`, contentType: "text/plain", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_HEADER"},
		{name: "bad book id", method: http.MethodPost, path: "/books/abc/rate", body: `{"rating": 4}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_PATH_PARAM"},
		{name: "bodiless click", method: http.MethodPost, path: "/recommendations/" + uuid.New().String() + "/click", expectedStatus: http.StatusNoContent},
		{name: "list paging", method: http.MethodGet, path: "/books?limit=10&offset=20", expectedStatus: http.StatusNoContent},
		{name: "list limit too large", method: http.MethodGet, path: "/books?limit=101", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_QUERY_PARAM"},
		{name: "negative offset", method: http.MethodGet, path: "/books?offset=-1", expectedStatus: http.StatusBadRequest, expectedBody: "INVALID_QUERY_PARAM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		origin      string
		allowOrigin string
		credentials string
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://shelf.example", allowOrigin: "*"},
		{name: "listed origin", origins: []string{"https://shelf.example"}, origin: "https://shelf.example", allowOrigin: "https://shelf.example", credentials: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Security.CORS.AllowedOrigins = tt.origins
			cfg.Security.CORS.AllowedMethods = []string{http.MethodGet, http.MethodPost}

			router := gin.New()
			router.Use(CORS(cfg))
			router.GET("/api/v1/books", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
