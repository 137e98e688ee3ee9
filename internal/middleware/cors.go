package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/temcen/bookrec/internal/config"
)

// CORS allows browser clients to call the API. A "*" origin opens the API to
// every origin and disables credentialed requests.
func CORS(cfg *config.Config) gin.HandlerFunc {
	settings := cfg.Security.CORS

	config := cors.Config{
		AllowMethods:  settings.AllowedMethods,
		AllowHeaders:  append(slices.Clone(settings.AllowedHeaders), "Authorization", "Content-Type", "X-User-ID"),
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}

	if len(settings.AllowedOrigins) == 0 || slices.Contains(settings.AllowedOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = settings.AllowedOrigins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
