package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware разрешает только origins из списка allowedOrigins.
// Пустой список вне production разрешает любой origin, в production не разрешает ни один.
func CORSMiddleware(allowedOrigins []string, production bool) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "Cache-Control"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	switch {
	case len(allowedOrigins) > 0:
		cfg.AllowOrigins = allowedOrigins
	case production:
		cfg.AllowOriginFunc = func(string) bool { return false }
	default:
		cfg.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(cfg)
}
