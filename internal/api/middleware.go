package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/AI2HU/askdb/internal/cache"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
)

const entryKey = "entry"

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zl := logger.GetLogger().Zerolog()
		event := zl.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = zl.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-KEY, If-None-Match")
		c.Header("Access-Control-Expose-Headers", "ETag, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// apiKeyAuth rejects requests whose X-API-KEY header does not match key
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-KEY") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"type": "error", "error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// rateLimit applies one token bucket shared by all clients
func rateLimit(rps float64, burst int) gin.HandlerFunc {
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"type": "error", "error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// requireCache loads the entry named by the id query parameter and checks
// that every field is present
func (s *Server) requireCache(fields ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			s.errorResponse(c, http.StatusBadRequest, "No id provided")
			return
		}

		entry, err := s.questionService.Lookup(c.Request.Context(), id)
		if errors.Is(err, cache.ErrNotFound) {
			s.errorResponse(c, http.StatusNotFound, fmt.Sprintf("No %s found", fields[0]))
			return
		}
		if err != nil {
			s.errorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, field := range fields {
			if !entry.Has(field) {
				s.errorResponse(c, http.StatusNotFound, fmt.Sprintf("No %s found", field))
				return
			}
		}

		c.Set(entryKey, entry)
		c.Next()
	}
}

func cachedEntry(c *gin.Context) *models.Entry {
	return c.MustGet(entryKey).(*models.Entry)
}
