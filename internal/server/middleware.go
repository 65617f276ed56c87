package server

import (
	"crypto/subtle"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rentfold/rentfold/internal/landlordctx"
	"go.uber.org/zap"
)

const (
	headerLandlordID    = "X-Landlord-ID"
	headerCorrelationID = "X-Correlation-ID"
)

// CorrelationMiddleware stamps every request with a correlation id, reusing
// the caller's when present.
func CorrelationMiddleware() gin.HandlerFunc {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return func(c *gin.Context) {
		id := c.GetHeader(headerCorrelationID)
		if id == "" {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		}
		c.Set("correlation_id", id)
		c.Writer.Header().Set(headerCorrelationID, id)
		c.Next()
	}
}

// RequestLogMiddleware logs one line per request with latency and status.
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlation_id", c.GetString("correlation_id")),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
		} else {
			log.Info("request", fields...)
		}
	}
}

// LandlordRequired resolves the acting landlord from the X-Landlord-ID
// header and stores it on the request context for service scoping.
func (s *Server) LandlordRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerLandlordID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		ctx := landlordctx.WithLandlordID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SchedulerTriggerRequired guards the internal run endpoint with a static
// bearer secret.
func (s *Server) SchedulerTriggerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.cfg.SchedulerTriggerSecret
		if secret == "" {
			AbortWithError(c, ErrForbidden)
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
