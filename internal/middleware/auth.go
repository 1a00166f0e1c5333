package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/pkg/utils/tokens"
)

// SessionAuth authenticates requests using session bearer tokens. It resolves
// the token to a user via an HMAC lookup on the auth_sessions table and sets
// the user in the context. Suspended users are rejected here so no handler
// has to re-check.
func SessionAuth(cfg *config.Config, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, authSpan := otel.Tracer("middleware").Start(ctx, "session_auth",
			trace.WithAttributes(attribute.String("middleware", "session_auth")))

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		secret, ok := tokens.ParseToken(raw, cfg.Auth.SessionTokenPrefix)
		if !ok {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		lookup := tokens.HMAC256Hex(cfg.Auth.SecretPepper, secret)

		var session model.AuthSession
		err := db.WithContext(ctx).
			Preload("User").
			Where(&model.AuthSession{TokenHMAC: lookup}).
			First(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				authSpan.SetAttributes(attribute.Bool("authenticated", false))
				authSpan.End()
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			authSpan.RecordError(err)
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		if session.User == nil || time.Now().After(session.ExpiresAt) {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("session expired"))
			return
		}
		if session.User.Suspended {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusForbidden, serializer.ForbiddenErr("account suspended"))
			return
		}

		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.String("user_id", session.UserID.String()))
		}

		authSpan.SetAttributes(
			attribute.String("user_id", session.UserID.String()),
			attribute.Bool("authenticated", true),
		)
		authSpan.End()

		c.Set("user", session.User)
		c.Next()
	}
}

// RequireAdmin gates a route group on a minimum admin role.
func RequireAdmin(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet("user").(*model.User)
		if !ok || model.AdminRank(user.Role) < model.AdminRank(minRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, serializer.ForbiddenErr("admin access required"))
			return
		}
		c.Next()
	}
}

// CronAuth gates scheduler-invoked routes on the shared cron secret.
func CronAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		if cfg.Auth.CronSecret == "" || !tokens.Equal(raw, cfg.Auth.CronSecret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		c.Next()
	}
}
