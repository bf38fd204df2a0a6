package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/apierr"
	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// PrincipalResolver turns a token into the account it belongs to.
type PrincipalResolver interface {
	Principal(ctx context.Context, token string) (*models.Account, error)
}

// AuthMiddleware reads the raw token from a configurable header (X-Auth-Token
// by default). Authorization is never consulted.
type AuthMiddleware struct {
	log      *logger.Logger
	resolver PrincipalResolver
	header   string
}

func NewAuthMiddleware(log *logger.Logger, resolver PrincipalResolver, header string) *AuthMiddleware {
	return &AuthMiddleware{
		log:      log.With("middleware", "AuthMiddleware"),
		resolver: resolver,
		header:   header,
	}
}

// OptionalAuth attaches the principal when a valid token is present. Missing
// and invalid tokens both leave the request anonymous.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.token(c)
		if token == "" {
			c.Next()
			return
		}
		account, err := am.resolver.Principal(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Request = c.Request.WithContext(auth.WithAccount(c.Request.Context(), account))
		case errors.Is(err, auth.ErrInvalidToken):
			am.log.Debug("ignoring invalid token on optional-auth route", "path", c.FullPath())
		default:
			RespondError(c, am.log, err)
			return
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token for an existing account.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.token(c)
		if token == "" {
			RespondError(c, am.log, apierr.Unauthorized(errors.New("could not validate credentials")))
			return
		}
		account, err := am.resolver.Principal(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				RespondError(c, am.log, apierr.Unauthorized(errors.New("could not validate credentials")))
				return
			}
			RespondError(c, am.log, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithAccount(c.Request.Context(), account))
		c.Next()
	}
}

func (am *AuthMiddleware) token(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(am.header))
}

// RequestID tags every request with an id, reusing one supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLog writes one line per request.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestID(c),
		)
	}
}
