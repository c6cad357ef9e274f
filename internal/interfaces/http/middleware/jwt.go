package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	// ClaimsKey is the gin context key holding the validated *auth.Claims
	ClaimsKey = "jwt_claims"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// RevocationChecker reports whether a validated token has been revoked
type RevocationChecker interface {
	CheckRevocation(ctx context.Context, claims *auth.Claims) error
}

// JWTConfig configures JWTAuth
type JWTConfig struct {
	Tokens *auth.JWTService
	// Revocations is optional; without it logged-out tokens stay valid until they expire
	Revocations RevocationChecker
	Logger      *zap.Logger
}

// JWTAuth validates the bearer access token, rejects revoked tokens and
// attaches the caller to the gin context and the request logger.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		token, found := strings.CutPrefix(header, bearerPrefix)
		if header == "" || !found || token == "" {
			abortUnauthorized(c, log, dto.ErrCodeUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := cfg.Tokens.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, log, dto.ErrCodeTokenExpired, "Token has expired", err)
				return
			}
			abortUnauthorized(c, log, dto.ErrCodeTokenInvalid, "Invalid token", err)
			return
		}

		if cfg.Revocations != nil {
			err := cfg.Revocations.CheckRevocation(c.Request.Context(), claims)
			var domainErr *shared.DomainError
			switch {
			case errors.As(err, &domainErr):
				abortUnauthorized(c, log, domainErr.Code, domainErr.Message, err)
				return
			case err != nil:
				// Revocation store unavailable: the signature is still valid, so let the request through.
				log.Error("Failed to check token revocation",
					zap.String("jti", claims.ID),
					zap.Error(err),
				)
			}
		}

		c.Set(ClaimsKey, claims)
		ctx := logger.WithIdentity(c.Request.Context(), logger.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, code, message string, err error) {
	log.Warn("JWT authentication failed",
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}

// GetClaims returns the claims stored by JWTAuth, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequireRole lets the request through only when the caller has one of roles.
// It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !slices.Contains(roles, claims.Role) {
			logger.L(c.Request.Context()).Warn("Role not permitted",
				zap.String("path", c.FullPath()),
				zap.Strings("required", roles),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.ErrCodeForbidden, "Access to this resource is forbidden", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
