package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"modaMarket/pkg/logger"
	"modaMarket/pkg/utils"

	"github.com/labstack/echo/v4"
)

// TokenValidator checks the bearer token against the Redis session store.
type TokenValidator interface {
	ValidateTokenFromRedis(ctx context.Context, token string) (string, error)
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}

// AuthMiddleware validates the JWT signature and expiry only.
func AuthMiddleware(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "missing or malformed authorization header"})
			}

			claims, err := utils.ParseJWT(jwtSecret, tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			}

			if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token expired"})
			}

			userID, err := strconv.ParseUint(claims.UserID, 10, 64)
			if err != nil {
				logger.Error("invalid user id in token", "user_id", claims.UserID)
				return c.JSON(http.StatusForbidden, map[string]string{"message": "invalid user id in token"})
			}

			c.Set("user_id", uint(userID))
			c.Set("role", claims.Role)
			c.Set("token", tokenString)

			return next(c)
		}
	}
}

// AuthMiddlewareWithRedis additionally requires the session to still exist
// in Redis, so logout revokes access before the JWT expires.
func AuthMiddlewareWithRedis(jwtSecret string, tokenValidator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "missing or malformed authorization header"})
			}

			claims, err := utils.ParseJWT(jwtSecret, tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			}

			if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token expired"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			userID, err := tokenValidator.ValidateTokenFromRedis(ctx, tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token expired or revoked"})
			}

			if userID != claims.UserID {
				logger.Error("user id mismatch between JWT and session store", "jwt_user", claims.UserID, "session_user", userID)
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			}

			userIDUint, err := strconv.ParseUint(claims.UserID, 10, 64)
			if err != nil {
				logger.Error("invalid user id in token", "user_id", claims.UserID)
				return c.JSON(http.StatusForbidden, map[string]string{"message": "invalid user id in token"})
			}

			c.Set("user_id", uint(userIDUint))
			c.Set("role", claims.Role)
			c.Set("token", tokenString)

			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !strings.EqualFold(role, "admin") {
				return c.JSON(http.StatusForbidden, map[string]string{"message": "admin access required"})
			}

			return next(c)
		}
	}
}
