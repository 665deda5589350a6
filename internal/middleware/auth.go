package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"luminoso-backend/internal/config"
	"luminoso-backend/internal/models"
)

const UserIDKey = "user_id"

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization header"})
		c.Abort()
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization header format"})
		c.Abort()
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "empty token"})
		c.Abort()
		return "", false
	}

	return token, true
}

// AuthMiddleware admits requests carrying an admin session token signed with
// ADMIN_JWT_SECRET.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}
		// Some clients URL-encode the session token
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		claims := &models.AdminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if cfg.AdminJWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.AdminJWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
		if err != nil {
			var errorMsg string
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				errorMsg = "token has expired"
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				errorMsg = "token signature is invalid"
			case errors.Is(err, jwt.ErrTokenMalformed):
				errorMsg = "token is malformed"
			default:
				errorMsg = err.Error()
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token", Message: errorMsg})
			c.Abort()
			return
		}

		if !token.Valid {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		if claims.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "admin role required"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing user id in token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// FunctionsAuth guards the function endpoints with the shared
// FUNCTIONS_SECRET, compared byte for byte. Only POST is served there;
// OPTIONS preflights are answered without a secret.
func FunctionsAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			return
		}

		if cfg.FunctionsSecret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(cfg.FunctionsSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid function secret"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// TokenFromQuery lets EventSource clients, which cannot set headers, pass the
// session token as ?access_token=.
func TokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("access_token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
