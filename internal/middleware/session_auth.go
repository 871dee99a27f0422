package middleware

import (
	"net/http"

	"github.com/chirpnest/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "token"

// SessionAuthMiddleware checks for a valid session cookie and attaches
// the resolved user ID to the request context. Requests without a
// valid, unexpired token are rejected before reaching any handler.
func SessionAuthMiddleware(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: no token provided")
			}

			claims := &models.SessionClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: invalid token")
			}

			// Store the resolved identity in context
			c.Set("userID", claims.UserID)

			return next(c)
		}
	}
}
