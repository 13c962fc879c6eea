package middleware

import (
	"net/http"
	"strings"

	"news-desk/internal/api"
	"news-desk/internal/service"

	"github.com/labstack/echo/v4"
)

// ContextClaimsKey 驗證成功後 *service.Claims 存放於 echo.Context 的 key
const ContextClaimsKey = "claims"

// TokenVerifier 由 *service.TokenIssuer 實作
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

func unauthorized(c echo.Context, detail string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: detail})
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireAuth 驗證 Bearer token，失敗一律 401
func RequireAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, ok := bearerToken(c)
			if !ok {
				return unauthorized(c, "Not authenticated")
			}
			claims, err := v.Verify(tok)
			if err != nil {
				return unauthorized(c, "Could not validate credentials")
			}
			c.Set(ContextClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom 取出 RequireAuth 放入的 claims
func ClaimsFrom(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ContextClaimsKey).(*service.Claims)
	return claims, ok && claims != nil
}
