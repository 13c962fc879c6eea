package users

import (
	"errors"
	"net/http"
	"time"

	"news-desk/internal/api"
	"news-desk/internal/database"
	"news-desk/internal/middleware"
	"news-desk/internal/model"
	"news-desk/internal/service"
	"news-desk/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	hashPassword      = service.HashPassword
	verifyPassword    = service.VerifyPassword
	getUserByUsername = store.GetUserByUsername
	createUser        = store.CreateUser
)

// TokenIssuer 由 *service.TokenIssuer 實作
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// @Summary     Register a new user
// @Description 建立新帳號；username 與 email 皆不可重複
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.RegisterRequest true "註冊資料"
// @Success     200  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /user/register [post]
func RegisterHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.RegisterRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}
		// validator 的 max 以字元計算，bcrypt 的上限是 bytes
		if len(req.Password) > service.MaxPasswordBytes {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: service.ErrPasswordTooLong.Error()})
		}

		ctx := c.Request().Context()
		existing, err := getUserByUsername(ctx, db, req.Username)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if existing != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "Username already registered"})
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "failed to hash password"})
		}

		// 兩個同名註冊同時通過上面的檢查時，由唯一索引擋下較晚的一個
		user, err := createUser(ctx, db, &model.User{
			Username:       req.Username,
			Email:          req.Email,
			HashedPassword: hash,
		})
		if err != nil {
			var conflict *store.ConflictError
			if errors.As(err, &conflict) {
				detail := "Username already registered"
				if conflict.Field == "email" {
					detail = "Email already registered"
				}
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: detail})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}

		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
}

// @Summary     Login for access token
// @Description 使用 username 與 password 表單登入，回傳 Bearer JWT
// @Tags        users
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       username formData string true "使用者名稱"
// @Param       password formData string true "使用者密碼"
// @Success     200      {object} api.TokenResponse
// @Failure     400      {object} api.ErrorResponse
// @Failure     401      {object} api.ErrorResponse
// @Failure     500      {object} api.ErrorResponse
// @Router      /user/token [post]
func TokenHandler(db database.DB, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid form data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}

		user, err := getUserByUsername(c.Request().Context(), db, req.Username)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		// 使用者不存在與密碼錯誤回傳相同訊息
		if user == nil || !verifyPassword(req.Password, user.HashedPassword) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Incorrect username or password"})
		}

		token, _, err := issuer.Issue(user.Username)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "failed to issue token"})
		}

		return c.JSON(http.StatusOK, api.TokenResponse{AccessToken: token, TokenType: service.TokenType})
	}
}

// @Summary     Get current user
// @Description 透過 Bearer JWT 取得當前使用者
// @Tags        users
// @Produce     json
// @Success     200 {object} api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    OAuth2Password
// @Router      /user/me [get]
func MeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Not authenticated"})
		}
		user, err := getUserByUsername(c.Request().Context(), db, claims.Subject)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		// token 有效但帳號已不存在
		if user == nil {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Could not validate credentials"})
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
}
