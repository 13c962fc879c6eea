// File: internal/router/router.go
package router

import (
	"math"
	"net/http"

	"news-desk/internal/api"
	"news-desk/internal/cache"
	"news-desk/internal/database"
	"news-desk/internal/handler"
	"news-desk/internal/handler/news"
	"news-desk/internal/handler/submit"
	"news-desk/internal/handler/users"
	"news-desk/internal/metrics"
	"news-desk/internal/middleware"
	"news-desk/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TokenIssuer 同時能簽發與驗證 token，由 *service.TokenIssuer 實作
type TokenIssuer interface {
	users.TokenIssuer
	middleware.TokenVerifier
}

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator 建立 echo.Validator
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New 建立已掛好共用中介層的 echo 實例
func New(corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	// /news/ 與 /news 視為相同路徑
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}",` +
			`"method":"${method}","uri":"${uri}","status":${status},"latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	if len(corsOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     corsOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	return e
}

// Deps 路由需要的相依物件；Redis 與 NewsCache 可為 nil
type Deps struct {
	DB        database.DB
	Redis     cache.Cache
	NewsCache *cache.NewsCache
	Pool      worker.Pool
	Issuer    TokenIssuer
	// RequireAuthForWrites 為 false 時新聞寫入不檢查 token
	RequireAuthForWrites bool
	// LoginRateLimit 每個 IP 每秒登入次數上限；0 不限制
	LoginRateLimit float64
}

// Setup 註冊所有 API 路由與中介層
func Setup(e *echo.Echo, d Deps) {
	auth := middleware.RequireAuth(d.Issuer)

	var writeGuard []echo.MiddlewareFunc
	if d.RequireAuthForWrites {
		writeGuard = append(writeGuard, auth)
	}

	var loginGuard []echo.MiddlewareFunc
	if d.LoginRateLimit > 0 {
		loginGuard = append(loginGuard, LoginRateLimiter(d.LoginRateLimit))
	}

	e.GET("/ping", handler.PingHandler(d.DB, d.Redis))
	e.GET("/metrics", metrics.Handler())

	// 使用者註冊、登入與個人資料
	u := e.Group("/user")
	u.POST("/register", users.RegisterHandler(d.DB))
	u.POST("/token", users.TokenHandler(d.DB, d.Issuer), loginGuard...)
	u.GET("/me", users.MeHandler(d.DB), auth)

	// 新聞；/news/paged 為靜態路徑，優先於 /news/:id
	n := e.Group("/news")
	n.GET("", news.ListNewsHandler(d.DB))
	n.GET("/paged", news.PagedNewsHandler(d.DB))
	n.GET("/:id", news.GetNewsHandler(d.DB, d.NewsCache, d.Pool))
	n.POST("", news.CreateNewsHandler(d.DB), writeGuard...)
	n.PUT("/:id", news.UpdateNewsHandler(d.DB, d.NewsCache), writeGuard...)
	n.DELETE("/:id", news.DeleteNewsHandler(d.DB, d.NewsCache), writeGuard...)
}

// LoginRateLimiter 以來源 IP 做 token bucket 限流，burst 至少 1
func LoginRateLimiter(perSecond float64) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: int(math.Max(1, math.Ceil(perSecond))),
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Detail: "Too many login attempts"})
		},
	})
}

// SetupSubmit 舊版投稿服務只有 /submit 一個端點，任何方法都交給 handler 判斷
func SetupSubmit(e *echo.Echo, log logrus.FieldLogger) {
	e.Any("/submit", submit.Handler(log))
}

// ErrorHandler 將 echo 內建錯誤 (404 路由、405 等) 也輸出為 {"detail": ...}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, api.ErrorResponse{Detail: detail})
}
