// @title        News Desk API
// @version      1.0
// @description  新聞投稿與管理系統的後端 API 文件
// @host         localhost:8080
// @BasePath     /
// @securityDefinitions.oauth2.password OAuth2Password
// @tokenUrl /user/token
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-desk/internal/cache"
	"news-desk/internal/config"
	"news-desk/internal/database"
	"news-desk/internal/logging"
	"news-desk/internal/router"
	"news-desk/internal/service"
	"news-desk/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	_ "news-desk/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

// shutdownTimeout 收到訊號後等待進行中請求的時間
const shutdownTimeout = 10 * time.Second

var (
	loadConfig      = config.Load
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	newWorkerPool   = worker.NewPool
	startServer     = serve
	exitFunc        = os.Exit
)

// serve 啟動 HTTP 服務，ctx 結束時優雅關閉
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	}
}

func run(ctx context.Context, log *logrus.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("設定載入失敗: %w", err)
	}
	log.SetLevel(logging.Level(cfg.LogLevel))

	issuer, err := service.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("JWT 設定錯誤: %w", err)
	}

	db, err := newPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}

	// Redis 為選用，未設定 REDIS_ADDR 時不啟用快取
	var rc cache.Cache
	if cfg.Redis.Enabled() {
		rc, err = newRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("Redis 連線失敗: %w", err)
		}
		defer rc.Close()
	} else {
		log.Info("REDIS_ADDR 未設定，停用新聞快取")
	}

	wp := newWorkerPool(cfg.WorkerCount, log)
	defer wp.Stop()

	e := router.New(cfg.CORSOrigins)
	router.Setup(e, router.Deps{
		DB:                   db,
		Redis:                rc,
		NewsCache:            cache.NewNewsCache(rc, cfg.Redis.NewsTTL, log),
		Pool:                 wp,
		Issuer:               issuer,
		RequireAuthForWrites: cfg.Auth.RequireAuthForWrites,
		LoginRateLimit:       cfg.LoginRateLimit,
	})
	if !cfg.Auth.RequireAuthForWrites {
		log.Warn("REQUIRE_AUTH_FOR_WRITES=false，新聞寫入不驗證 token")
	}

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	log.WithField("addr", cfg.ServerAddr).Info("API 服務啟動")
	return startServer(ctx, e, cfg.ServerAddr)
}

func main() {
	log := logging.New("info")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.WithError(err).Error("服務結束")
		exitFunc(1)
	}
}
