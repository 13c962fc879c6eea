// 舊版投稿服務：只有 POST /submit，不連資料庫
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-desk/internal/config"
	"news-desk/internal/logging"
	"news-desk/internal/router"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	loadConfig  = config.LoadSubmit
	startServer = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	exitFunc    = os.Exit
)

func newServer(log logrus.FieldLogger) *echo.Echo {
	e := router.New(nil)
	router.SetupSubmit(e, log)
	return e
}

func run(ctx context.Context) error {
	cfg := loadConfig()
	log := logging.New(cfg.LogLevel)
	e := newServer(log)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(sctx)
	}()

	log.WithField("addr", cfg.SubmitAddr).Info("投稿服務啟動")
	if err := startServer(e, cfg.SubmitAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		logrus.WithError(err).Error("投稿服務結束")
		exitFunc(1)
	}
}
