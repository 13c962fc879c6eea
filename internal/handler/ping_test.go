package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"news-desk/internal/cache"
	"news-desk/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPingHandler(t *testing.T) {
	e := echo.New()
	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	t.Run("db unhealthy", func(t *testing.T) {
		db := &database.FakeDB{PingFn: func(context.Context) error { return errors.New("fail") }}
		ctx, rec := newCtx()
		require.NoError(t, PingHandler(db, &cache.FakeCache{})(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "database unhealthy")
	})

	t.Run("cache unhealthy", func(t *testing.T) {
		dbCalled := false
		db := &database.FakeDB{PingFn: func(context.Context) error { dbCalled = true; return nil }}
		cch := &cache.FakeCache{PingFn: func(context.Context) *redis.StatusCmd {
			return redis.NewStatusResult("", errors.New("down"))
		}}
		ctx, rec := newCtx()
		require.NoError(t, PingHandler(db, cch)(ctx))
		require.True(t, dbCalled)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "cache unhealthy")
	})

	t.Run("ok without cache", func(t *testing.T) {
		db := &database.FakeDB{PingFn: func(context.Context) error { return nil }}
		ctx, rec := newCtx()
		require.NoError(t, PingHandler(db, nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		cacheCalled := false
		db := &database.FakeDB{PingFn: func(context.Context) error { return nil }}
		cch := &cache.FakeCache{PingFn: func(context.Context) *redis.StatusCmd {
			cacheCalled = true
			return redis.NewStatusResult("PONG", nil)
		}}
		ctx, rec := newCtx()
		require.NoError(t, PingHandler(db, cch)(ctx))
		require.True(t, cacheCalled)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "pong")
	})
}
