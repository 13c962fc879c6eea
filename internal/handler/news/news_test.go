package news

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"news-desk/internal/cache"
	"news-desk/internal/database"
	"news-desk/internal/model"
	"news-desk/internal/pagination"
	"news-desk/internal/store"
	"news-desk/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type realValidator struct{ v *validator.Validate }

func (r *realValidator) Validate(i interface{}) error { return r.v.Struct(i) }

// syncPool 同步執行工作，方便斷言
type syncPool struct{ submitted int }

func (p *syncPool) Submit(t worker.Task) bool { p.submitted++; t(); return true }
func (p *syncPool) Stop()                     {}

// fullPool 模擬佇列已滿，工作一律被捨棄
type fullPool struct{ rejected int }

func (p *fullPool) Submit(worker.Task) bool { p.rejected++; return false }
func (p *fullPool) Stop()                   {}

func restore() {
	getNewsByID = store.GetNewsByID
	createNews = store.CreateNews
	updateNews = store.UpdateNews
	deleteNews = store.DeleteNews
	listNews = store.ListNews
	paginateNews = func(ctx context.Context, db database.DB, keyword string, page, size int) (pagination.Page[model.News], error) {
		return pagination.Paginate[model.News](ctx, store.NewsSource{DB: db, Keyword: keyword}, page, size)
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &realValidator{v: validator.New()}
	return e
}

func newCtx(e *echo.Echo, method, target, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetPath("/news/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var sample = model.News{
	ID:        1,
	Title:     "A",
	Content:   "B",
	Author:    "C",
	CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
}

func TestCreateNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("missing fields", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newCtx(e, http.MethodPost, "/news", `{"title":"A"}`, "")
		require.NoError(t, CreateNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newCtx(e, http.MethodPost, "/news", `{`, "")
		require.NoError(t, CreateNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid request body")
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		createNews = func(context.Context, database.DB, *model.News) (*model.News, error) {
			return nil, errors.New("insert")
		}
		ctx, rec := newCtx(e, http.MethodPost, "/news", `{"title":"A","content":"B","author":"C"}`, "")
		require.NoError(t, CreateNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		createNews = func(_ context.Context, _ database.DB, n *model.News) (*model.News, error) {
			require.Equal(t, "A", n.Title)
			require.Equal(t, "B", n.Content)
			require.Equal(t, "C", n.Author)
			out := sample
			return &out, nil
		}
		ctx, rec := newCtx(e, http.MethodPost, "/news", `{"title":"A","content":"B","author":"C"}`, "")
		require.NoError(t, CreateNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"id":1,"title":"A","content":"B","author":"C","created_at":"2024-03-01T08:00:00Z"}`, rec.Body.String())
	})
}

func TestGetNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad id", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-3"} {
			ctx, rec := newCtx(e, http.MethodGet, "/news/"+id, "", id)
			require.NoError(t, GetNewsHandler(nil, nil, nil)(ctx))
			require.Equal(t, http.StatusBadRequest, rec.Code, id)
		}
	})

	t.Run("cache fill dropped when queue full", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		fc := &cache.FakeCache{
			GetFn: func(context.Context, string) *redis.StringCmd { return redis.NewStringResult("", redis.Nil) },
		}
		pool := &fullPool{}
		ctx, rec := newCtx(e, http.MethodGet, "/news/1", "", "1")
		require.NoError(t, GetNewsHandler(nil, cache.NewNewsCache(fc, time.Minute, silentLogger()), pool)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, pool.rejected)
		require.Contains(t, rec.Body.String(), `"id":1`)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) { return nil, nil }
		ctx, rec := newCtx(e, http.MethodGet, "/news/9", "", "9")
		require.NoError(t, GetNewsHandler(nil, nil, nil)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"detail":"News not found"}`, rec.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) { return nil, errors.New("db") }
		ctx, rec := newCtx(e, http.MethodGet, "/news/1", "", "1")
		require.NoError(t, GetNewsHandler(nil, nil, nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("miss fills cache through pool", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(_ context.Context, _ database.DB, id int) (*model.News, error) {
			require.Equal(t, 1, id)
			out := sample
			return &out, nil
		}
		var setKey string
		fc := &cache.FakeCache{
			GetFn: func(context.Context, string) *redis.StringCmd { return redis.NewStringResult("", redis.Nil) },
			SetFn: func(_ context.Context, key string, _ any, _ time.Duration) *redis.StatusCmd {
				setKey = key
				return redis.NewStatusResult("OK", nil)
			},
		}
		pool := &syncPool{}
		ctx, rec := newCtx(e, http.MethodGet, "/news/1", "", "1")
		require.NoError(t, GetNewsHandler(nil, cache.NewNewsCache(fc, time.Minute, silentLogger()), pool)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, pool.submitted)
		require.Equal(t, "news:1", setKey)
	})

	t.Run("cache hit skips database", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			t.Fatal("命中快取時不應查資料庫")
			return nil, nil
		}
		fc := &cache.FakeCache{GetFn: func(context.Context, string) *redis.StringCmd {
			return redis.NewStringResult(`{"id":1,"title":"A","content":"B","author":"C","created_at":"2024-03-01T08:00:00Z"}`, nil)
		}}
		ctx, rec := newCtx(e, http.MethodGet, "/news/1", "", "1")
		require.NoError(t, GetNewsHandler(nil, cache.NewNewsCache(fc, time.Minute, silentLogger()), &syncPool{})(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"title":"A"`)
	})

	t.Run("cache down falls back to database", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		fc := &cache.FakeCache{
			GetFn: func(context.Context, string) *redis.StringCmd { return redis.NewStringResult("", errors.New("down")) },
			SetFn: func(context.Context, string, any, time.Duration) *redis.StatusCmd {
				return redis.NewStatusResult("", errors.New("down"))
			},
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news/1", "", "1")
		require.NoError(t, GetNewsHandler(nil, cache.NewNewsCache(fc, time.Minute, silentLogger()), &syncPool{})(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad params", func(t *testing.T) {
		for _, q := range []string{"page=0", "size=0", "size=101", "page=x", "page=922337203685477590"} {
			ctx, rec := newCtx(e, http.MethodGet, "/news?"+q, "", "")
			require.NoError(t, ListNewsHandler(nil)(ctx))
			require.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("defaults and empty list", func(t *testing.T) {
		t.Cleanup(restore)
		listNews = func(_ context.Context, _ database.DB, kw string, offset, limit int) ([]model.News, error) {
			require.Equal(t, "", kw)
			require.Equal(t, 0, offset)
			require.Equal(t, 10, limit)
			return nil, nil
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news", "", "")
		require.NoError(t, ListNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("keyword and window", func(t *testing.T) {
		t.Cleanup(restore)
		listNews = func(_ context.Context, _ database.DB, kw string, offset, limit int) ([]model.News, error) {
			require.Equal(t, "python", kw)
			require.Equal(t, 40, offset)
			require.Equal(t, 20, limit)
			return []model.News{sample}, nil
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news?q=python&page=3&size=20", "", "")
		require.NoError(t, ListNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"id":1`)
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		listNews = func(context.Context, database.DB, string, int, int) ([]model.News, error) {
			return nil, errors.New("db")
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news", "", "")
		require.NoError(t, ListNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPagedNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad params", func(t *testing.T) {
		for _, q := range []string{"size=500", "page=922337203685477590&size=10"} {
			ctx, rec := newCtx(e, http.MethodGet, "/news/paged?"+q, "", "")
			require.NoError(t, PagedNewsHandler(nil)(ctx))
			require.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Cleanup(restore)
		paginateNews = func(_ context.Context, _ database.DB, kw string, page, size int) (pagination.Page[model.News], error) {
			require.Equal(t, "go", kw)
			require.Equal(t, 2, page)
			require.Equal(t, 5, size)
			return pagination.Page[model.News]{Items: []model.News{}, CurrentPage: page, PageSize: size}, nil
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news/paged?q=go&page=2&size=5", "", "")
		require.NoError(t, PagedNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"items":[],"total_count":0,"total_pages":0,"current_page":2,"page_size":5}`, rec.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		t.Cleanup(restore)
		paginateNews = func(context.Context, database.DB, string, int, int) (pagination.Page[model.News], error) {
			return pagination.Page[model.News]{}, errors.New("count")
		}
		ctx, rec := newCtx(e, http.MethodGet, "/news/paged", "", "")
		require.NoError(t, PagedNewsHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUpdateNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad id", func(t *testing.T) {
		ctx, rec := newCtx(e, http.MethodPut, "/news/x", `{"title":"X"}`, "x")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty string rejected", func(t *testing.T) {
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{"title":""}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) { return nil, nil }
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{"title":"X"}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		updateNews = func(_ context.Context, _ database.DB, n *model.News) (bool, error) {
			require.Equal(t, "X", n.Title)
			require.Equal(t, "B", n.Content)
			require.Equal(t, "C", n.Author)
			return true, nil
		}
		var deleted []string
		fc := &cache.FakeCache{DelFn: func(_ context.Context, keys ...string) *redis.IntCmd {
			deleted = append(deleted, keys...)
			return redis.NewIntResult(1, nil)
		}}
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{"title":"X"}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, cache.NewNewsCache(fc, time.Minute, silentLogger()))(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"id":1,"title":"X","content":"B","author":"C","created_at":"2024-03-01T08:00:00Z"}`, rec.Body.String())
		require.Equal(t, []string{"news:1"}, deleted)
	})

	t.Run("empty patch does not write", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		updateNews = func(context.Context, database.DB, *model.News) (bool, error) {
			t.Fatal("空 patch 不應寫入")
			return false, nil
		}
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("vanished during update", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		updateNews = func(context.Context, database.DB, *model.News) (bool, error) { return false, nil }
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{"author":"Z"}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store errors", func(t *testing.T) {
		t.Cleanup(restore)
		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) { return nil, errors.New("db") }
		ctx, rec := newCtx(e, http.MethodPut, "/news/1", `{"author":"Z"}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		getNewsByID = func(context.Context, database.DB, int) (*model.News, error) {
			out := sample
			return &out, nil
		}
		updateNews = func(context.Context, database.DB, *model.News) (bool, error) { return false, errors.New("db") }
		ctx, rec = newCtx(e, http.MethodPut, "/news/1", `{"author":"Z"}`, "1")
		require.NoError(t, UpdateNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDeleteNewsHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad id", func(t *testing.T) {
		ctx, rec := newCtx(e, http.MethodDelete, "/news/x", "", "x")
		require.NoError(t, DeleteNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete then 404", func(t *testing.T) {
		t.Cleanup(restore)
		gone := false
		deleteNews = func(_ context.Context, _ database.DB, id int) (bool, error) {
			require.Equal(t, 1, id)
			if gone {
				return false, nil
			}
			gone = true
			return true, nil
		}
		invalidated := 0
		fc := &cache.FakeCache{DelFn: func(context.Context, ...string) *redis.IntCmd {
			invalidated++
			return redis.NewIntResult(1, nil)
		}}
		nc := cache.NewNewsCache(fc, time.Minute, silentLogger())

		ctx, rec := newCtx(e, http.MethodDelete, "/news/1", "", "1")
		require.NoError(t, DeleteNewsHandler(nil, nc)(ctx))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())

		ctx, rec = newCtx(e, http.MethodDelete, "/news/1", "", "1")
		require.NoError(t, DeleteNewsHandler(nil, nc)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, 1, invalidated)
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		deleteNews = func(context.Context, database.DB, int) (bool, error) { return false, errors.New("db") }
		ctx, rec := newCtx(e, http.MethodDelete, "/news/1", "", "1")
		require.NoError(t, DeleteNewsHandler(nil, nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
