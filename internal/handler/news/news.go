package news

import (
	"context"
	"net/http"
	"strconv"

	"news-desk/internal/api"
	"news-desk/internal/cache"
	"news-desk/internal/database"
	"news-desk/internal/metrics"
	"news-desk/internal/model"
	"news-desk/internal/pagination"
	"news-desk/internal/store"
	"news-desk/internal/worker"

	"github.com/labstack/echo/v4"
)

var (
	getNewsByID  = store.GetNewsByID
	createNews   = store.CreateNews
	updateNews   = store.UpdateNews
	deleteNews   = store.DeleteNews
	listNews     = store.ListNews
	paginateNews = func(ctx context.Context, db database.DB, keyword string, page, size int) (pagination.Page[model.News], error) {
		return pagination.Paginate[model.News](ctx, store.NewsSource{DB: db, Keyword: keyword}, page, size)
	}
)

const detailNotFound = "News not found"

// parseID 新聞 ID 必須為正整數
func parseID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func parsePaging(c echo.Context) (pagination.Params, error) {
	return pagination.ParseParams(c.QueryParam("page"), c.QueryParam("size"), pagination.DefaultConfig)
}

// @Summary     Create news
// @Description 新增一則新聞，id 與 created_at 由資料庫產生
// @Tags        news
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateNewsRequest true "新聞內容"
// @Success     200  {object} api.NewsResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    OAuth2Password
// @Router      /news/ [post]
func CreateNewsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateNewsRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}

		n, err := createNews(c.Request().Context(), db, &model.News{
			Title:   req.Title,
			Content: req.Content,
			Author:  req.Author,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, n)
	}
}

// @Summary     Get news by ID
// @Description 依 ID 取得單則新聞；啟用 Redis 時先查快取
// @Tags        news
// @Produce     json
// @Param       id  path     int true "新聞 ID"
// @Success     200 {object} api.NewsResponse
// @Failure     400 {object} api.ErrorResponse "參數錯誤"
// @Failure     404 {object} api.ErrorResponse "新聞不存在"
// @Failure     500 {object} api.ErrorResponse
// @Router      /news/{id} [get]
func GetNewsHandler(db database.DB, nc *cache.NewsCache, pool worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid news ID"})
		}

		ctx := c.Request().Context()
		if n, hit := nc.Get(ctx, id); hit {
			return c.JSON(http.StatusOK, n)
		}

		n, err := getNewsByID(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if n == nil {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: detailNotFound})
		}

		// 回填快取不佔用請求時間；佇列已滿時放棄回填
		if nc != nil && pool != nil {
			cached := *n
			pool.Submit(func() { nc.Put(context.Background(), &cached) })
		}
		return c.JSON(http.StatusOK, n)
	}
}

// @Summary     List news
// @Description 依 created_at 新到舊列出新聞，q 為標題或內容的不分大小寫關鍵字
// @Tags        news
// @Produce     json
// @Param       q    query    string false "關鍵字"
// @Param       page query    int    false "頁碼，從 1 開始" default(1)
// @Param       size query    int    false "每頁筆數 (1-100)" default(10)
// @Success     200  {array}  api.NewsResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /news/ [get]
func ListNewsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := parsePaging(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}
		list, err := listNews(c.Request().Context(), db, c.QueryParam("q"), pagination.Offset(p.Page, p.Size), p.Size)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if list == nil {
			list = []model.News{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

// @Summary     List news with paging info
// @Description 與 List news 相同，另外回傳總筆數與總頁數
// @Tags        news
// @Produce     json
// @Param       q    query    string false "關鍵字"
// @Param       page query    int    false "頁碼，從 1 開始" default(1)
// @Param       size query    int    false "每頁筆數 (1-100)" default(10)
// @Success     200  {object} api.PagedNewsResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /news/paged [get]
func PagedNewsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := parsePaging(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}
		metrics.PageRequested(p.Page)
		page, err := paginateNews(c.Request().Context(), db, c.QueryParam("q"), p.Page, p.Size)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, page)
	}
}

// @Summary     Update news
// @Description 部分更新：只覆寫 body 中有帶的欄位，created_at 不變
// @Tags        news
// @Accept      json
// @Produce     json
// @Param       id   path     int                   true "新聞 ID"
// @Param       body body     api.UpdateNewsRequest true "要更新的欄位"
// @Success     200  {object} api.NewsResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    OAuth2Password
// @Router      /news/{id} [put]
func UpdateNewsHandler(db database.DB, nc *cache.NewsCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid news ID"})
		}

		var req api.UpdateNewsRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()})
		}

		ctx := c.Request().Context()
		n, err := getNewsByID(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if n == nil {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: detailNotFound})
		}

		// 空 patch 不寫資料庫，直接回傳現況
		if !req.Patch().Apply(n) {
			return c.JSON(http.StatusOK, n)
		}

		updated, err := updateNews(ctx, db, n)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if !updated {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: detailNotFound})
		}
		nc.Invalidate(ctx, id)
		return c.JSON(http.StatusOK, n)
	}
}

// @Summary     Delete news
// @Description 永久刪除新聞；重複刪除回傳 404
// @Tags        news
// @Param       id  path int true "新聞 ID"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    OAuth2Password
// @Router      /news/{id} [delete]
func DeleteNewsHandler(db database.DB, nc *cache.NewsCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "invalid news ID"})
		}
		deleted, err := deleteNews(c.Request().Context(), db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		}
		if !deleted {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: detailNotFound})
		}
		nc.Invalidate(c.Request().Context(), id)
		return c.NoContent(http.StatusNoContent)
	}
}
