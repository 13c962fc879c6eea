// Package pagination 提供與資料來源無關的 offset 分頁
package pagination

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidParams page < 1 或 size 超出範圍
var ErrInvalidParams = errors.New("invalid pagination parameters")

// Source 任何可計數、可依 offset/limit 取片段的資源
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// Page 單頁結果與分頁資訊
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// Offset page 從 1 開始
func Offset(page, size int) int {
	return (page - 1) * size
}

// TotalPages 無條件進位；total 為 0 時回傳 0
func TotalPages(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Paginate 取出第 page 頁；超過最後一頁時回傳空 Items 而非錯誤
func Paginate[T any](ctx context.Context, src Source[T], page, size int) (Page[T], error) {
	if page < 1 || size < 1 {
		return Page[T]{}, ErrInvalidParams
	}

	total, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, fmt.Errorf("Paginate: %w", err)
	}

	p := Page[T]{
		Items:       []T{},
		TotalCount:  total,
		TotalPages:  TotalPages(total, size),
		CurrentPage: page,
		PageSize:    size,
	}
	// 以頁數比較，不先算 offset，極大的 page 不會溢位
	if page > p.TotalPages {
		return p, nil
	}

	items, err := src.Fetch(ctx, Offset(page, size), size)
	if err != nil {
		return Page[T]{}, fmt.Errorf("Paginate: %w", err)
	}
	if items != nil {
		p.Items = items
	}
	return p, nil
}

// Config 分頁參數的預設值與上限
type Config struct {
	DefaultPage int
	DefaultSize int
	MaxSize     int
}

// DefaultConfig page=1, size=10, size 上限 100
var DefaultConfig = Config{DefaultPage: 1, DefaultSize: 10, MaxSize: 100}

// Params 已驗證的分頁參數
type Params struct {
	Page int
	Size int
}

// ParseParams 解析字串形式的 page/size；空字串使用預設值。
// (page-1)*size 必須能以 int 表示
func ParseParams(page, size string, cfg Config) (Params, error) {
	p := Params{Page: cfg.DefaultPage, Size: cfg.DefaultSize}

	if size != "" {
		v, err := strconv.Atoi(size)
		if err != nil || v < 1 || v > cfg.MaxSize {
			return p, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidParams, cfg.MaxSize)
		}
		p.Size = v
	}

	if page != "" {
		v, err := strconv.Atoi(page)
		if err != nil || v < 1 {
			return p, fmt.Errorf("%w: page must be a positive integer", ErrInvalidParams)
		}
		if v-1 > math.MaxInt/p.Size {
			return p, fmt.Errorf("%w: page is too large", ErrInvalidParams)
		}
		p.Page = v
	}
	return p, nil
}
