package api

import (
	"time"
)

// NewsResponse 僅供 swagger 文件描述 model.News
// swagger:model api.NewsResponse
type NewsResponse struct {
	ID        int       `json:"id" example:"1"`
	Title     string    `json:"title" example:"Go 1.23 released"`
	Content   string    `json:"content" example:"Range over func is here."`
	Author    string    `json:"author" example:"Gopher"`
	CreatedAt time.Time `json:"created_at"`
}

// PagedNewsResponse 僅供 swagger 文件描述 pagination.Page[model.News]
// swagger:model api.PagedNewsResponse
type PagedNewsResponse struct {
	Items       []NewsResponse `json:"items"`
	TotalCount  int64          `json:"total_count" example:"42"`
	TotalPages  int            `json:"total_pages" example:"5"`
	CurrentPage int            `json:"current_page" example:"1"`
	PageSize    int            `json:"page_size" example:"10"`
}
