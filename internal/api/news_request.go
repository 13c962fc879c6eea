// File: internal/api/news_request.go
package api

import "news-desk/internal/model"

// swagger:model api.CreateNewsRequest
type CreateNewsRequest struct {
	Title   string `json:"title" validate:"required,max=255" example:"Go 1.23 released"`
	Content string `json:"content" validate:"required" example:"Range over func is here."`
	Author  string `json:"author" validate:"required,max=100" example:"Gopher"`
}

// UpdateNewsRequest 只更新有帶的欄位；帶了就不可為空字串
// swagger:model api.UpdateNewsRequest
type UpdateNewsRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitnil,min=1,max=255" example:"New title"`
	Content *string `json:"content,omitempty" validate:"omitnil,min=1" example:"New content"`
	Author  *string `json:"author,omitempty" validate:"omitnil,min=1,max=100" example:"Gopher"`
}

// Patch 轉成 model.NewsPatch
func (r UpdateNewsRequest) Patch() model.NewsPatch {
	return model.NewsPatch{Title: r.Title, Content: r.Content, Author: r.Author}
}
