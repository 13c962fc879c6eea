// File: internal/model/news.go
package model

import "time"

type News struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewsPatch 部分更新；nil 欄位保留原值
type NewsPatch struct {
	Title   *string
	Content *string
	Author  *string
}

// Apply 將 patch 中有值的欄位寫入 n，回傳是否有任何欄位被指定
func (p NewsPatch) Apply(n *News) bool {
	changed := false
	if p.Title != nil {
		n.Title = *p.Title
		changed = true
	}
	if p.Content != nil {
		n.Content = *p.Content
		changed = true
	}
	if p.Author != nil {
		n.Author = *p.Author
		changed = true
	}
	return changed
}
