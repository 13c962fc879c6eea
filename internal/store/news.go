// File: internal/store/news.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"news-desk/internal/database"
	"news-desk/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	selectNewsByID = `SELECT ` + newsTable.selectColumns() + `
		 FROM ` + newsTable.name + ` WHERE id = $1`
	insertNews = `INSERT INTO ` + newsTable.name + ` (title, content, author)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`
	updateNews = `UPDATE ` + newsTable.name + ` SET title = $1, content = $2, author = $3
		 WHERE id = $4`
	deleteNews = `DELETE FROM ` + newsTable.name + ` WHERE id = $1`
)

// keywordFilter 標題或內容不分大小寫包含 keyword
const keywordFilter = ` WHERE (title ILIKE $1 ESCAPE '\' OR content ILIKE $1 ESCAPE '\')`

// GetNewsByID 新聞不存在時回傳 (nil, nil)
func GetNewsByID(ctx context.Context, db database.DB, id int) (*model.News, error) {
	n := &model.News{}
	if err := scanNews(db.QueryRow(ctx, selectNewsByID, id), n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetNewsByID: %w", err)
	}
	return n, nil
}

// CreateNews 寫入新聞，id 與 created_at 由資料庫產生
func CreateNews(ctx context.Context, db database.DB, n *model.News) (*model.News, error) {
	row := db.QueryRow(ctx, insertNews, n.Title, n.Content, n.Author)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateNews: %w", err)
	}
	return n, nil
}

// UpdateNews 覆寫 title/content/author，created_at 不變；
// 回傳 false 表示該筆已不存在
func UpdateNews(ctx context.Context, db database.DB, n *model.News) (bool, error) {
	tag, err := db.Exec(ctx, updateNews, n.Title, n.Content, n.Author, n.ID)
	if err != nil {
		return false, fmt.Errorf("UpdateNews: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteNews 回傳 false 表示沒有資料被刪除
func DeleteNews(ctx context.Context, db database.DB, id int) (bool, error) {
	tag, err := db.Exec(ctx, deleteNews, id)
	if err != nil {
		return false, fmt.Errorf("DeleteNews: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListNews 依 created_at 新到舊 (同時間以 id 新到舊) 取出一段新聞
func ListNews(ctx context.Context, db database.DB, keyword string, offset, limit int) ([]model.News, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + newsTable.selectColumns() + ` FROM ` + newsTable.name)
	if keyword != "" {
		sb.WriteString(keywordFilter)
		args = append(args, likePattern(keyword))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&sb, ` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ListNews: %w", err)
	}
	defer rows.Close()

	list := make([]model.News, 0, limit)
	for rows.Next() {
		var n model.News
		if err := scanNews(rows, &n); err != nil {
			return nil, fmt.Errorf("ListNews: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNews: %w", err)
	}
	return list, nil
}

// CountNews 回傳符合 keyword 的總筆數 (不受分頁影響)
func CountNews(ctx context.Context, db database.DB, keyword string) (int64, error) {
	query := `SELECT count(*) FROM ` + newsTable.name
	var args []any
	if keyword != "" {
		query += keywordFilter
		args = append(args, likePattern(keyword))
	}
	var total int64
	if err := db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("CountNews: %w", err)
	}
	return total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern 將使用者輸入視為純文字子字串
func likePattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

func scanNews(row pgx.Row, n *model.News) error {
	return row.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Author,
		&n.CreatedAt,
	)
}

// NewsSource 以 keyword 篩選的新聞集合，供 pagination.Paginate 使用
type NewsSource struct {
	DB      database.DB
	Keyword string
}

func (s NewsSource) Count(ctx context.Context) (int64, error) {
	return CountNews(ctx, s.DB, s.Keyword)
}

func (s NewsSource) Fetch(ctx context.Context, offset, limit int) ([]model.News, error) {
	return ListNews(ctx, s.DB, s.Keyword, offset, limit)
}
