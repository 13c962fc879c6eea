// File: internal/store/schema.go
package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// table 描述一張資料表：名稱與 SELECT 時的欄位順序
type table struct {
	name    string
	columns []string
}

func (t table) selectColumns() string {
	return strings.Join(t.columns, ", ")
}

var (
	usersTable = table{
		name:    "users",
		columns: []string{"id", "username", "email", "hashed_password", "created_at"},
	}
	newsTable = table{
		name:    "news",
		columns: []string{"id", "title", "content", "author", "created_at"},
	}
)

// ErrConflict 違反唯一性限制
var ErrConflict = errors.New("conflict")

const uniqueViolation = "23505"

// isUniqueViolation 判斷是否為 Postgres unique_violation，並回傳限制名稱
func isUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
