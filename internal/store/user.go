package store

import (
	"context"
	"errors"
	"fmt"

	"news-desk/internal/database"
	"news-desk/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	selectUserByUsername = `SELECT ` + usersTable.selectColumns() + `
		 FROM ` + usersTable.name + ` WHERE username = $1`
	insertUser = `INSERT INTO ` + usersTable.name + ` (username, email, hashed_password)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`
)

// ConflictError 帶出是哪一個唯一欄位衝突
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// GetUserByUsername 使用者不存在時回傳 (nil, nil)
func GetUserByUsername(ctx context.Context, db database.DB, username string) (*model.User, error) {
	row := db.QueryRow(ctx, selectUserByUsername, username)
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.HashedPassword,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return u, nil
}

// CreateUser 寫入使用者；username 或 email 重複時回傳 *ConflictError
func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	row := db.QueryRow(ctx, insertUser,
		u.Username,
		u.Email,
		u.HashedPassword,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			field := "username"
			if constraint == "users_email_key" {
				field = "email"
			}
			return nil, &ConflictError{Field: field}
		}
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}
