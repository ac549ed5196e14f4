package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type MySQLCartStore struct {
	db *sql.DB
}

func NewMySQLCartStore(db *sql.DB) *MySQLCartStore {
	return &MySQLCartStore{db: db}
}

func (m *MySQLCartStore) FindByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, book_id, quantity
		FROM cart_lines WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
