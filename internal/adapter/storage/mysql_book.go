package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const bookColumns = `id, external_id, title, authors, categories, rating, price, stock, description, image, created_at, updated_at`

type MySQLBookStore struct {
	db *sql.DB
}

func NewMySQLBookStore(db *sql.DB) *MySQLBookStore {
	return &MySQLBookStore{db: db}
}

func (m *MySQLBookStore) Create(ctx context.Context, book domain.Book) error {
	authors, err := json.Marshal(book.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	categories, err := json.Marshal(book.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO books (id, external_id, title, authors, categories, rating, price, stock, description, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		book.ID, nullable(book.ExternalID), book.Title, authors, categories,
		book.Rating, book.Price, book.Stock, book.Description, book.Image,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (m *MySQLBookStore) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

func (m *MySQLBookStore) Find(ctx context.Context, filter port.BookFilter) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var conds []string
	var args []any
	if filter.Title != "" {
		conds = append(conds, `LOWER(title) LIKE ?`)
		args = append(args, "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Author != "" {
		// authors is a JSON array column; substring match covers any element
		conds = append(conds, `LOWER(authors) LIKE ?`)
		args = append(args, "%"+strings.ToLower(filter.Author)+"%")
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

func (m *MySQLBookStore) UpdateFields(ctx context.Context, id string, patch domain.BookPatch) (*domain.Book, error) {
	var sets []string
	var args []any

	set := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Authors != nil {
		b, err := json.Marshal(patch.Authors)
		if err != nil {
			return nil, fmt.Errorf("marshal authors: %w", err)
		}
		set("authors", b)
	}
	if patch.Categories != nil {
		b, err := json.Marshal(patch.Categories)
		if err != nil {
			return nil, fmt.Errorf("marshal categories: %w", err)
		}
		set("categories", b)
	}
	if patch.Rating != nil {
		set("rating", *patch.Rating)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Image != nil {
		set("image", *patch.Image)
	}
	if len(sets) == 0 {
		return m.mustFind(ctx, id)
	}

	args = append(args, id)
	_, err := m.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+`, updated_at = NOW() WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	// RowsAffected is 0 for both a missing id and a no-op patch; the
	// follow-up read distinguishes the two.
	return m.mustFind(ctx, id)
}

func (m *MySQLBookStore) mustFind(ctx context.Context, id string) (*domain.Book, error) {
	book, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (m *MySQLBookStore) Delete(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (m *MySQLBookStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT categories FROM books`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var all [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &tags); err != nil {
				return nil, fmt.Errorf("decode categories: %w", err)
			}
		}
		all = append(all, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return distinctCategories(all), nil
}

// distinctCategories flattens and deduplicates tag lists, preserving first
// appearance order.
func distinctCategories(lists [][]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, tags := range lists {
		for _, tag := range tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func (m *MySQLBookStore) FindTopByRating(ctx context.Context, limit int) ([]domain.Book, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY rating DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top rated: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

func (m *MySQLBookStore) DecrementStock(ctx context.Context, bookID string, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE books
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, bookID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLBookStore) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE books
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, bookID,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var b domain.Book
	var externalID sql.NullString
	var authors, categories []byte

	err := row.Scan(&b.ID, &externalID, &b.Title, &authors, &categories,
		&b.Rating, &b.Price, &b.Stock, &b.Description, &b.Image,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.ExternalID = externalID.String

	if err := json.Unmarshal(authors, &b.Authors); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	if err := json.Unmarshal(categories, &b.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return &b, nil
}

func collectBooks(rows *sql.Rows) ([]domain.Book, error) {
	out := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
