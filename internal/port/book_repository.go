package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

// BookFilter narrows a catalog search. Empty strings match everything.
// Title and Author are case-insensitive substring matches.
type BookFilter struct {
	Title  string
	Author string
}

type BookRepository interface {
	// Create persists a new book record
	Create(ctx context.Context, book domain.Book) error

	// FindByID returns nil, nil when the book does not exist
	FindByID(ctx context.Context, id string) (*domain.Book, error)

	// Find returns books matching the filter, newest first
	Find(ctx context.Context, filter BookFilter) ([]domain.Book, error)

	// UpdateFields applies a partial patch and returns the updated record
	UpdateFields(ctx context.Context, id string, patch domain.BookPatch) (*domain.Book, error)

	// Delete removes the record; missing id reports domain.ErrBookNotFound
	Delete(ctx context.Context, id string) error

	// ListCategories returns the distinct category tags across all books
	ListCategories(ctx context.Context) ([]string, error)

	// FindTopByRating returns up to limit books ordered by rating descending
	FindTopByRating(ctx context.Context, limit int) ([]domain.Book, error)

	// DecrementStock atomically decreases stock, returns false if insufficient
	DecrementStock(ctx context.Context, bookID string, quantity int) (bool, error)

	// IncrementStock restores stock (for rollback on partial checkout failure)
	IncrementStock(ctx context.Context, bookID string, quantity int) error
}
