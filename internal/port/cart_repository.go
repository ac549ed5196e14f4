package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type CartRepository interface {
	// FindByUser returns all cart lines for a user, read-only here
	FindByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
}
