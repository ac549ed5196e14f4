package service

import (
	"context"
	"fmt"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

// ReservationService decides whether a user's cart can be fulfilled against
// present stock. It never writes: the answer is advisory and may be stale by
// commit time, so the commit path re-checks atomically.
type ReservationService struct {
	books port.BookRepository
	carts port.CartRepository
}

func NewReservationService(books port.BookRepository, carts port.CartRepository) *ReservationService {
	return &ReservationService{books: books, carts: carts}
}

// Validate partitions the user's cart lines into satisfiable and
// unsatisfiable against current stock. Every line lands in exactly one
// partition. A cart line referencing a missing book is a dangling reference
// and fails the whole call with domain.ErrBookNotFound; a non-positive
// quantity fails it with domain.ErrValidation.
func (s *ReservationService) Validate(ctx context.Context, userID string) (*domain.ReservationOutcome, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	lines, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	outcome := domain.ReservationOutcome{
		Satisfiable:   []domain.ReservationLine{},
		Unsatisfiable: []domain.ReservationLine{},
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for book %s must be positive", domain.ErrValidation, line.BookID)
		}

		book, err := s.books.FindByID(ctx, line.BookID)
		if err != nil {
			return nil, fmt.Errorf("find book %s: %w", line.BookID, err)
		}
		if book == nil {
			return nil, fmt.Errorf("cart references book %s: %w", line.BookID, domain.ErrBookNotFound)
		}

		resolved := domain.ReservationLine{
			BookID:   book.ID,
			Title:    book.Title,
			Quantity: line.Quantity,
		}
		if book.Stock >= line.Quantity {
			outcome.Satisfiable = append(outcome.Satisfiable, resolved)
		} else {
			outcome.Unsatisfiable = append(outcome.Unsatisfiable, resolved)
		}
	}

	outcome.Approved = len(outcome.Unsatisfiable) == 0
	return &outcome, nil
}
