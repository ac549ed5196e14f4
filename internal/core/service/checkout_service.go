package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrStockRejected    = errors.New("insufficient stock for cart")
	ErrEmptyCart        = errors.New("cart is empty")
)

// CheckoutService commits an approved reservation. Validation is advisory
// and may be stale by the time the commit runs, so every decrement here is
// conditional at the store; a partial commit is rolled back by restoring the
// already-decremented lines.
type CheckoutService struct {
	books        port.BookRepository
	cache        port.CacheRepository
	events       port.EventPublisher
	reservations *ReservationService
}

func NewCheckoutService(books port.BookRepository, cache port.CacheRepository, events port.EventPublisher, reservations *ReservationService) *CheckoutService {
	return &CheckoutService{
		books:        books,
		cache:        cache,
		events:       events,
		reservations: reservations,
	}
}

// Commit re-validates the user's cart and applies the conditional stock
// decrements. On rejection the returned outcome carries both partitions so
// the caller can show the user what to adjust. requestID deduplicates
// client retries.
func (s *CheckoutService) Commit(ctx context.Context, userID, requestID string) (*domain.ReservationOutcome, error) {
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}

	idempotencyKey := fmt.Sprintf("checkout:%s:%s", userID, requestID)
	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	outcome, err := s.reservations.Validate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(outcome.Satisfiable) == 0 && len(outcome.Unsatisfiable) == 0 {
		return nil, ErrEmptyCart
	}
	if !outcome.Approved {
		return outcome, ErrStockRejected
	}

	committed := make([]domain.ReservationLine, 0, len(outcome.Satisfiable))
	for _, line := range outcome.Satisfiable {
		ok, err := s.books.DecrementStock(ctx, line.BookID, line.Quantity)
		if err != nil {
			s.rollback(ctx, committed)
			return nil, fmt.Errorf("decrement stock for %s: %w", line.BookID, err)
		}
		if !ok {
			// Another checkout won the race for this line.
			s.rollback(ctx, committed)
			rejected := s.rejectedOutcome(outcome.Satisfiable, line.BookID)
			return rejected, ErrStockRejected
		}
		committed = append(committed, line)
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, "checkout.committed", fmt.Appendf(nil, `{"user_id":%q,"lines":%d}`, userID, len(committed)))
	}
	return outcome, nil
}

func (s *CheckoutService) rollback(ctx context.Context, committed []domain.ReservationLine) {
	for _, line := range committed {
		if err := s.books.IncrementStock(ctx, line.BookID, line.Quantity); err != nil {
			log.Error().
				Str("book_id", line.BookID).
				Int("quantity", line.Quantity).
				Err(err).
				Msg("CRITICAL: stock rollback failed")
		}
	}
}

// rejectedOutcome re-partitions the approved lines after a lost race: the
// contested line becomes unsatisfiable, everything else stays satisfiable.
func (s *CheckoutService) rejectedOutcome(lines []domain.ReservationLine, failedBookID string) *domain.ReservationOutcome {
	out := domain.ReservationOutcome{
		Satisfiable:   []domain.ReservationLine{},
		Unsatisfiable: []domain.ReservationLine{},
	}
	for _, line := range lines {
		if line.BookID == failedBookID {
			out.Unsatisfiable = append(out.Unsatisfiable, line)
		} else {
			out.Satisfiable = append(out.Satisfiable, line)
		}
	}
	return &out
}
