package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

type CatalogService struct {
	books    port.BookRepository
	provider port.CatalogProvider
	events   port.EventPublisher
	lang     string
}

func NewCatalogService(books port.BookRepository, provider port.CatalogProvider, events port.EventPublisher, lang string) *CatalogService {
	return &CatalogService{
		books:    books,
		provider: provider,
		events:   events,
		lang:     lang,
	}
}

func (s *CatalogService) publish(ctx context.Context, key, bookID string) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, key, fmt.Appendf(nil, `{"id":%q}`, bookID))
}

// NewBookInput carries the fields an author supplies when creating a book
// directly, without provider involvement.
type NewBookInput struct {
	Title       string
	Authors     []string
	Categories  []string
	Rating      float64
	Price       float64
	Stock       int
	Description string
	Image       string
}

func (in NewBookInput) validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(in.Authors) == 0 {
		return fmt.Errorf("%w: at least one author is required", domain.ErrValidation)
	}
	for _, c := range in.Categories {
		if c == "" {
			return fmt.Errorf("%w: empty category tag", domain.ErrValidation)
		}
	}
	if in.Rating < 0 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateBook(ctx context.Context, in NewBookInput) (*domain.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	book := domain.Book{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Authors:     in.Authors,
		Categories:  in.Categories,
		Rating:      in.Rating,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		Image:       in.Image,
	}
	if book.Categories == nil {
		book.Categories = []string{}
	}

	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.publish(ctx, "catalog.book.created", book.ID)
	return &book, nil
}

// GetBook loads a book and applies the display-time enrichment overlay.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	if book == nil {
		return nil, domain.ErrBookNotFound
	}
	enriched, err := s.EnrichForDisplay(ctx, *book)
	if err != nil {
		return nil, err
	}
	return &enriched, nil
}

// EnrichForDisplay overlays the stored image with the provider's
// medium-resolution image for seeded books. The overlay lives only in the
// returned copy; nothing is written back. A provider failure propagates so
// outages stay visible to callers.
func (s *CatalogService) EnrichForDisplay(ctx context.Context, book domain.Book) (domain.Book, error) {
	if book.ExternalID == "" {
		return book, nil
	}

	vol, err := s.provider.GetVolume(ctx, book.ExternalID)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch volume %s: %w", book.ExternalID, err)
	}

	if vol.MediumImage != "" {
		book.Image = vol.MediumImage
	} else {
		book.Image = fallbackImage
	}
	return book, nil
}

func (s *CatalogService) Search(ctx context.Context, filter port.BookFilter) ([]domain.Book, error) {
	return s.books.Find(ctx, filter)
}

func (s *CatalogService) UpdateBook(ctx context.Context, id string, patch domain.BookPatch) (*domain.Book, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no updatable fields supplied", domain.ErrValidation)
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	if patch.Authors != nil && len(patch.Authors) == 0 {
		return nil, fmt.Errorf("%w: at least one author is required", domain.ErrValidation)
	}
	for _, c := range patch.Categories {
		if c == "" {
			return nil, fmt.Errorf("%w: empty category tag", domain.ErrValidation)
		}
	}
	if patch.Rating != nil && (*patch.Rating < 0 || *patch.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}

	book, err := s.books.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "catalog.book.updated", id)
	return book, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "catalog.book.deleted", id)
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.books.ListCategories(ctx)
}

const topRatedLimit = 10

func (s *CatalogService) TopRated(ctx context.Context) ([]domain.Book, error) {
	return s.books.FindTopByRating(ctx, topRatedLimit)
}

// SeedByAuthor searches the provider for an author's volumes, drops those
// outside the target language, and persists the rest one record at a time.
// A mid-batch failure keeps already-committed records and aborts the rest;
// the returned count covers committed records only.
func (s *CatalogService) SeedByAuthor(ctx context.Context, author string) (int, error) {
	if author == "" {
		return 0, fmt.Errorf("%w: author is required", domain.ErrValidation)
	}

	vols, err := s.provider.SearchByAuthor(ctx, author)
	if err != nil {
		return 0, fmt.Errorf("search volumes: %w", err)
	}

	created := 0
	for _, vol := range vols {
		candidate, ok := MergeExternalVolume(vol, s.lang)
		if !ok {
			continue
		}
		if err := s.books.Create(ctx, candidate); err != nil {
			return created, fmt.Errorf("persist volume %s: %w", vol.ID, err)
		}
		s.publish(ctx, "catalog.book.created", candidate.ID)
		created++
	}

	log.Info().Str("author", author).Int("created", created).Msg("seeded catalog from provider")
	return created, nil
}
