package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

// Mock BookRepository
type mockBookRepo struct {
	mu     sync.Mutex
	books  map[string]*domain.Book
	order  []string
	failAt int // fail the Nth Create (1-based), 0 disables
	writes int
}

func newMockBookRepo(books ...domain.Book) *mockBookRepo {
	m := &mockBookRepo{books: make(map[string]*domain.Book)}
	for _, b := range books {
		copied := b
		m.books[b.ID] = &copied
		m.order = append(m.order, b.ID)
	}
	return m
}

func (m *mockBookRepo) Create(ctx context.Context, book domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failAt > 0 && m.writes >= m.failAt {
		return errors.New("simulated store failure")
	}
	copied := book
	m.books[book.ID] = &copied
	m.order = append(m.order, book.ID)
	return nil
}

func (m *mockBookRepo) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookRepo) Find(ctx context.Context, filter port.BookFilter) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Book{}
	for _, id := range m.order {
		b := m.books[id]
		if filter.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Author != "" {
			matched := false
			for _, a := range b.Authors {
				if strings.Contains(strings.ToLower(a), strings.ToLower(filter.Author)) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookRepo) UpdateFields(ctx context.Context, id string, patch domain.BookPatch) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Authors != nil {
		b.Authors = patch.Authors
	}
	if patch.Categories != nil {
		b.Categories = patch.Categories
	}
	if patch.Rating != nil {
		b.Rating = *patch.Rating
	}
	if patch.Price != nil {
		b.Price = *patch.Price
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Image != nil {
		b.Image = *patch.Image
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *mockBookRepo) ListCategories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, id := range m.order {
		b, ok := m.books[id]
		if !ok {
			continue
		}
		for _, c := range b.Categories {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockBookRepo) FindTopByRating(ctx context.Context, limit int) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Book{}
	for _, b := range m.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockBookRepo) DecrementStock(ctx context.Context, bookID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok || b.Stock < quantity {
		return false, nil
	}
	b.Stock -= quantity
	return true, nil
}

func (m *mockBookRepo) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.books[bookID]; ok {
		b.Stock += quantity
	}
	return nil
}

// Mock CartRepository
type mockCartRepo struct {
	lines []domain.CartLine
}

func (m *mockCartRepo) FindByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	out := []domain.CartLine{}
	for _, l := range m.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	volumes        map[string][]byte
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		idempotencySet: make(map[string]bool),
		volumes:        make(map[string][]byte),
	}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) GetVolumeJSON(ctx context.Context, externalID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumes[externalID], nil
}

func (m *mockCacheRepo) SetVolumeJSON(ctx context.Context, externalID string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes[externalID] = payload
	return nil
}

// Mock CatalogProvider
type mockProvider struct {
	volumes map[string]port.Volume
	search  []port.Volume
	err     error
}

func (m *mockProvider) GetVolume(ctx context.Context, externalID string) (*port.Volume, error) {
	if m.err != nil {
		return nil, m.err
	}
	vol, ok := m.volumes[externalID]
	if !ok {
		return nil, errors.New("volume not found")
	}
	return &vol, nil
}

func (m *mockProvider) SearchByAuthor(ctx context.Context, author string) ([]port.Volume, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.search, nil
}

// Mock EventPublisher
type mockPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, routingKey)
	return nil
}
