package storage

import (
	"context"
	"database/sql"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/bookstore?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func insertTestBook(t *testing.T, store *MySQLBookStore, book domain.Book) domain.Book {
	t.Helper()
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if book.Authors == nil {
		book.Authors = []string{"Test Author"}
	}
	if book.Categories == nil {
		book.Categories = []string{}
	}
	if err := store.Create(context.Background(), book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	t.Cleanup(func() {
		store.db.ExecContext(context.Background(), `DELETE FROM books WHERE id = ?`, book.ID)
	})
	return book
}

func TestCreateAndFindBook(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	book := insertTestBook(t, store, domain.Book{
		Title:       "Roundtrip",
		Authors:     []string{"First Author", "Second Author"},
		Categories:  []string{"Fiction"},
		Rating:      4.2,
		Price:       19999,
		Stock:       7,
		Description: "a test record",
		Image:       "http://example.com/cover.jpg",
		ExternalID:  "ext-roundtrip",
	})

	got, err := store.FindByID(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected book, got nil")
	}
	if !reflect.DeepEqual(got.Authors, book.Authors) {
		t.Errorf("authors mismatch: %v", got.Authors)
	}
	if got.ExternalID != "ext-roundtrip" {
		t.Errorf("external id mismatch: %q", got.ExternalID)
	}
	if got.Stock != 7 {
		t.Errorf("stock mismatch: %d", got.Stock)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	got, err := store.FindByID(context.Background(), "nonexistent-book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent book")
	}
}

func TestFind_TitleSubstringCaseInsensitive(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	book := insertTestBook(t, store, domain.Book{Title: "The Quiet MACHINE xyzzy"})

	found, err := store.Find(context.Background(), port.BookFilter{Title: "machine xyz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matched := false
	for _, b := range found {
		if b.ID == book.ID {
			matched = true
		}
	}
	if !matched {
		t.Error("expected case-insensitive substring match on title")
	}
}

func TestUpdateFields_Partial(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	book := insertTestBook(t, store, domain.Book{
		Title: "Before",
		Image: "http://example.com/keep.jpg",
		Stock: 3,
	})

	title := "After"
	updated, err := store.UpdateFields(context.Background(), book.ID, domain.BookPatch{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "After" {
		t.Errorf("title not updated: %q", updated.Title)
	}
	if updated.Image != "http://example.com/keep.jpg" {
		t.Errorf("unpatched image changed: %q", updated.Image)
	}
	if updated.Stock != 3 {
		t.Errorf("stock must not change on patch: %d", updated.Stock)
	}
}

func TestUpdateFields_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	title := "x"
	_, err := store.UpdateFields(context.Background(), "nonexistent-book", domain.BookPatch{Title: &title})
	if err != domain.ErrBookNotFound {
		t.Errorf("expected ErrBookNotFound, got: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	if err := store.Delete(context.Background(), "nonexistent-book"); err != domain.ErrBookNotFound {
		t.Errorf("expected ErrBookNotFound, got: %v", err)
	}
}

func TestDecrementStock_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	book := insertTestBook(t, store, domain.Book{Title: "Decrement", Stock: 10})

	ok, err := store.DecrementStock(context.Background(), book.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}

	got, _ := store.FindByID(context.Background(), book.ID)
	if got.Stock != 7 {
		t.Errorf("expected stock 7, got %d", got.Stock)
	}
}

func TestDecrementStock_Insufficient(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	book := insertTestBook(t, store, domain.Book{Title: "Scarce", Stock: 2})

	ok, err := store.DecrementStock(context.Background(), book.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected failure for insufficient stock")
	}

	got, _ := store.FindByID(context.Background(), book.ID)
	if got.Stock != 2 {
		t.Errorf("stock must be unchanged, got %d", got.Stock)
	}
}

func TestDecrementStock_Concurrent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLBookStore(db)
	initialStock := 20
	totalRequests := 50
	book := insertTestBook(t, store, domain.Book{Title: "Contended", Stock: initialStock})

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.DecrementStock(context.Background(), book.ID, 1)
			if err == nil && ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successful decrements, got %d", initialStock, successCount.Load())
	}

	got, _ := store.FindByID(context.Background(), book.ID)
	if got.Stock != 0 {
		t.Errorf("expected stock 0, got %d", got.Stock)
	}
}

func TestDistinctCategories(t *testing.T) {
	got := distinctCategories([][]string{
		{"Fiction", "Drama"},
		nil,
		{"Drama", "History", "Fiction"},
	})
	want := []string{"Fiction", "Drama", "History"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDistinctCategories_Empty(t *testing.T) {
	got := distinctCategories(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
