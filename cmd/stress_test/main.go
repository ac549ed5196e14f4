package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/bookstore?parseTime=true"
	redisAddr     = "localhost:6379"
	bookID        = "stress-test-book"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous test data
	db.ExecContext(ctx, `DELETE FROM cart_lines WHERE book_id = ?`, bookID)
	db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID)
	keys, _ := rdb.Keys(ctx, "checkout:stress-user-*").Result()
	for _, k := range keys {
		rdb.Del(ctx, k)
	}

	bookStore := storage.NewMySQLBookStore(db)
	cartStore := storage.NewMySQLCartStore(db)
	cache := storage.NewRedisAdapter(rdb)

	if err := bookStore.Create(ctx, domain.Book{
		ID:         bookID,
		Title:      "Stress Test Book",
		Authors:    []string{"Load Generator"},
		Categories: []string{"Testing"},
		Price:      1000,
		Stock:      initialStock,
	}); err != nil {
		log.Fatalf("failed to create book: %v", err)
	}

	// One single-copy cart line per simulated user
	for i := 0; i < totalRequests; i++ {
		_, err := db.ExecContext(ctx, `
			INSERT INTO cart_lines (id, user_id, book_id, quantity)
			VALUES (?, ?, ?, 1)`,
			uuid.New().String(), fmt.Sprintf("stress-user-%d", i), bookID)
		if err != nil {
			log.Fatalf("failed to create cart line: %v", err)
		}
	}

	reservations := service.NewReservationService(bookStore, cartStore)
	checkout := service.NewCheckoutService(bookStore, cache, nil, reservations)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := checkout.Commit(ctx, fmt.Sprintf("stress-user-%d", userID), uuid.New().String())
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d checkouts succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	book, err := bookStore.FindByID(ctx, bookID)
	if err != nil || book == nil {
		log.Fatalf("failed to read back book: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", book.Stock)

	if book.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", book.Stock)
	}
}
