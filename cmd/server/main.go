package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rl1809/bookstore/internal/adapter/events"
	"github.com/rl1809/bookstore/internal/adapter/gateway"
	"github.com/rl1809/bookstore/internal/adapter/handler"
	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/config"
	"github.com/rl1809/bookstore/internal/core/service"
)

const eventsExchange = "bookstore.events"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}
	log.Info().Msg("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	log.Info().Msg("connected to redis")

	// RabbitMQ is optional; without a URL events are dropped.
	rabbit, err := events.NewRabbit(cfg.RabbitURL, eventsExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect rabbitmq")
	}
	if rabbit != nil {
		log.Info().Str("exchange", eventsExchange).Msg("connected to rabbitmq")
	}

	// Adapters
	bookStore := storage.NewMySQLBookStore(db)
	cartStore := storage.NewMySQLCartStore(db)
	cache := storage.NewRedisAdapter(rdb)
	provider := gateway.NewGoogleBooks(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout, cache)

	// Services
	catalogService := service.NewCatalogService(bookStore, provider, rabbit, cfg.ProviderLang)
	reservationService := service.NewReservationService(bookStore, cartStore)
	checkoutService := service.NewCheckoutService(bookStore, cache, rabbit, reservationService)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(catalogService, reservationService, checkoutService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: cors.Default().Handler(mux),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("HTTP server stopped")

	rabbit.Close()
	rdb.Close()
	db.Close()
	log.Info().Msg("connections closed")
}
