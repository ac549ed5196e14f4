package config

import (
	"os"
	"time"
)

type Config struct {
	HTTPAddr  string
	MySQLDSN  string
	RedisAddr string
	RabbitURL string

	// External catalog provider
	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderLang    string
	ProviderTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	return Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:  getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/bookstore?parseTime=true"),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL: getenv("RABBITMQ_URL", ""),

		ProviderBaseURL: getenv("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
		ProviderAPIKey:  getenv("GOOGLE_API_KEY", ""),
		ProviderLang:    getenv("CATALOG_LANGUAGE", "en"),
		ProviderTimeout: getenvDuration("GOOGLE_BOOKS_TIMEOUT", 10*time.Second),
	}
}
