package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"echofm/config"
	"echofm/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Connect opens the shared MySQL connection pool. The pool is constructed
// once at process start and threaded into every repository as an explicit
// dependency; callers own its lifecycle and must Close it on shutdown.
func Connect(cfg *config.Config) (*sql.DB, error) {
	pool, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Bounded pool: acquisition blocks (with the caller's context timeout)
	// when exhausted rather than failing fast.
	pool.SetMaxOpenConns(cfg.DBMaxOpenConns)
	pool.SetMaxIdleConns(cfg.DBMaxIdleConns)
	pool.SetConnMaxLifetime(cfg.DBConnMaxLife)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBAcquireWait)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to MySQL",
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName),
		logger.Int("maxOpenConns", cfg.DBMaxOpenConns),
	)
	return pool, nil
}

// dsn builds the runtime connection string. loc=Local keeps stored
// DATETIMEs and day-grouping SQL on the server-local calendar that the
// weekly activity series is labeled with.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// HealthCheck verifies the pool still serves connections.
func HealthCheck(ctx context.Context, pool *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.PingContext(ctx)
}
