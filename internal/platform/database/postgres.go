package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LOSS98/tunis-gp/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

// Connect opens the pgx-backed pool and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	zap.L().Info("Successfully connected to PostgreSQL database",
		zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

func Close(db *sql.DB) {
	if db != nil {
		db.Close()
		zap.L().Info("Database connection closed")
	}
}
