// internal/db/db.go
package db

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/lib/pq"
    "github.com/pressly/goose/v3"
    log "github.com/sirupsen/logrus"

    "github.com/unclebandit/opsboard-backend/internal/config"
    "github.com/unclebandit/opsboard-backend/internal/db/migrations"
)

// Connect opens and pings a PostgreSQL pool.
func Connect(cfg config.DBConfig) (*sql.DB, error) {
    log.WithField("dsn", config.MaskPassword(cfg.DSN())).Info("connecting to database")

    db, err := sql.Open("postgres", cfg.DSN())
    if err != nil {
        return nil, fmt.Errorf("failed to open DB: %w", err)
    }

    db.SetMaxOpenConns(cfg.MaxOpenConns)
    db.SetMaxIdleConns(cfg.MaxIdleConns)
    db.SetConnMaxLifetime(time.Hour)
    db.SetConnMaxIdleTime(30 * time.Minute)

    if err := db.Ping(); err != nil {
        db.Close()
        return nil, fmt.Errorf("failed to ping DB: %w", err)
    }

    log.Info("connected to database")
    return db, nil
}

// gooseUp is swapped in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
    return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
    goose.SetBaseFS(migrations.FS)
    if err := goose.SetDialect("postgres"); err != nil {
        return err
    }
    if err := gooseUp(ctx, db, "."); err != nil {
        return fmt.Errorf("migrate: %w", err)
    }
    return nil
}
