package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseQueryer is satisfied by both *pgxpool.Pool and pgx.Tx so
// repositories can run inside or outside a transaction.
type DatabaseQueryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnectDB opens the pool once at startup. It panics when the database
// is unreachable since the server cannot serve anything without it.
func ConnectDB(connectionString string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		panic(fmt.Errorf("failed to create connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		panic(fmt.Errorf("failed to ping database: %w", err))
	}

	log.Infof("[Database] connected to %s", pool.Config().ConnConfig.Host)
	return pool
}

const noteSchema = `
CREATE TABLE IF NOT EXISTS note (
	id         UUID PRIMARY KEY,
	message    VARCHAR(300) NOT NULL,
	signature  VARCHAR(50)  NOT NULL,
	created_at TIMESTAMPTZ  NOT NULL,
	updated_at TIMESTAMPTZ  NOT NULL
);

CREATE INDEX IF NOT EXISTS note_message_signature_idx ON note (message, signature);
CREATE INDEX IF NOT EXISTS note_created_at_idx ON note (created_at, id);
`

// Migrate creates the note table and its indexes when missing.
func Migrate(ctx context.Context, db DatabaseQueryer) error {
	if _, err := db.Exec(ctx, noteSchema); err != nil {
		return fmt.Errorf("failed to apply note schema: %w", err)
	}
	return nil
}

// TxBeginner is implemented by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
