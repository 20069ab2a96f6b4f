package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const clientStateSchema = `
CREATE TABLE IF NOT EXISTS client_state (
	client_id  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (client_id, key)
)`

// Postgres persists client state in a key/value table, for deployments
// that already run the gateway next to a Postgres instance.
type Postgres struct {
	db       *sqlx.DB
	clientID string
}

// NewPostgres connects to Postgres and bootstraps the state table.
func NewPostgres(databaseURL, clientID string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(clientStateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create client_state table: %w", err)
	}

	return &Postgres{db: db, clientID: clientID}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.GetContext(ctx, &value,
		"SELECT value FROM client_state WHERE client_id = $1 AND key = $2", p.clientID, key)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read client state: %w", err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO client_state (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		p.clientID, key, value)
	if err != nil {
		return fmt.Errorf("failed to write client state: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx,
		"DELETE FROM client_state WHERE client_id = $1 AND key = $2", p.clientID, key)
	if err != nil {
		return fmt.Errorf("failed to delete client state: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
