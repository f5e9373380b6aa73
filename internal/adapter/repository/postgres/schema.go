package postgres

import (
	"context"
	"fmt"
)

// schema holds the tables read and written by the analytics core.
// Client, portfolio and asset CRUD live elsewhere; the statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id       UUID PRIMARY KEY,
		owner_id UUID NOT NULL,
		name     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_owner_id ON clients (owner_id)`,
	`CREATE TABLE IF NOT EXISTS portfolios (
		id        UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients (id),
		name      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id            UUID PRIMARY KEY,
		ticker_symbol TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		id             UUID PRIMARY KEY,
		portfolio_id   UUID NOT NULL REFERENCES portfolios (id),
		asset_id       UUID NOT NULL REFERENCES assets (id),
		quantity       NUMERIC(24, 8) NOT NULL CHECK (quantity >= 0),
		purchase_price NUMERIC(24, 8) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
		id           UUID PRIMARY KEY,
		portfolio_id UUID NOT NULL REFERENCES portfolios (id),
		value        NUMERIC(24, 2) NOT NULL,
		timestamp    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_portfolio_snapshots_portfolio_ts
		ON portfolio_snapshots (portfolio_id, timestamp DESC)`,
}

// Migrate creates the tables used by the repositories if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
