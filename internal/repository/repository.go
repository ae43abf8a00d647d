package repository

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

// Repository provides database operations
type Repository struct {
	db    *sql.DB
	log   *logrus.Logger
	guard callGuard
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, log *logrus.Logger) *Repository {
	return &Repository{db: db, log: log, guard: callGuard{log: log}}
}

// EnsureSchema creates the tables the game server needs. Safe to run on
// every start.
func (r *Repository) EnsureSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS balancesheets (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			assets JSONB NOT NULL DEFAULT '[]',
			liabilities JSONB NOT NULL DEFAULT '[]',
			income JSONB NOT NULL DEFAULT '[]',
			expenses JSONB NOT NULL DEFAULT '[]',
			prev_balancesheet TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS bank_accounts (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			late_payments INT NOT NULL DEFAULT 0,
			logs JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS game_bank (
			name TEXT PRIMARY KEY,
			balance DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS lotto_tickets (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			cost DOUBLE PRECISION NOT NULL,
			prize DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			result_at TIMESTAMPTZ NOT NULL,
			bought_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS lotto_tickets_due_idx
			ON lotto_tickets (status, result_at);`
	return r.guard.do("EnsureSchema", func() error {
		_, err := r.db.Exec(schema)
		return err
	})
}
