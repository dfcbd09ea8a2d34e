package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Carbonlock store (SQLite).
var Migrations = migrate.NewGroup("carbonlock")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_carbonlock_contracts",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carbonlock_contracts (
    id               INTEGER PRIMARY KEY,
    seller           TEXT NOT NULL,
    designated_buyer TEXT NOT NULL DEFAULT '',
    buyer            TEXT,
    amount_tonnes    INTEGER NOT NULL CHECK (amount_tonnes > 0),
    price_usd        REAL NOT NULL CHECK (price_usd >= 0),
    delivery_year    INTEGER NOT NULL,
    status           TEXT NOT NULL DEFAULT 'created',
    settlement_tx_id INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_carbonlock_contracts_status ON carbonlock_contracts (status);
CREATE INDEX IF NOT EXISTS idx_carbonlock_contracts_seller ON carbonlock_contracts (seller);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carbonlock_contracts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carbonlock_credits",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carbonlock_credits (
    id                 INTEGER PRIMARY KEY,
    owner              TEXT NOT NULL,
    risk_score         INTEGER,
    risk_score_history TEXT NOT NULL DEFAULT '[]',
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_carbonlock_credits_owner ON carbonlock_credits (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carbonlock_credits`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carbonlock_transactions",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carbonlock_transactions (
    tx_id          INTEGER PRIMARY KEY,
    reference      TEXT NOT NULL,
    from_account   TEXT NOT NULL,
    to_account     TEXT NOT NULL,
    amount         INTEGER NOT NULL,
    status         TEXT NOT NULL DEFAULT 'pending',
    failure_reason TEXT NOT NULL DEFAULT '',
    timestamp      INTEGER NOT NULL,
    resolved_at    INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carbonlock_tx_reference ON carbonlock_transactions (reference);
CREATE INDEX IF NOT EXISTS idx_carbonlock_tx_status ON carbonlock_transactions (status);
CREATE INDEX IF NOT EXISTS idx_carbonlock_tx_from ON carbonlock_transactions (from_account);
CREATE INDEX IF NOT EXISTS idx_carbonlock_tx_to ON carbonlock_transactions (to_account);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carbonlock_transactions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carbonlock_events",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carbonlock_events (
    seq         INTEGER PRIMARY KEY,
    id          TEXT NOT NULL,
    type        TEXT NOT NULL,
    contract_id INTEGER NOT NULL DEFAULT 0,
    credit_id   INTEGER NOT NULL DEFAULT 0,
    timestamp   INTEGER NOT NULL,
    details     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_carbonlock_events_contract ON carbonlock_events (contract_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carbonlock_events`)
				return err
			},
		},
	)
}
