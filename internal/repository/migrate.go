package repository

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL     PRIMARY KEY,
    username      VARCHAR       NOT NULL,
    email         VARCHAR       NOT NULL UNIQUE,
    password_hash VARCHAR       NOT NULL,
    created_at    TIMESTAMPTZ   NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,

	`CREATE TABLE IF NOT EXISTS accounts (
    id            BIGSERIAL     PRIMARY KEY,
    user_id       BIGINT        NOT NULL UNIQUE REFERENCES users (id),
    balance       BIGINT        NOT NULL DEFAULT 0,
    currency      VARCHAR       NOT NULL DEFAULT 'EUR',
    created_at    TIMESTAMPTZ   NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMPTZ   NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,

	`CREATE TABLE IF NOT EXISTS leases (
    id             UUID          PRIMARY KEY,
    renter_id      BIGINT        NOT NULL REFERENCES users (id),
    landlord_id    BIGINT        NOT NULL REFERENCES users (id),
    rent_amount    BIGINT        NOT NULL,
    start_date     TIMESTAMPTZ   NOT NULL,
    end_date       TIMESTAMPTZ   NOT NULL,
    first_due_date TIMESTAMPTZ   NOT NULL,
    location       VARCHAR       NOT NULL,
    score          INTEGER       NOT NULL,
    created_at     TIMESTAMPTZ   NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMPTZ   NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,

	`CREATE INDEX IF NOT EXISTS leases_renter_idx ON leases (renter_id);`,

	`CREATE INDEX IF NOT EXISTS leases_landlord_idx ON leases (landlord_id);`,

	`CREATE TABLE IF NOT EXISTS payment_slots (
    lease_id   UUID          NOT NULL REFERENCES leases (id),
    idx        INTEGER       NOT NULL,
    due_date   TIMESTAMPTZ   NOT NULL,
    on_time    BOOLEAN       NOT NULL DEFAULT FALSE,
    paid       BOOLEAN       NOT NULL DEFAULT FALSE,
    missed     BOOLEAN       NOT NULL DEFAULT FALSE,

    PRIMARY KEY (lease_id, idx)
);`,

	`CREATE TABLE IF NOT EXISTS payments (
    id         BIGSERIAL     PRIMARY KEY,
    lease_id   UUID          NOT NULL REFERENCES leases (id),
    slot_idx   INTEGER       NOT NULL,
    payer_id   BIGINT        NOT NULL REFERENCES users (id),
    amount     BIGINT        NOT NULL,
    on_time    BOOLEAN       NOT NULL,
    paid_at    TIMESTAMPTZ   NOT NULL
);`,
}

// Migrate creates the rent schema and all tables.
func Migrate(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
