package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the portal's tables. Records never move between tenants, so
// tenant_id is written once at insert and only ever filtered on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customer (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS site (
		id           UUID PRIMARY KEY,
		tenant_id    TEXT NOT NULL,
		name         TEXT NOT NULL,
		address      TEXT NOT NULL DEFAULT '',
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS portal_order (
		id             UUID PRIMARY KEY,
		order_number   TEXT NOT NULL UNIQUE,
		tenant_id      TEXT NOT NULL,
		site_id        UUID,
		status         TEXT NOT NULL,
		direct_to_patient BOOLEAN NOT NULL DEFAULT FALSE,
		patient_name   TEXT NOT NULL DEFAULT '',
		patient_dob    TEXT NOT NULL DEFAULT '',
		patient_address TEXT NOT NULL DEFAULT '',
		item_count     INT NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_portal_order_tenant ON portal_order (tenant_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS portal_audit_log (
		log_id           TEXT PRIMARY KEY,
		recorded_at      TIMESTAMPTZ NOT NULL,
		action           TEXT NOT NULL,
		actor_id         TEXT NOT NULL,
		actor_name       TEXT NOT NULL DEFAULT '',
		target_tenant_id TEXT,
		resource         TEXT NOT NULL DEFAULT '',
		order_id         TEXT,
		reason           TEXT,
		details          JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_portal_audit_action ON portal_audit_log (action, recorded_at DESC)`,
}

// Migrate applies the portal schema. Statements are idempotent so it runs on
// every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
