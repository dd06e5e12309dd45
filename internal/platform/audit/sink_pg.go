package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists audit entries in the portal_audit_log table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink backed by the given connection pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Deliver(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("audit sink: marshal details: %w", err)
	}

	const query = `
		INSERT INTO portal_audit_log (
			log_id, recorded_at, action,
			actor_id, actor_name, target_tenant_id,
			resource, order_id, reason, details
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	var orderID, reason *string
	if entry.OrderID != "" {
		orderID = &entry.OrderID
	}
	if entry.Reason != "" {
		r := string(entry.Reason)
		reason = &r
	}

	_, err = s.pool.Exec(ctx, query,
		entry.LogID, entry.Timestamp, entry.Action,
		entry.ActorID, entry.ActorName, entry.TargetTenantID,
		entry.Resource, orderID, reason, details,
	)
	if err != nil {
		return fmt.Errorf("audit sink: insert entry: %w", err)
	}
	return nil
}
