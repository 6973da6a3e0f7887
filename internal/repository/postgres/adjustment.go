package postgres

import (
	"context"
	"database/sql"
	"time"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/repository"
)

type adjustmentRepository struct {
	db *sql.DB
}

func NewAdjustmentRepository(db *sql.DB) repository.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Enqueue(ctx context.Context, adj *domain.CounterAdjustment) error {
	if adj.CreatedOn.IsZero() {
		adj.CreatedOn = time.Now().UTC()
	}
	query := `INSERT INTO counter_adjustments (event_id, request_id, kind, attempts, created_on) 
	          VALUES ($1, $2, $3, 0, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, adj.EventID, adj.RequestID, adj.Kind, adj.CreatedOn).Scan(&adj.ID)
}

func (r *adjustmentRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.CounterAdjustment, error) {
	query := `SELECT id, event_id, request_id, kind, attempts, last_error, created_on 
	          FROM counter_adjustments 
	          WHERE applied_on IS NULL AND attempts < $1 
	          ORDER BY id LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjs []domain.CounterAdjustment
	for rows.Next() {
		var adj domain.CounterAdjustment
		var lastError sql.NullString
		if err := rows.Scan(&adj.ID, &adj.EventID, &adj.RequestID, &adj.Kind, &adj.Attempts, &lastError, &adj.CreatedOn); err != nil {
			return nil, err
		}
		adj.LastError = lastError.String
		adjs = append(adjs, adj)
	}
	return adjs, rows.Err()
}

func (r *adjustmentRepository) MarkApplied(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE counter_adjustments SET applied_on = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

func (r *adjustmentRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE counter_adjustments SET attempts = attempts + 1, last_error = $1 WHERE id = $2`,
		reason, id,
	)
	return err
}
