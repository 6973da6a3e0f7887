package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	p := &domain.AdmissionParams{}
	query := `SELECT id, state, participant_limit, request_moderation, confirmed_requests, initiator_id FROM events WHERE id = $1`
	logger.DatabaseCall("GetAdmission", query, "event_id", eventID)
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&p.ID, &p.State, &p.ParticipantLimit, &p.RequestModeration, &p.ConfirmedRequests, &p.InitiatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEventNotFound.WithMessage(fmt.Sprintf("event %d not found", eventID))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// lockEvent takes the row lock that serialises every counter change for one
// event and returns the current limit and counter.
func lockEvent(ctx context.Context, tx *sql.Tx, eventID int64) (limit, confirmed int, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT participant_limit, confirmed_requests FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&limit, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, domain.ErrEventNotFound.WithMessage(fmt.Sprintf("event %d not found", eventID))
	}
	return limit, confirmed, err
}

func slotExists(ctx context.Context, tx *sql.Tx, eventID, requestID int64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_slots WHERE event_id = $1 AND request_id = $2)`,
		eventID, requestID,
	).Scan(&exists)
	return exists, err
}

func insertSlot(ctx context.Context, tx *sql.Tx, eventID, requestID int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_slots (event_id, request_id, created_on) VALUES ($1, $2, $3)`,
		eventID, requestID, time.Now().UTC(),
	); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE events SET confirmed_requests = confirmed_requests + 1 WHERE id = $1`, eventID)
	return err
}

func (r *eventRepository) ReserveSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	logger.DatabaseCall("ReserveSlot", "event_slots", "event_id", eventID, "request_id", requestID)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	limit, confirmed, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return false, err
	}

	exists, err := slotExists(ctx, tx, eventID, requestID)
	if err != nil {
		return false, err
	}
	if exists {
		return true, tx.Commit()
	}

	if limit > 0 && confirmed >= limit {
		return false, nil
	}

	if err := insertSlot(ctx, tx, eventID, requestID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *eventRepository) RestoreSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	logger.DatabaseCall("RestoreSlot", "event_slots", "event_id", eventID, "request_id", requestID)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, _, err := lockEvent(ctx, tx, eventID); err != nil {
		return false, err
	}

	exists, err := slotExists(ctx, tx, eventID, requestID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, tx.Commit()
	}

	if err := insertSlot(ctx, tx, eventID, requestID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *eventRepository) ReleaseSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	logger.DatabaseCall("ReleaseSlot", "event_slots", "event_id", eventID, "request_id", requestID)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, _, err := lockEvent(ctx, tx, eventID); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM event_slots WHERE event_id = $1 AND request_id = $2`, eventID, requestID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET confirmed_requests = confirmed_requests - 1 WHERE id = $1 AND confirmed_requests > 0`,
		eventID,
	); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *eventRepository) ListCounterDrift(ctx context.Context) ([]domain.CounterDrift, error) {
	query := `SELECT e.id, e.confirmed_requests, COUNT(s.request_id)
	          FROM events e
	          LEFT JOIN event_slots s ON s.event_id = e.id
	          GROUP BY e.id, e.confirmed_requests
	          HAVING e.confirmed_requests <> COUNT(s.request_id)`
	logger.DatabaseCall("ListCounterDrift", query)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifts []domain.CounterDrift
	for rows.Next() {
		var d domain.CounterDrift
		if err := rows.Scan(&d.EventID, &d.ConfirmedRequests, &d.Slots); err != nil {
			return nil, err
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

func (r *eventRepository) RepairCounter(ctx context.Context, eventID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, _, err := lockEvent(ctx, tx, eventID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE events SET confirmed_requests = (SELECT COUNT(*) FROM event_slots WHERE event_id = $1) WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	logger.DatabaseResult("RepairCounter", rows, nil, "event_id", eventID)
	return tx.Commit()
}
