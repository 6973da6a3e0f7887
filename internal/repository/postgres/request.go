package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository"

	"github.com/lib/pq"
)

const requestColumns = `id, event_id, requester_id, status, created`

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (domain.Request, error) {
	var req domain.Request
	err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.Created)
	return req, err
}

func (r *requestRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('requests_id_seq')`).Scan(&id)
	return id, err
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `INSERT INTO requests (id, event_id, requester_id, status, created) VALUES ($1, $2, $3, $4, $5)`
	logger.DatabaseCall("CreateRequest", query, "request_id", req.ID)
	_, err := r.db.ExecContext(ctx, query, req.ID, req.EventID, req.RequesterID, req.Status, req.Created)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRequest.WithMessage(
			fmt.Sprintf("user %d already has a request for event %d", req.RequesterID, req.EventID))
	}
	return err
}

func (r *requestRepository) GetByRequesterAndEvent(ctx context.Context, requesterID, eventID int64) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE requester_id = $1 AND event_id = $2`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, requesterID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) list(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests WHERE requester_id = $1 ORDER BY id`, requesterID)
}

func (r *requestRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests WHERE event_id = $1 ORDER BY id`, eventID)
}

func (r *requestRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Request, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

func (r *requestRepository) WithLock(ctx context.Context, id int64, fn func(req *domain.Request, tx repository.RequestTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("LockRequest", query, "request_id", id)
	req, err := scanRequest(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRequestNotFound.WithMessage(fmt.Sprintf("request %d not found", id))
	}
	if err != nil {
		return err
	}

	if err := fn(&req, &lockedRequest{tx: tx, req: &req}); err != nil {
		return err
	}
	return tx.Commit()
}

type lockedRequest struct {
	tx  *sql.Tx
	req *domain.Request
}

func (l *lockedRequest) SetStatus(ctx context.Context, to domain.RequestStatus) error {
	query := `UPDATE requests SET status = $1 WHERE id = $2`
	result, err := l.tx.ExecContext(ctx, query, to, l.req.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UpdateRequestStatus", rows, err, "request_id", l.req.ID, "from", l.req.Status, "to", to)
	if err != nil {
		return err
	}
	l.req.Status = to
	return nil
}

func (r *requestRepository) UpdateStatuses(ctx context.Context, ids []int64, from, to domain.RequestStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = $1 WHERE id = ANY($2) AND status = $3`,
		to, pq.Array(ids), from,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows != int64(len(ids)) {
		return domain.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("%d of %d requests are no longer %s", int64(len(ids))-rows, len(ids), from))
	}
	return tx.Commit()
}
