package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/repository"
)

// memEvents is an in-memory event service with the same reserve semantics
// as the postgres repository: one lock per call, slots keyed by request id.
type memEvents struct {
	mu     sync.Mutex
	events map[int64]*domain.AdmissionParams
	slots  map[int64]map[int64]bool

	reserveCalls int
	releaseCalls int
	lostReplies  int
}

func newMemEvents(events ...domain.AdmissionParams) *memEvents {
	m := &memEvents{
		events: make(map[int64]*domain.AdmissionParams),
		slots:  make(map[int64]map[int64]bool),
	}
	for i := range events {
		e := events[i]
		m.events[e.ID] = &e
		m.slots[e.ID] = make(map[int64]bool)
	}
	return m
}

func (m *memEvents) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) Reserve(ctx context.Context, eventID, requestID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	e, ok := m.events[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	if m.slots[eventID][requestID] {
		return true, nil
	}
	if e.ParticipantLimit > 0 && e.ConfirmedRequests >= e.ParticipantLimit {
		return false, nil
	}
	m.slots[eventID][requestID] = true
	e.ConfirmedRequests++
	if m.lostReplies > 0 {
		m.lostReplies--
		return false, domain.Unavailable(errors.New("reply lost"))
	}
	return true, nil
}

func (m *memEvents) Release(ctx context.Context, eventID, requestID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	e, ok := m.events[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	if !m.slots[eventID][requestID] {
		return false, nil
	}
	delete(m.slots[eventID], requestID)
	e.ConfirmedRequests--
	return true, nil
}

func (m *memEvents) Restore(ctx context.Context, eventID, requestID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if !m.slots[eventID][requestID] {
		m.slots[eventID][requestID] = true
		e.ConfirmedRequests++
	}
	return nil
}

func (m *memEvents) confirmed(eventID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[eventID].ConfirmedRequests
}

func (m *memEvents) calls() (reserve, release int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveCalls, m.releaseCalls
}

func (m *memEvents) holds(eventID, requestID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[eventID][requestID]
}

// loseReplies makes the next n Reserve calls take effect but answer with
// Unavailable, as if the response was lost in transit.
func (m *memEvents) loseReplies(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lostReplies = n
}

// memRequests is an in-memory request store enforcing one request per
// (requester, event). Row locks behave like SELECT ... FOR UPDATE: writes
// made under WithLock apply only when the callback succeeds.
type memRequests struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]domain.Request
	rows    map[int64]*sync.Mutex
	waiting map[int64]int

	// onLocked runs once, inside the next WithLock, while the row is held.
	onLocked func(id int64)
}

func newMemRequests() *memRequests {
	return &memRequests{
		byID:    make(map[int64]domain.Request),
		rows:    make(map[int64]*sync.Mutex),
		waiting: make(map[int64]int),
	}
}

func (m *memRequests) lockRow(id int64) (unlock func()) {
	m.mu.Lock()
	row, ok := m.rows[id]
	if !ok {
		row = &sync.Mutex{}
		m.rows[id] = row
	}
	m.waiting[id]++
	m.mu.Unlock()

	row.Lock()

	m.mu.Lock()
	m.waiting[id]--
	m.mu.Unlock()
	return row.Unlock
}

// waiters reports how many callers are blocked on the row lock of id.
func (m *memRequests) waiters(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting[id]
}

type memRequestTx struct {
	status  domain.RequestStatus
	changed bool
}

func (tx *memRequestTx) SetStatus(ctx context.Context, to domain.RequestStatus) error {
	tx.status = to
	tx.changed = true
	return nil
}

func (m *memRequests) WithLock(ctx context.Context, id int64, fn func(req *domain.Request, tx repository.RequestTx) error) error {
	unlock := m.lockRow(id)
	defer unlock()

	m.mu.Lock()
	r, ok := m.byID[id]
	hook := m.onLocked
	m.onLocked = nil
	m.mu.Unlock()
	if !ok {
		return domain.ErrRequestNotFound
	}
	if hook != nil {
		hook(id)
	}

	tx := &memRequestTx{}
	if err := fn(&r, tx); err != nil {
		return err
	}
	if tx.changed {
		m.mu.Lock()
		cur := m.byID[id]
		cur.Status = tx.status
		m.byID[id] = cur
		m.mu.Unlock()
	}
	return nil
}

func (m *memRequests) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func (m *memRequests) Create(ctx context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.RequesterID == req.RequesterID && r.EventID == req.EventID {
			return domain.ErrDuplicateRequest
		}
	}
	m.byID[req.ID] = *req
	return nil
}

func (m *memRequests) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &r, nil
}

func (m *memRequests) GetByRequesterAndEvent(ctx context.Context, requesterID, eventID int64) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.RequesterID == requesterID && r.EventID == eventID {
			return &r, nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

func (m *memRequests) filter(keep func(domain.Request) bool) []domain.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Request
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRequests) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	return m.filter(func(r domain.Request) bool { return r.RequesterID == requesterID }), nil
}

func (m *memRequests) ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	return m.filter(func(r domain.Request) bool { return r.EventID == eventID }), nil
}

func (m *memRequests) ListByIDs(ctx context.Context, ids []int64) ([]domain.Request, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return m.filter(func(r domain.Request) bool { return want[r.ID] }), nil
}

func (m *memRequests) UpdateStatuses(ctx context.Context, ids []int64, from, to domain.RequestStatus) error {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		unlock := m.lockRow(id)
		defer unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if r, ok := m.byID[id]; !ok || r.Status != from {
			return domain.ErrInvalidTransition
		}
	}
	for _, id := range ids {
		r := m.byID[id]
		r.Status = to
		m.byID[id] = r
	}
	return nil
}

func (m *memRequests) countStatus(eventID int64, status domain.RequestStatus) int {
	return len(m.filter(func(r domain.Request) bool { return r.EventID == eventID && r.Status == status }))
}

// memAdjustments is an in-memory adjustment outbox.
type memAdjustments struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.CounterAdjustment
}

func (m *memAdjustments) Enqueue(ctx context.Context, adj *domain.CounterAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	adj.ID = m.nextID
	m.rows = append(m.rows, *adj)
	return nil
}

func (m *memAdjustments) ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.CounterAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CounterAdjustment
	for _, adj := range m.rows {
		if adj.AppliedOn == nil && adj.Attempts < maxAttempts && len(out) < limit {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (m *memAdjustments) MarkApplied(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			now := time.Now()
			m.rows[i].AppliedOn = &now
		}
	}
	return nil
}

func (m *memAdjustments) MarkFailed(ctx context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Attempts++
			m.rows[i].LastError = reason
		}
	}
	return nil
}

func (m *memAdjustments) pending() int {
	rows, _ := m.ListPending(context.Background(), 1<<30, 1<<30)
	return len(rows)
}
