package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

// memStore - хранилище в памяти с теми же гарантиями атомарности, что и репозитории на Postgres:
// каждая операция выполняет проверку статуса и запись под одним мьютексом.
type memStore struct {
	mu           sync.Mutex
	requests     map[uuid.UUID]*models.Request
	history      map[uuid.UUID][]valueobject.RequestStatus
	payments     []*models.Payment
	disputes     []*models.Dispute
	deliverables []*models.Deliverable
	services     map[uuid.UUID]*models.Service
	audit        []models.AuditLog
	notes        []sentNotification
	seq          int
}

type sentNotification struct {
	UserID uuid.UUID
	Admins bool
	Event  string
}

func newMemStore() *memStore {
	return &memStore{
		requests: map[uuid.UUID]*models.Request{},
		history:  map[uuid.UUID][]valueobject.RequestStatus{},
		services: map[uuid.UUID]*models.Service{},
	}
}

func (m *memStore) tick() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) setStatus(req *models.Request, to valueobject.RequestStatus) {
	req.Status = to
	req.UpdatedAt = m.tick()
	m.history[req.ID] = append(m.history[req.ID], to)
}

func (m *memStore) statusHistory(id uuid.UUID) []valueobject.RequestStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]valueobject.RequestStatus(nil), m.history[id]...)
}

func (m *memStore) addService(active bool) *models.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc := &models.Service{ID: uuid.New(), Name: "Эссе", Slug: "essay", Price: 50, Currency: "USD", IsActive: active}
	m.services[svc.ID] = svc
	return svc
}

// requestStore

type memRequests struct{ *memStore }

func (m memRequests) Create(_ context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = uuid.New()
	req.Status = valueobject.RequestStatusCreated
	req.CreatedAt = m.tick()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.requests[req.ID] = &cp
	m.history[req.ID] = []valueobject.RequestStatus{valueobject.RequestStatusCreated}
	return nil
}

func (m memRequests) GetByID(_ context.Context, id uuid.UUID) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (m memRequests) List(_ context.Context, filter models.ListFilter) ([]models.Request, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.Request{}
	for _, req := range m.requests {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && string(req.Status) != filter.Status {
			continue
		}
		items = append(items, *req)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, len(items), nil
}

func (m memRequests) Transition(_ context.Context, id uuid.UUID, to valueobject.RequestStatus, at time.Time) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	if !req.Status.CanTransitionTo(to) {
		return nil, common.ErrStatusConflict
	}
	m.setStatus(req, to)
	switch to {
	case valueobject.RequestStatusDelivered:
		if req.DeliveredAt == nil {
			req.DeliveredAt = &at
		}
	case valueobject.RequestStatusClosed:
		req.ClosedAt = &at
	}
	cp := *req
	return &cp, nil
}

// paymentStore

type memPayments struct{ *memStore }

func (m memPayments) Submit(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[p.RequestID]
	if !ok || req.UserID != p.UserID || req.Status != valueobject.RequestStatusCreated {
		return common.ErrStatusConflict
	}
	for _, existing := range m.payments {
		if existing.RequestID == p.RequestID && existing.Status != valueobject.PaymentStatusRejected {
			return repository.ErrPaymentExists
		}
	}
	p.ID = uuid.New()
	p.Status = valueobject.PaymentStatusPending
	p.CreatedAt = m.tick()
	cp := *p
	m.payments = append(m.payments, &cp)
	m.setStatus(req, valueobject.RequestStatusPaymentSubmitted)
	return nil
}

func (m memPayments) find(id uuid.UUID) *models.Payment {
	for _, p := range m.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m memPayments) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.find(id)
	if p == nil {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memPayments) GetLatestByRequest(_ context.Context, requestID uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.payments) - 1; i >= 0; i-- {
		if m.payments[i].RequestID == requestID {
			cp := *m.payments[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m memPayments) List(_ context.Context, filter models.ListFilter) ([]models.Payment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.Payment{}
	for _, p := range m.payments {
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		items = append(items, *p)
	}
	return items, len(items), nil
}

func (m memPayments) Review(_ context.Context, review models.PaymentReview) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.find(review.PaymentID)
	if p == nil {
		return nil, repository.ErrPaymentNotFound
	}
	if !p.Status.Allows(valueobject.PaymentActionReview) {
		return nil, common.ErrStatusConflict
	}
	req := m.requests[p.RequestID]
	if req.Status != valueobject.RequestStatusPaymentSubmitted {
		return nil, common.ErrStatusConflict
	}

	reviewer := review.ReviewerID
	at := review.ReviewedAt
	p.Status = review.Decision.PaymentStatus()
	p.RejectionReason = review.RejectionReason
	p.FraudFlagged = review.FraudFlagged
	p.FraudNotes = review.FraudNotes
	p.ReviewedBy = &reviewer
	p.ReviewedAt = &at
	m.setStatus(req, review.Decision.RequestStatus())
	cp := *p
	return &cp, nil
}

// disputeStore

type memDisputes struct{ *memStore }

func (m memDisputes) Create(_ context.Context, d *models.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.disputes {
		if existing.PaymentID == d.PaymentID {
			return repository.ErrDisputeExists
		}
	}
	p := memPayments(m).find(d.PaymentID)
	if p == nil || p.UserID != d.UserID || !p.Status.Allows(valueobject.PaymentActionDispute) {
		return common.ErrStatusConflict
	}
	p.Status = valueobject.PaymentStatusUnderReview
	d.ID = uuid.New()
	d.Status = valueobject.DisputeStatusOpen
	d.CreatedAt = m.tick()
	cp := *d
	m.disputes = append(m.disputes, &cp)
	return nil
}

func (m memDisputes) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.disputes {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (m memDisputes) GetByPaymentID(_ context.Context, paymentID uuid.UUID) (*models.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.disputes {
		if d.PaymentID == paymentID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (m memDisputes) List(_ context.Context, filter models.ListFilter) ([]models.Dispute, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.Dispute{}
	for _, d := range m.disputes {
		if filter.UserID != nil && d.UserID != *filter.UserID {
			continue
		}
		items = append(items, *d)
	}
	return items, len(items), nil
}

func (m memDisputes) Resolve(_ context.Context, res models.DisputeResolution) (*models.Dispute, *models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var d *models.Dispute
	for _, existing := range m.disputes {
		if existing.ID == res.DisputeID {
			d = existing
		}
	}
	if d == nil {
		return nil, nil, repository.ErrDisputeNotFound
	}
	if d.Status != valueobject.DisputeStatusOpen {
		return nil, nil, common.ErrStatusConflict
	}
	p := memPayments(m).find(d.PaymentID)
	if !p.Status.Allows(valueobject.PaymentActionResolve) {
		return nil, nil, common.ErrStatusConflict
	}

	resolver := res.ResolverID
	at := res.ResolvedAt
	response := res.AdminResponse
	d.Status = valueobject.DisputeStatusResolved
	d.AdminResponse = &response
	d.ResolvedBy = &resolver
	d.ResolvedAt = &at
	p.Status = res.Decision.PaymentStatus()
	p.ReviewedBy = &resolver
	p.ReviewedAt = &at
	if res.Decision == valueobject.DecisionApproved {
		if req := m.requests[p.RequestID]; req.Status == valueobject.RequestStatusPaymentRejected {
			m.setStatus(req, valueobject.RequestStatusPaymentApproved)
		}
	}
	dc, pc := *d, *p
	return &dc, &pc, nil
}

// deliverableStore

type memDeliverables struct{ *memStore }

func (m memDeliverables) Create(_ context.Context, d *models.Deliverable) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[d.RequestID]
	if !ok {
		return false, repository.ErrRequestNotFound
	}
	if !req.Status.AcceptsDeliverables() {
		return false, common.ErrStatusConflict
	}
	d.ID = uuid.New()
	cp := *d
	m.deliverables = append(m.deliverables, &cp)
	if req.Status == valueobject.RequestStatusDelivered {
		return false, nil
	}
	m.setStatus(req, valueobject.RequestStatusDelivered)
	at := d.CreatedAt
	req.DeliveredAt = &at
	return true, nil
}

func (m memDeliverables) ListByRequest(_ context.Context, requestID uuid.UUID) ([]models.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.Deliverable{}
	for _, d := range m.deliverables {
		if d.RequestID == requestID {
			items = append(items, *d)
		}
	}
	return items, nil
}

// serviceLookup

type memServices struct{ *memStore }

func (m memServices) GetByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

// audit + notifier

type memAudit struct {
	*memStore
	fail bool
}

func (m *memAudit) Add(_ context.Context, entry *models.AuditLog) error {
	if m.fail {
		return errors.New("audit store unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = m.tick()
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *memAudit) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []models.AuditLog{}
	for _, e := range m.audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type memNotifier struct {
	*memStore
	fail bool
}

func (m *memNotifier) Notify(_ context.Context, userID uuid.UUID, event string, _ any) error {
	if m.fail {
		return errors.New("notifier unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, sentNotification{UserID: userID, Event: event})
	return nil
}

func (m *memNotifier) NotifyAdmins(_ context.Context, event string, _ any) error {
	if m.fail {
		return errors.New("notifier unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, sentNotification{Admins: true, Event: event})
	return nil
}

func (m *memStore) sentTo(userID uuid.UUID, event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if !n.Admins && n.UserID == userID && n.Event == event {
			return true
		}
	}
	return false
}

func (m *memStore) sentToAdmins(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.Admins && n.Event == event {
			return true
		}
	}
	return false
}

func (m *memStore) auditActions(entityID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []string
	for _, e := range m.audit {
		if e.EntityID == entityID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}
