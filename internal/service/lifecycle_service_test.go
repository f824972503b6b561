package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type lifecycleFixture struct {
	svc      *LifecycleService
	store    *memStore
	audit    *memAudit
	notifier *memNotifier
	student  models.Caller
	admin    models.Caller
	service  *models.Service
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store := newMemStore()
	audit := &memAudit{memStore: store}
	notifier := &memNotifier{memStore: store}
	svc := NewLifecycleService(
		memRequests{store},
		memPayments{store},
		memDisputes{store},
		memDeliverables{store},
		memServices{store},
		audit,
		notifier,
	)
	svc.now = func() time.Time { return testNow }

	return &lifecycleFixture{
		svc:      svc,
		store:    store,
		audit:    audit,
		notifier: notifier,
		student:  models.Caller{UserID: uuid.New(), Role: valueobject.RoleStudent},
		admin:    models.Caller{UserID: uuid.New(), Role: valueobject.RoleAdmin},
		service:  store.addService(true),
	}
}

func (f *lifecycleFixture) createRequest(t *testing.T) *models.Request {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), f.student, CreateRequestInput{
		ServiceID:     f.service.ID,
		Title:         "Курсовая по экономике",
		Instructions:  "Объём 20 страниц, источники не старше пяти лет",
		AcademicLevel: "UNDERGRADUATE",
		Deadline:      testNow.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return req
}

func (f *lifecycleFixture) submitPayment(t *testing.T, requestID uuid.UUID) *models.Payment {
	t.Helper()
	payment, err := f.svc.SubmitPayment(context.Background(), f.student, paymentInput(requestID))
	require.NoError(t, err)
	return payment
}

func (f *lifecycleFixture) review(t *testing.T, paymentID uuid.UUID, decision string, reason *string) *models.Payment {
	t.Helper()
	payment, err := f.svc.ReviewPayment(context.Background(), f.admin, ReviewPaymentInput{
		PaymentID:       paymentID,
		Decision:        decision,
		RejectionReason: reason,
	})
	require.NoError(t, err)
	return payment
}

func (f *lifecycleFixture) upload(requestID uuid.UUID) (*models.Deliverable, error) {
	return f.svc.UploadDeliverable(context.Background(), f.admin, UploadDeliverableInput{
		RequestID: requestID,
		FileName:  "coursework.pdf",
		FileURL:   "/files/deliverables/coursework.pdf",
		FileType:  "application/pdf",
		FileSize:  2048,
	})
}

func paymentInput(requestID uuid.UUID) SubmitPaymentInput {
	return SubmitPaymentInput{
		RequestID:       requestID,
		ReferenceNumber: "TRX-100500",
		Amount:          50,
		Currency:        "usd",
		ReceiptURL:      "/files/receipts/receipt.png",
	}
}

func strPtr(s string) *string { return &s }

func (f *lifecycleFixture) requestStatus(t *testing.T, id uuid.UUID) valueobject.RequestStatus {
	t.Helper()
	req, err := memRequests{f.store}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

func TestLifecycle_ApprovedPathGrantsDeliverables(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	assert.Equal(t, valueobject.RequestStatusCreated, req.Status)

	payment := f.submitPayment(t, req.ID)
	assert.Equal(t, valueobject.PaymentStatusPending, payment.Status)
	assert.Equal(t, "USD", payment.Currency)
	assert.Equal(t, 50.0, payment.Amount)
	assert.Equal(t, valueobject.RequestStatusPaymentSubmitted, f.requestStatus(t, req.ID))

	reviewed := f.review(t, payment.ID, "APPROVED", nil)
	assert.Equal(t, valueobject.PaymentStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, testNow, *reviewed.ReviewedAt)
	assert.Equal(t, valueobject.RequestStatusPaymentApproved, f.requestStatus(t, req.ID))
	assert.True(t, f.store.sentTo(f.student.UserID, EventPaymentReviewed))

	_, err := f.upload(req.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusDelivered, f.requestStatus(t, req.ID))

	details, err := f.svc.GetRequest(ctx, f.student, req.ID)
	require.NoError(t, err)
	assert.Len(t, details.Deliverables, 1)
	assert.False(t, details.DeliverablesLocked)
	require.NotNil(t, details.Payment)
	assert.Equal(t, valueobject.PaymentStatusApproved, details.Payment.Status)
	require.NotNil(t, details.Service)
	assert.Equal(t, f.service.ID, details.Service.ID)

	closed, err := f.svc.CloseRequest(ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	assert.Equal(t, []valueobject.RequestStatus{
		valueobject.RequestStatusCreated,
		valueobject.RequestStatusPaymentSubmitted,
		valueobject.RequestStatusPaymentApproved,
		valueobject.RequestStatusDelivered,
		valueobject.RequestStatusClosed,
	}, f.store.statusHistory(req.ID))
}

func TestLifecycle_RejectionThenDispute(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)

	rejected := f.review(t, payment.ID, "REJECTED", strPtr("blurry receipt"))
	assert.Equal(t, valueobject.PaymentStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "blurry receipt", *rejected.RejectionReason)
	assert.Equal(t, valueobject.RequestStatusPaymentRejected, f.requestStatus(t, req.ID))

	dispute, err := f.svc.FileDispute(ctx, f.student, payment.ID, "Перевод прошёл, прикладываю выписку банка")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusOpen, dispute.Status)
	assert.True(t, f.store.sentToAdmins(EventDisputeFiled))

	current, err := f.svc.GetPayment(ctx, f.student, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusUnderReview, current.Status)
	assert.Equal(t, valueobject.RequestStatusPaymentRejected, f.requestStatus(t, req.ID))

	_, err = f.svc.FileDispute(ctx, f.student, payment.ID, "Повторная попытка оспорить платёж")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestLifecycle_NoResubmissionAfterRejection(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "REJECTED", strPtr("сумма не совпадает"))

	_, err := f.svc.SubmitPayment(context.Background(), f.student, paymentInput(req.ID))
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestLifecycle_ResolveDispute(t *testing.T) {
	t.Run("approved dispute unlocks request", func(t *testing.T) {
		f := newLifecycleFixture(t)
		ctx := context.Background()

		req := f.createRequest(t)
		payment := f.submitPayment(t, req.ID)
		f.review(t, payment.ID, "REJECTED", strPtr("нечитаемый чек"))
		dispute, err := f.svc.FileDispute(ctx, f.student, payment.ID, "Чек читается, номер перевода верный")
		require.NoError(t, err)

		resolved, err := f.svc.ResolveDispute(ctx, f.admin, ResolveDisputeInput{
			DisputeID:     dispute.ID,
			Decision:      "APPROVED",
			AdminResponse: "Перевод найден",
		})
		require.NoError(t, err)
		assert.Equal(t, valueobject.DisputeStatusResolved, resolved.Status)
		require.NotNil(t, resolved.AdminResponse)
		assert.Equal(t, "Перевод найден", *resolved.AdminResponse)

		current, err := f.svc.GetPayment(ctx, f.admin, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.PaymentStatusApproved, current.Status)
		assert.Equal(t, valueobject.RequestStatusPaymentApproved, f.requestStatus(t, req.ID))
		assert.True(t, f.store.sentTo(f.student.UserID, EventDisputeResolved))

		_, err = f.svc.ResolveDispute(ctx, f.admin, ResolveDisputeInput{
			DisputeID:     dispute.ID,
			Decision:      "REJECTED",
			AdminResponse: "Повтор",
		})
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("rejected dispute keeps request rejected", func(t *testing.T) {
		f := newLifecycleFixture(t)
		ctx := context.Background()

		req := f.createRequest(t)
		payment := f.submitPayment(t, req.ID)
		f.review(t, payment.ID, "REJECTED", strPtr("нечитаемый чек"))
		dispute, err := f.svc.FileDispute(ctx, f.student, payment.ID, "Чек читается, номер перевода верный")
		require.NoError(t, err)

		_, err = f.svc.ResolveDispute(ctx, f.admin, ResolveDisputeInput{
			DisputeID:     dispute.ID,
			Decision:      "REJECTED",
			AdminResponse: "Перевод не найден",
		})
		require.NoError(t, err)

		current, err := f.svc.GetPayment(ctx, f.admin, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.PaymentStatusRejected, current.Status)
		assert.Equal(t, valueobject.RequestStatusPaymentRejected, f.requestStatus(t, req.ID))
	})

	t.Run("students cannot resolve", func(t *testing.T) {
		f := newLifecycleFixture(t)
		_, err := f.svc.ResolveDispute(context.Background(), f.student, ResolveDisputeInput{
			DisputeID:     uuid.New(),
			Decision:      "APPROVED",
			AdminResponse: "ok",
		})
		assert.True(t, apperror.IsForbidden(err))
	})
}

func TestLifecycle_DeliverableGate(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)

	items, locked, err := f.svc.AccessDeliverables(ctx, f.student, req.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, locked)

	_, err = f.upload(req.ID)
	assert.True(t, apperror.IsInvalidState(err), "upload before approval must be refused")

	f.review(t, payment.ID, "APPROVED", nil)
	_, err = f.upload(req.ID)
	require.NoError(t, err)

	items, locked, err = f.svc.AccessDeliverables(ctx, f.student, req.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, locked)

	stranger := models.Caller{UserID: uuid.New(), Role: valueobject.RoleStudent}
	_, _, err = f.svc.AccessDeliverables(ctx, stranger, req.ID)
	assert.True(t, apperror.IsForbidden(err))

	items, locked, err = f.svc.AccessDeliverables(ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, locked)
}

// Даже если заявка в DELIVERED, файлы скрыты, пока платёж не одобрен.
func TestLifecycle_DeliverableGateIgnoresRequestStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)
	_, err := f.upload(req.ID)
	require.NoError(t, err)

	f.store.mu.Lock()
	for _, p := range f.store.payments {
		if p.ID == payment.ID {
			p.Status = valueobject.PaymentStatusUnderReview
		}
	}
	f.store.mu.Unlock()
	require.Equal(t, valueobject.RequestStatusDelivered, f.requestStatus(t, req.ID))

	details, err := f.svc.GetRequest(ctx, f.student, req.ID)
	require.NoError(t, err)
	assert.Empty(t, details.Deliverables)
	assert.True(t, details.DeliverablesLocked)
}

func TestLifecycle_RepeatedUploadsDeliverOnce(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)
	_, err := f.svc.StartWork(context.Background(), f.admin, req.ID)
	require.NoError(t, err)

	first, err := f.upload(req.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.upload(req.ID)
		require.NoError(t, err)
	}

	stored, err := memRequests{f.store}.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusDelivered, stored.Status)
	require.NotNil(t, stored.DeliveredAt)
	assert.Equal(t, first.CreatedAt, *stored.DeliveredAt)

	delivered := 0
	for _, s := range f.store.statusHistory(req.ID) {
		if s == valueobject.RequestStatusDelivered {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)
}

func TestLifecycle_ConcurrentFirstUpload(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.upload(req.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	delivered := 0
	for _, s := range f.store.statusHistory(req.ID) {
		if s == valueobject.RequestStatusDelivered {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)

	items, _, err := f.svc.AccessDeliverables(context.Background(), f.admin, req.ID)
	require.NoError(t, err)
	assert.Len(t, items, 8)
}

func TestLifecycle_ConcurrentSubmitPayment(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest(t)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SubmitPayment(context.Background(), f.student, paymentInput(req.ID))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsInvalidState(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.payments, 1)
}

func TestLifecycle_ConcurrentReview(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		decision := "APPROVED"
		if i%2 == 1 {
			decision = "REJECTED"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ReviewPayment(context.Background(), f.admin, ReviewPaymentInput{
				PaymentID:       payment.ID,
				Decision:        decision,
				RejectionReason: strPtr("гонка"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsInvalidState(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.statusHistory(req.ID), 3)
}

func TestLifecycle_RejectionRequiresReason(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)

	for _, reason := range []*string{nil, strPtr(""), strPtr("   ")} {
		_, err := f.svc.ReviewPayment(context.Background(), f.admin, ReviewPaymentInput{
			PaymentID:       payment.ID,
			Decision:        "REJECTED",
			RejectionReason: reason,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}

	current, err := f.svc.GetPayment(context.Background(), f.admin, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusPending, current.Status)
	assert.Nil(t, current.RejectionReason)
}

func TestLifecycle_SuspensionBlocksMutations(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	req := f.createRequest(t)

	suspended := f.student
	suspended.IsSuspended = true
	suspended.SuspendedReason = strPtr("подозрение на мошенничество")

	_, err := f.svc.CreateRequest(ctx, suspended, CreateRequestInput{
		ServiceID:     f.service.ID,
		Title:         "Реферат",
		Instructions:  "Любые корректные инструкции",
		AcademicLevel: "MASTERS",
		Deadline:      testNow.Add(48 * time.Hour),
	})
	assert.True(t, apperror.IsSuspended(err))

	_, err = f.svc.SubmitPayment(ctx, suspended, paymentInput(req.ID))
	assert.True(t, apperror.IsSuspended(err))
	assert.Equal(t, valueobject.RequestStatusCreated, f.requestStatus(t, req.ID))

	_, err = f.svc.FileDispute(ctx, suspended, uuid.New(), "объяснение достаточной длины")
	assert.True(t, apperror.IsSuspended(err))

	_, _, err = f.svc.AccessDeliverables(ctx, suspended, req.ID)
	assert.True(t, apperror.IsSuspended(err))

	// Чтение заявки разрешено, но файлы скрыты.
	details, err := f.svc.GetRequest(ctx, suspended, req.ID)
	require.NoError(t, err)
	assert.True(t, details.DeliverablesLocked)

	suspendedAdmin := f.admin
	suspendedAdmin.IsSuspended = true
	_, err = f.svc.StartWork(ctx, suspendedAdmin, req.ID)
	assert.True(t, apperror.IsSuspended(err))
}

func TestLifecycle_SuspensionCheckedBeforeEverythingElse(t *testing.T) {
	f := newLifecycleFixture(t)
	suspended := models.Caller{UserID: uuid.New(), Role: valueobject.RoleStudent, IsSuspended: true}

	// Заявки не существует и вход невалиден, но ответ всё равно о блокировке.
	_, err := f.svc.SubmitPayment(context.Background(), suspended, SubmitPaymentInput{RequestID: uuid.New()})
	assert.Equal(t, apperror.ErrCodeAccountSuspended, apperror.CodeOf(err))
}

func TestLifecycle_OwnershipAndRoles(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	req := f.createRequest(t)
	other := models.Caller{UserID: uuid.New(), Role: valueobject.RoleStudent}

	_, err := f.svc.SubmitPayment(ctx, other, paymentInput(req.ID))
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.GetRequest(ctx, other, req.ID)
	assert.True(t, apperror.IsForbidden(err))

	payment := f.submitPayment(t, req.ID)
	_, err = f.svc.ReviewPayment(ctx, f.student, ReviewPaymentInput{PaymentID: payment.ID, Decision: "APPROVED"})
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.upload(uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.UploadDeliverable(ctx, f.student, UploadDeliverableInput{RequestID: req.ID})
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.CreateRequest(ctx, f.admin, CreateRequestInput{})
	assert.True(t, apperror.IsForbidden(err))
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	req := f.createRequest(t)

	_, err := f.svc.StartWork(ctx, f.admin, req.ID)
	assert.True(t, apperror.IsInvalidState(err))
	_, err = f.svc.CloseRequest(ctx, f.admin, req.ID)
	assert.True(t, apperror.IsInvalidState(err))

	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)

	_, err = f.svc.ReviewPayment(ctx, f.admin, ReviewPaymentInput{PaymentID: payment.ID, Decision: "APPROVED"})
	assert.True(t, apperror.IsInvalidState(err))

	_, err = f.svc.FileDispute(ctx, f.student, payment.ID, "Платёж одобрен, но хочу спор")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestLifecycle_CreateRequestValidation(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	valid := CreateRequestInput{
		ServiceID:     f.service.ID,
		Title:         "Эссе по философии",
		Instructions:  "Тема: свобода воли у Канта",
		AcademicLevel: "PHD",
		Deadline:      testNow.Add(time.Hour),
	}

	cases := map[string]func(in *CreateRequestInput){
		"short title":    func(in *CreateRequestInput) { in.Title = "ab" },
		"bad level":      func(in *CreateRequestInput) { in.AcademicLevel = "KINDERGARTEN" },
		"past deadline":  func(in *CreateRequestInput) { in.Deadline = testNow.Add(-time.Hour) },
		"no instruction": func(in *CreateRequestInput) { in.Instructions = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := f.svc.CreateRequest(ctx, f.student, in)
			assert.True(t, apperror.IsValidation(err))
		})
	}

	in := valid
	in.ServiceID = uuid.New()
	_, err := f.svc.CreateRequest(ctx, f.student, in)
	assert.True(t, apperror.IsNotFound(err))

	inactive := f.store.addService(false)
	in.ServiceID = inactive.ID
	_, err = f.svc.CreateRequest(ctx, f.student, in)
	assert.True(t, apperror.IsValidation(err))
}

func TestLifecycle_SideEffectFailureKeepsTransition(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest(t)

	f.audit.fail = true
	f.notifier.fail = true

	payment, err := f.svc.SubmitPayment(context.Background(), f.student, paymentInput(req.ID))
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusPending, payment.Status)
	assert.Equal(t, valueobject.RequestStatusPaymentSubmitted, f.requestStatus(t, req.ID))
	assert.Empty(t, f.store.auditActions(payment.ID))
}

func TestLifecycle_AuditTrail(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)

	entries, err := f.svc.RequestHistory(ctx, f.student, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, EventRequestCreated, entries[0].Action)
	for _, e := range entries {
		require.NotNil(t, e.UserID)
		assert.Equal(t, f.student.UserID, *e.UserID)
	}
	assert.Equal(t, []string{EventPaymentSubmitted, EventPaymentReviewed}, f.store.auditActions(payment.ID))
}

func TestLifecycle_ListsAreScopedToCaller(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	f.createRequest(t)
	f.createRequest(t)

	other := models.Caller{UserID: uuid.New(), Role: valueobject.RoleStudent}
	page, err := f.svc.ListRequests(ctx, other, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 20, page.Limit)

	page, err = f.svc.ListRequests(ctx, f.student, models.ListFilter{Status: "CREATED"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.svc.ListRequests(ctx, f.admin, models.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = f.svc.ListRequests(ctx, f.admin, models.ListFilter{Status: "DONE"})
	assert.True(t, apperror.IsValidation(err))
}

func TestLifecycle_ReviewInvalidatesReportCache(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := NewCacheService(ctx)
	f.svc.SetCache(cache)
	cache.Set(ReportCachePrefix+"USD", "stale", time.Hour)

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)

	_, ok := cache.Get(ReportCachePrefix + "USD")
	assert.False(t, ok)
}

func TestLifecycle_SubmitPaymentRejectsUnstorableAmounts(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest(t)

	for _, amount := range []float64{12.345, 1e13} {
		in := paymentInput(req.ID)
		in.Amount = amount
		_, err := f.svc.SubmitPayment(context.Background(), f.student, in)
		assert.True(t, apperror.IsValidation(err), "amount %v", amount)
	}
	assert.Equal(t, valueobject.RequestStatusCreated, f.requestStatus(t, req.ID))

	in := paymentInput(req.ID)
	in.Amount = 12.34
	payment, err := f.svc.SubmitPayment(context.Background(), f.student, in)
	require.NoError(t, err)
	assert.Equal(t, 12.34, payment.Amount)
}

func TestLifecycle_TimestampsComeFromEngineClock(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	clock := testNow
	f.svc.now = func() time.Time { return clock }

	req := f.createRequest(t)
	payment := f.submitPayment(t, req.ID)
	f.review(t, payment.ID, "APPROVED", nil)

	clock = testNow.Add(time.Hour)
	firstUpload := clock
	first, err := f.upload(req.ID)
	require.NoError(t, err)
	assert.Equal(t, firstUpload, first.CreatedAt)

	clock = testNow.Add(2 * time.Hour)
	second, err := f.upload(req.ID)
	require.NoError(t, err)
	assert.Equal(t, clock, second.CreatedAt)

	stored, err := memRequests{f.store}.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeliveredAt)
	assert.Equal(t, firstUpload, *stored.DeliveredAt)

	clock = testNow.Add(3 * time.Hour)
	closed, err := f.svc.CloseRequest(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, clock, *closed.ClosedAt)
	assert.Equal(t, firstUpload, *closed.DeliveredAt)
}
