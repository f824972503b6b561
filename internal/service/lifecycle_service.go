package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/validation"
)

// RequestStore - хранилище заявок.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Request, int, error)
	Transition(ctx context.Context, id uuid.UUID, to valueobject.RequestStatus, at time.Time) (*models.Request, error)
}

// PaymentStore - хранилище платежей. Submit и Review меняют статус заявки в той же транзакции.
type PaymentStore interface {
	Submit(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetLatestByRequest(ctx context.Context, requestID uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Payment, int, error)
	Review(ctx context.Context, review models.PaymentReview) (*models.Payment, error)
}

// DisputeStore - хранилище споров.
type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Dispute, int, error)
	Resolve(ctx context.Context, res models.DisputeResolution) (*models.Dispute, *models.Payment, error)
}

// DeliverableStore - хранилище результатов работ.
type DeliverableStore interface {
	Create(ctx context.Context, d *models.Deliverable) (bool, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Deliverable, error)
}

// ServiceLookup ищет услугу каталога.
type ServiceLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// LifecycleService ведёт заявку по цепочке Request -> Payment -> Delivery.
// Каждая операция получает явный контекст вызывающего и первой проверяет блокировку аккаунта.
type LifecycleService struct {
	requests     RequestStore
	payments     PaymentStore
	disputes     DisputeStore
	deliverables DeliverableStore
	services     ServiceLookup
	effects      *sideEffects
	cache        *CacheService
	now          func() time.Time
}

// NewLifecycleService создаёт движок жизненного цикла заявки.
func NewLifecycleService(
	requests RequestStore,
	payments PaymentStore,
	disputes DisputeStore,
	deliverables DeliverableStore,
	services ServiceLookup,
	audit AuditStore,
	notifier Notifier,
) *LifecycleService {
	return &LifecycleService{
		requests:     requests,
		payments:     payments,
		disputes:     disputes,
		deliverables: deliverables,
		services:     services,
		effects:      &sideEffects{audit: audit, notifier: notifier},
		now:          time.Now,
	}
}

// SetCache подключает кэш отчётов, который сбрасывается при изменении выручки.
func (s *LifecycleService) SetCache(cache *CacheService) {
	s.cache = cache
}

// CreateRequestInput описывает новую заявку.
type CreateRequestInput struct {
	ServiceID     uuid.UUID
	Title         string
	Instructions  string
	AcademicLevel string
	Deadline      time.Time
	Notes         *string
}

// SubmitPaymentInput описывает подтверждение оплаты.
type SubmitPaymentInput struct {
	RequestID       uuid.UUID
	ReferenceNumber string
	Amount          float64
	Currency        string
	ReceiptURL      string
}

// ReviewPaymentInput описывает решение администратора по платежу.
type ReviewPaymentInput struct {
	PaymentID       uuid.UUID
	Decision        string
	RejectionReason *string
	FraudFlagged    bool
	FraudNotes      *string
}

// ResolveDisputeInput описывает решение по спору.
type ResolveDisputeInput struct {
	DisputeID     uuid.UUID
	Decision      string
	AdminResponse string
}

// UploadDeliverableInput описывает загруженный результат работы.
type UploadDeliverableInput struct {
	RequestID   uuid.UUID
	FileName    string
	FileURL     string
	FileType    string
	FileSize    int64
	Description *string
}

// CreateRequest оформляет заявку студента в статусе CREATED.
func (s *LifecycleService) CreateRequest(ctx context.Context, caller models.Caller, in CreateRequestInput) (*models.Request, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if !caller.IsStudent() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "заявки оформляют только студенты")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Instructions = strings.TrimSpace(in.Instructions)
	if err := firstError(
		validation.ValidateRequired("заголовок", in.Title, validation.MinRequestTitleLength, validation.MaxRequestTitleLength),
		validation.ValidateRequired("инструкции", in.Instructions, validation.MinInstructionsLength, validation.MaxInstructionsLength),
		validation.ValidateAcademicLevel(in.AcademicLevel),
		validation.ValidateDeadline(in.Deadline, s.now()),
		validation.ValidateOptional("примечания", in.Notes, validation.MaxNotesLength),
	); err != nil {
		return nil, apperror.Validation(err)
	}

	svc, err := s.services.GetByID(ctx, in.ServiceID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !svc.IsActive {
		return nil, apperror.New(apperror.ErrCodeValidation, "услуга сейчас недоступна для заказа")
	}

	req := &models.Request{
		UserID:        caller.UserID,
		ServiceID:     svc.ID,
		Title:         in.Title,
		Instructions:  in.Instructions,
		AcademicLevel: in.AcademicLevel,
		Deadline:      in.Deadline,
		Notes:         trimmedOrNil(in.Notes),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, req.UserID, models.EntityRequest, req.ID, EventRequestCreated, nil, statusSnapshot(req.Status))
	s.effects.notifyAdmins(ctx, EventRequestCreated, map[string]any{
		"request_id": req.ID,
		"title":      req.Title,
		"service":    svc.Name,
	})
	return req, nil
}

// SubmitPayment прикладывает подтверждение оплаты и переводит заявку CREATED -> PAYMENT_SUBMITTED.
// После отклонения повторная отправка невозможна: дальнейший путь только через спор.
func (s *LifecycleService) SubmitPayment(ctx context.Context, caller models.Caller, in SubmitPaymentInput) (*models.Payment, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !req.IsOwnedBy(caller.UserID) {
		return nil, apperror.ErrNotOwner
	}

	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	money, err := valueobject.NewMoney(in.Amount, in.Currency)
	if err != nil {
		return nil, err
	}
	if err := firstError(
		validation.ValidateRequired("номер перевода", in.ReferenceNumber, validation.MinReferenceNumberLength, validation.MaxReferenceNumberLength),
		validation.ValidateFileURL("чек", in.ReceiptURL),
	); err != nil {
		return nil, apperror.Validation(err)
	}

	switch req.Status {
	case valueobject.RequestStatusCreated:
	case valueobject.RequestStatusPaymentRejected:
		return nil, apperror.InvalidState("платёж отклонён: повторная отправка невозможна, оспорьте решение")
	default:
		return nil, apperror.InvalidState("оплата по заявке уже отправлена")
	}

	payment := &models.Payment{
		RequestID:       req.ID,
		UserID:          caller.UserID,
		ReferenceNumber: in.ReferenceNumber,
		Amount:          money.Amount,
		Currency:        money.Currency,
		ReceiptURL:      strings.TrimSpace(in.ReceiptURL),
	}
	if err := s.payments.Submit(ctx, payment); err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, req.UserID, models.EntityPayment, payment.ID, EventPaymentSubmitted, nil, map[string]any{
		"status":   payment.Status,
		"amount":   payment.Amount,
		"currency": payment.Currency,
	})
	s.effects.record(ctx, caller, req.UserID, models.EntityRequest, req.ID, "request.status_changed",
		statusSnapshot(req.Status), statusSnapshot(valueobject.RequestStatusPaymentSubmitted))
	s.effects.notifyAdmins(ctx, EventPaymentSubmitted, map[string]any{
		"payment_id": payment.ID,
		"request_id": req.ID,
		"amount":     money.String(),
	})
	return payment, nil
}

// ReviewPayment применяет решение администратора к платежу в статусе PENDING.
func (s *LifecycleService) ReviewPayment(ctx context.Context, caller models.Caller, in ReviewPaymentInput) (*models.Payment, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	decision, err := valueobject.NewReviewDecision(in.Decision)
	if err != nil {
		return nil, err
	}
	in.RejectionReason = trimmedOrNil(in.RejectionReason)
	if decision == valueobject.DecisionRejected && in.RejectionReason == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "при отклонении платежа укажите причину")
	}
	if decision == valueobject.DecisionApproved {
		in.RejectionReason = nil
	}
	if err := firstError(
		validation.ValidateOptional("причина отклонения", in.RejectionReason, validation.MaxRejectionReasonLength),
		validation.ValidateOptional("заметки о мошенничестве", in.FraudNotes, validation.MaxRejectionReasonLength),
	); err != nil {
		return nil, apperror.Validation(err)
	}

	current, err := s.payments.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !current.Status.Allows(valueobject.PaymentActionReview) {
		return nil, apperror.InvalidState("платёж уже рассмотрен")
	}

	payment, err := s.payments.Review(ctx, models.PaymentReview{
		PaymentID:       current.ID,
		ReviewerID:      caller.UserID,
		Decision:        decision,
		RejectionReason: in.RejectionReason,
		FraudFlagged:    in.FraudFlagged,
		FraudNotes:      trimmedOrNil(in.FraudNotes),
		ReviewedAt:      s.now(),
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidateReports()

	s.effects.record(ctx, caller, payment.UserID, models.EntityPayment, payment.ID, EventPaymentReviewed,
		map[string]any{"status": current.Status},
		map[string]any{"status": payment.Status, "rejection_reason": payment.RejectionReason, "fraud_flagged": payment.FraudFlagged})
	s.effects.record(ctx, caller, payment.UserID, models.EntityRequest, payment.RequestID, "request.status_changed",
		statusSnapshot(valueobject.RequestStatusPaymentSubmitted), statusSnapshot(decision.RequestStatus()))
	s.effects.notify(ctx, payment.UserID, EventPaymentReviewed, map[string]any{
		"payment_id":       payment.ID,
		"request_id":       payment.RequestID,
		"status":           payment.Status,
		"rejection_reason": payment.RejectionReason,
	})
	return payment, nil
}

// FileDispute оспаривает отклонённый платёж: REJECTED -> UNDER_REVIEW. Спор по платежу подаётся один раз.
func (s *LifecycleService) FileDispute(ctx context.Context, caller models.Caller, paymentID uuid.UUID, explanation string) (*models.Dispute, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if payment.UserID != caller.UserID {
		return nil, apperror.ErrNotOwner
	}

	explanation = strings.TrimSpace(explanation)
	if err := validation.ValidateRequired("объяснение", explanation, validation.MinDisputeExplanationLen, validation.MaxDisputeExplanationLen); err != nil {
		return nil, apperror.Validation(err)
	}

	if !payment.Status.Allows(valueobject.PaymentActionDispute) {
		return nil, apperror.InvalidState("оспорить можно только отклонённый платёж")
	}
	if _, err := s.disputes.GetByPaymentID(ctx, paymentID); err == nil {
		return nil, apperror.InvalidState("спор по этому платежу уже подан")
	} else if !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, mapRepoErr(err)
	}

	dispute := &models.Dispute{
		PaymentID:   payment.ID,
		UserID:      caller.UserID,
		Explanation: explanation,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, caller.UserID, models.EntityDispute, dispute.ID, EventDisputeFiled, nil,
		map[string]any{"payment_id": payment.ID, "status": dispute.Status})
	s.effects.record(ctx, caller, caller.UserID, models.EntityPayment, payment.ID, "payment.status_changed",
		map[string]any{"status": valueobject.PaymentStatusRejected},
		map[string]any{"status": valueobject.PaymentStatusUnderReview})
	s.effects.notifyAdmins(ctx, EventDisputeFiled, map[string]any{
		"dispute_id": dispute.ID,
		"payment_id": payment.ID,
		"request_id": payment.RequestID,
	})
	return dispute, nil
}

// ResolveDispute закрывает спор. При одобрении платёж становится APPROVED,
// а заявка возвращается из PAYMENT_REJECTED в PAYMENT_APPROVED; при отказе платёж снова REJECTED.
func (s *LifecycleService) ResolveDispute(ctx context.Context, caller models.Caller, in ResolveDisputeInput) (*models.Dispute, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	decision, err := valueobject.NewReviewDecision(in.Decision)
	if err != nil {
		return nil, err
	}
	in.AdminResponse = strings.TrimSpace(in.AdminResponse)
	if err := validation.ValidateRequired("ответ администратора", in.AdminResponse, 1, validation.MaxDisputeExplanationLen); err != nil {
		return nil, apperror.Validation(err)
	}

	current, err := s.disputes.GetByID(ctx, in.DisputeID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if current.Status != valueobject.DisputeStatusOpen {
		return nil, apperror.InvalidState("спор уже рассмотрен")
	}

	dispute, payment, err := s.disputes.Resolve(ctx, models.DisputeResolution{
		DisputeID:     current.ID,
		ResolverID:    caller.UserID,
		Decision:      decision,
		AdminResponse: in.AdminResponse,
		ResolvedAt:    s.now(),
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidateReports()

	s.effects.record(ctx, caller, dispute.UserID, models.EntityDispute, dispute.ID, EventDisputeResolved,
		map[string]any{"status": current.Status},
		map[string]any{"status": dispute.Status, "decision": decision, "admin_response": dispute.AdminResponse})
	s.effects.record(ctx, caller, dispute.UserID, models.EntityPayment, payment.ID, "payment.status_changed",
		map[string]any{"status": valueobject.PaymentStatusUnderReview},
		map[string]any{"status": payment.Status})
	if decision == valueobject.DecisionApproved {
		s.effects.record(ctx, caller, dispute.UserID, models.EntityRequest, payment.RequestID, "request.status_changed",
			statusSnapshot(valueobject.RequestStatusPaymentRejected), statusSnapshot(valueobject.RequestStatusPaymentApproved))
	}
	s.effects.notify(ctx, dispute.UserID, EventDisputeResolved, map[string]any{
		"dispute_id":     dispute.ID,
		"payment_id":     payment.ID,
		"request_id":     payment.RequestID,
		"decision":       decision,
		"admin_response": dispute.AdminResponse,
	})
	return dispute, nil
}

// StartWork отмечает начало работы: PAYMENT_APPROVED -> IN_PROGRESS.
func (s *LifecycleService) StartWork(ctx context.Context, caller models.Caller, requestID uuid.UUID) (*models.Request, error) {
	return s.adminTransition(ctx, caller, requestID, valueobject.RequestStatusInProgress, EventRequestInProgress)
}

// CloseRequest закрывает выполненную заявку: DELIVERED -> CLOSED.
func (s *LifecycleService) CloseRequest(ctx context.Context, caller models.Caller, requestID uuid.UUID) (*models.Request, error) {
	return s.adminTransition(ctx, caller, requestID, valueobject.RequestStatusClosed, EventRequestClosed)
}

func (s *LifecycleService) adminTransition(ctx context.Context, caller models.Caller, requestID uuid.UUID, to valueobject.RequestStatus, event string) (*models.Request, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, apperror.InvalidState("переход " + string(current.Status) + " -> " + string(to) + " недопустим")
	}

	req, err := s.requests.Transition(ctx, requestID, to, s.now())
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, req.UserID, models.EntityRequest, req.ID, "request.status_changed",
		statusSnapshot(current.Status), statusSnapshot(req.Status))
	s.effects.notify(ctx, req.UserID, event, map[string]any{
		"request_id": req.ID,
		"status":     req.Status,
	})
	return req, nil
}

// UploadDeliverable сохраняет результат работы. Первая загрузка переводит заявку в DELIVERED;
// повторные загрузки статус не меняют.
func (s *LifecycleService) UploadDeliverable(ctx context.Context, caller models.Caller, in UploadDeliverableInput) (*models.Deliverable, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	in.FileName = strings.TrimSpace(in.FileName)
	in.FileType = strings.TrimSpace(in.FileType)
	if err := firstError(
		validation.ValidateRequired("имя файла", in.FileName, 1, validation.MaxFileNameLength),
		validation.ValidateFileURL("ссылка на файл", in.FileURL),
		validation.ValidateRequired("тип файла", in.FileType, 1, 100),
		validation.ValidateOptional("описание", in.Description, validation.MaxDeliverableDescription),
	); err != nil {
		return nil, apperror.Validation(err)
	}
	if in.FileSize < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "размер файла не может быть отрицательным")
	}

	req, err := s.requests.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !req.Status.AcceptsDeliverables() {
		return nil, apperror.InvalidState("результаты можно загружать только после подтверждения оплаты и до закрытия заявки")
	}

	deliverable := &models.Deliverable{
		RequestID:   req.ID,
		UploadedBy:  caller.UserID,
		FileName:    in.FileName,
		FileURL:     strings.TrimSpace(in.FileURL),
		FileType:    in.FileType,
		FileSize:    in.FileSize,
		Description: trimmedOrNil(in.Description),
		CreatedAt:   s.now(),
	}
	delivered, err := s.deliverables.Create(ctx, deliverable)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.effects.record(ctx, caller, req.UserID, models.EntityDeliverable, deliverable.ID, EventDeliverableUploaded, nil,
		map[string]any{"request_id": req.ID, "file_name": deliverable.FileName})
	if delivered {
		s.effects.record(ctx, caller, req.UserID, models.EntityRequest, req.ID, "request.status_changed",
			statusSnapshot(req.Status), statusSnapshot(valueobject.RequestStatusDelivered))
	}
	s.effects.notify(ctx, req.UserID, EventDeliverableUploaded, map[string]any{
		"request_id":     req.ID,
		"deliverable_id": deliverable.ID,
		"file_name":      deliverable.FileName,
	})
	return deliverable, nil
}

// AccessDeliverables возвращает результаты работ, если вызывающему разрешено их видеть.
// Студент видит файлы только своей заявки и только при одобренном платеже; иначе locked=true.
func (s *LifecycleService) AccessDeliverables(ctx context.Context, caller models.Caller, requestID uuid.UUID) ([]models.Deliverable, bool, error) {
	if err := requireActive(caller); err != nil {
		return nil, true, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, true, mapRepoErr(err)
	}
	if !caller.IsAdmin() && !req.IsOwnedBy(caller.UserID) {
		return nil, true, apperror.ErrNotOwner
	}

	return s.gatedDeliverables(ctx, caller, req, nil)
}

// gatedDeliverables применяет правило доступа к результатам. payment может быть уже загружен вызывающим.
func (s *LifecycleService) gatedDeliverables(ctx context.Context, caller models.Caller, req *models.Request, payment *models.Payment) ([]models.Deliverable, bool, error) {
	if !caller.IsAdmin() {
		if caller.IsSuspended || !req.IsOwnedBy(caller.UserID) {
			return []models.Deliverable{}, true, nil
		}
		if payment == nil {
			p, err := s.payments.GetLatestByRequest(ctx, req.ID)
			if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
				return nil, true, mapRepoErr(err)
			}
			payment = p
		}
		if payment == nil || payment.Status != valueobject.PaymentStatusApproved {
			return []models.Deliverable{}, true, nil
		}
	}

	items, err := s.deliverables.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, true, mapRepoErr(err)
	}
	return items, false, nil
}

// GetRequest возвращает заявку с услугой, текущим платежом и результатами, доступными вызывающему.
// Заблокированный студент видит заявку, но не файлы.
func (s *LifecycleService) GetRequest(ctx context.Context, caller models.Caller, requestID uuid.UUID) (*models.RequestDetails, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !caller.IsAdmin() && !req.IsOwnedBy(caller.UserID) {
		return nil, apperror.ErrNotOwner
	}

	details := &models.RequestDetails{Request: req}

	svc, err := s.services.GetByID(ctx, req.ServiceID)
	switch {
	case err == nil:
		details.Service = svc
	case !errors.Is(err, repository.ErrServiceNotFound):
		return nil, mapRepoErr(err)
	}

	payment, err := s.payments.GetLatestByRequest(ctx, req.ID)
	switch {
	case err == nil:
		details.Payment = payment
	case !errors.Is(err, repository.ErrPaymentNotFound):
		return nil, mapRepoErr(err)
	}

	items, locked, err := s.gatedDeliverables(ctx, caller, req, payment)
	if err != nil {
		return nil, err
	}
	details.Deliverables = items
	details.DeliverablesLocked = locked
	return details, nil
}

// ListRequests возвращает страницу заявок: студенту свои, администратору все.
func (s *LifecycleService) ListRequests(ctx context.Context, caller models.Caller, filter models.ListFilter) (*models.Page[models.Request], error) {
	if filter.Status != "" {
		if _, err := valueobject.NewRequestStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	scopeToCaller(caller, &filter)

	items, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.Request]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// RequestHistory возвращает журнал изменений заявки.
func (s *LifecycleService) RequestHistory(ctx context.Context, caller models.Caller, requestID uuid.UUID) ([]models.AuditLog, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !caller.IsAdmin() && !req.IsOwnedBy(caller.UserID) {
		return nil, apperror.ErrNotOwner
	}
	if s.effects.audit == nil {
		return []models.AuditLog{}, nil
	}

	entries, err := s.effects.audit.ListByEntity(ctx, models.EntityRequest, req.ID)
	return entries, mapRepoErr(err)
}

// GetPayment возвращает платёж владельцу или администратору.
func (s *LifecycleService) GetPayment(ctx context.Context, caller models.Caller, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !caller.IsAdmin() && payment.UserID != caller.UserID {
		return nil, apperror.ErrNotOwner
	}
	return payment, nil
}

// ListPayments возвращает страницу платежей.
func (s *LifecycleService) ListPayments(ctx context.Context, caller models.Caller, filter models.ListFilter) (*models.Page[models.Payment], error) {
	if filter.Status != "" {
		if _, err := valueobject.NewPaymentStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	scopeToCaller(caller, &filter)

	items, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.Payment]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListDisputes возвращает страницу споров.
func (s *LifecycleService) ListDisputes(ctx context.Context, caller models.Caller, filter models.ListFilter) (*models.Page[models.Dispute], error) {
	switch valueobject.DisputeStatus(filter.Status) {
	case "", valueobject.DisputeStatusOpen, valueobject.DisputeStatusResolved:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	scopeToCaller(caller, &filter)

	items, total, err := s.disputes.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.Dispute]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetDispute возвращает спор владельцу или администратору.
func (s *LifecycleService) GetDispute(ctx context.Context, caller models.Caller, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !caller.IsAdmin() && dispute.UserID != caller.UserID {
		return nil, apperror.ErrNotOwner
	}
	return dispute, nil
}

func (s *LifecycleService) invalidateReports() {
	if s.cache != nil {
		s.cache.InvalidateByPrefix(ReportCachePrefix)
	}
}

// scopeToCaller ограничивает выборку записями студента и нормализует пагинацию.
func scopeToCaller(caller models.Caller, filter *models.ListFilter) {
	if !caller.IsAdmin() {
		id := caller.UserID
		filter.UserID = &id
	}
	filter.Normalize()
}

func statusSnapshot(status valueobject.RequestStatus) map[string]any {
	return map[string]any{"status": status}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
