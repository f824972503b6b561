package valueobject

import "github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"

type RequestStatus string

const (
	RequestStatusCreated          RequestStatus = "CREATED"
	RequestStatusPaymentSubmitted RequestStatus = "PAYMENT_SUBMITTED"
	RequestStatusPaymentApproved  RequestStatus = "PAYMENT_APPROVED"
	RequestStatusPaymentRejected  RequestStatus = "PAYMENT_REJECTED"
	RequestStatusInProgress       RequestStatus = "IN_PROGRESS"
	RequestStatusDelivered        RequestStatus = "DELIVERED"
	RequestStatusClosed           RequestStatus = "CLOSED"
)

// requestTransitions - единственный источник правды о допустимых переходах заявки.
// PAYMENT_REJECTED -> PAYMENT_APPROVED возможен только через разрешение спора.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusCreated:          {RequestStatusPaymentSubmitted},
	RequestStatusPaymentSubmitted: {RequestStatusPaymentApproved, RequestStatusPaymentRejected},
	RequestStatusPaymentRejected:  {RequestStatusPaymentApproved},
	RequestStatusPaymentApproved:  {RequestStatusInProgress, RequestStatusDelivered},
	RequestStatusInProgress:       {RequestStatusDelivered},
	RequestStatusDelivered:        {RequestStatusClosed},
	RequestStatusClosed:           {},
}

func (s RequestStatus) IsValid() bool {
	_, ok := requestTransitions[s]
	return ok
}

func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	for _, status := range requestTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// SourcesOf возвращает все статусы, из которых разрешён переход в target.
func SourcesOf(target RequestStatus) []RequestStatus {
	var sources []RequestStatus
	for _, from := range AllRequestStatuses() {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// AcceptsDeliverables сообщает, можно ли загружать результаты работы.
func (s RequestStatus) AcceptsDeliverables() bool {
	switch s {
	case RequestStatusPaymentApproved, RequestStatusInProgress, RequestStatusDelivered:
		return true
	}
	return false
}

func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusCreated,
		RequestStatusPaymentSubmitted,
		RequestStatusPaymentApproved,
		RequestStatusPaymentRejected,
		RequestStatusInProgress,
		RequestStatusDelivered,
		RequestStatusClosed,
	}
}

func NewRequestStatus(status string) (RequestStatus, error) {
	s := RequestStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки")
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "PENDING"
	PaymentStatusApproved    PaymentStatus = "APPROVED"
	PaymentStatusRejected    PaymentStatus = "REJECTED"
	PaymentStatusUnderReview PaymentStatus = "UNDER_REVIEW"
)

// PaymentAction - операция, которая меняет статус платежа.
type PaymentAction string

const (
	PaymentActionReview  PaymentAction = "REVIEW"
	PaymentActionDispute PaymentAction = "DISPUTE"
	PaymentActionResolve PaymentAction = "RESOLVE"
)

type paymentEdge struct {
	from PaymentStatus
	to   []PaymentStatus
}

// paymentTransitions - автомат платежа: из какого статуса начинается операция и куда она ведёт.
// UNDER_REVIEW -> APPROVED/REJECTED возможен только разрешением спора, а не повторным рассмотрением.
var paymentTransitions = map[PaymentAction]paymentEdge{
	PaymentActionReview:  {from: PaymentStatusPending, to: []PaymentStatus{PaymentStatusApproved, PaymentStatusRejected}},
	PaymentActionDispute: {from: PaymentStatusRejected, to: []PaymentStatus{PaymentStatusUnderReview}},
	PaymentActionResolve: {from: PaymentStatusUnderReview, to: []PaymentStatus{PaymentStatusApproved, PaymentStatusRejected}},
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected, PaymentStatusUnderReview:
		return true
	}
	return false
}

// Allows сообщает, может ли операция начаться из текущего статуса платежа.
func (s PaymentStatus) Allows(action PaymentAction) bool {
	edge, ok := paymentTransitions[action]
	return ok && edge.from == s
}

// PaymentSource возвращает статус, из которого операция переводит платёж в to.
// ok=false, если операция в to не ведёт.
func PaymentSource(action PaymentAction, to PaymentStatus) (PaymentStatus, bool) {
	edge, ok := paymentTransitions[action]
	if !ok {
		return "", false
	}
	for _, status := range edge.to {
		if status == to {
			return edge.from, true
		}
	}
	return "", false
}

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус платежа")
	}
	return s, nil
}

// ReviewDecision - решение администратора по платежу или спору.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

func NewReviewDecision(decision string) (ReviewDecision, error) {
	switch d := ReviewDecision(decision); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "решение должно быть APPROVED или REJECTED")
}

func (d ReviewDecision) PaymentStatus() PaymentStatus {
	if d == DecisionApproved {
		return PaymentStatusApproved
	}
	return PaymentStatusRejected
}

func (d ReviewDecision) RequestStatus() RequestStatus {
	if d == DecisionApproved {
		return RequestStatusPaymentApproved
	}
	return RequestStatusPaymentRejected
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

func NewTicketStatus(status string) (TicketStatus, error) {
	switch s := TicketStatus(status); s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return s, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус обращения")
}

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

func NewRole(role string) (Role, error) {
	switch r := Role(role); r {
	case RoleStudent, RoleAdmin:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
}
