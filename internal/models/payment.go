package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
)

// Payment - подтверждение перевода, загруженное студентом и ожидающее проверки.
type Payment struct {
	ID              uuid.UUID                 `db:"id" json:"id"`
	RequestID       uuid.UUID                 `db:"request_id" json:"requestId"`
	UserID          uuid.UUID                 `db:"user_id" json:"userId"`
	ReferenceNumber string                    `db:"reference_number" json:"referenceNumber"`
	Amount          float64                   `db:"amount" json:"amount"`
	Currency        string                    `db:"currency" json:"currency"`
	ReceiptURL      string                    `db:"receipt_url" json:"receiptUrl"`
	Status          valueobject.PaymentStatus `db:"status" json:"status"`
	RejectionReason *string                   `db:"rejection_reason" json:"rejectionReason,omitempty"`
	FraudFlagged    bool                      `db:"fraud_flagged" json:"fraudFlagged"`
	FraudNotes      *string                   `db:"fraud_notes" json:"fraudNotes,omitempty"`
	ReviewedBy      *uuid.UUID                `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time                `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt       time.Time                 `db:"created_at" json:"createdAt"`
}

func (p *Payment) Money() valueobject.Money {
	return valueobject.Money{Amount: p.Amount, Currency: p.Currency}
}

// PaymentReview - решение администратора по платежу.
type PaymentReview struct {
	PaymentID       uuid.UUID
	ReviewerID      uuid.UUID
	Decision        valueobject.ReviewDecision
	RejectionReason *string
	FraudFlagged    bool
	FraudNotes      *string
	ReviewedAt      time.Time
}

// Dispute - оспаривание студентом отклонённого платежа.
type Dispute struct {
	ID            uuid.UUID                 `db:"id" json:"id"`
	PaymentID     uuid.UUID                 `db:"payment_id" json:"paymentId"`
	UserID        uuid.UUID                 `db:"user_id" json:"userId"`
	Explanation   string                    `db:"explanation" json:"explanation"`
	Status        valueobject.DisputeStatus `db:"status" json:"status"`
	AdminResponse *string                   `db:"admin_response" json:"adminResponse,omitempty"`
	ResolvedBy    *uuid.UUID                `db:"resolved_by" json:"resolvedBy,omitempty"`
	CreatedAt     time.Time                 `db:"created_at" json:"createdAt"`
	ResolvedAt    *time.Time                `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// DisputeResolution - итог рассмотрения спора.
type DisputeResolution struct {
	DisputeID     uuid.UUID
	ResolverID    uuid.UUID
	Decision      valueobject.ReviewDecision
	AdminResponse string
	ResolvedAt    time.Time
}
