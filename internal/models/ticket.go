package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
)

const (
	TicketPriorityLow    = "LOW"
	TicketPriorityMedium = "MEDIUM"
	TicketPriorityHigh   = "HIGH"
)

// ValidTicketPriorities список допустимых приоритетов.
var ValidTicketPriorities = map[string]struct{}{
	TicketPriorityLow:    {},
	TicketPriorityMedium: {},
	TicketPriorityHigh:   {},
}

// ValidTicketCategories список допустимых категорий обращений.
var ValidTicketCategories = map[string]struct{}{
	"GENERAL":   {},
	"PAYMENT":   {},
	"REQUEST":   {},
	"TECHNICAL": {},
	"ACCOUNT":   {},
}

// Ticket - обращение в поддержку.
type Ticket struct {
	ID        uuid.UUID                `db:"id" json:"id"`
	UserID    uuid.UUID                `db:"user_id" json:"userId"`
	RequestID *uuid.UUID               `db:"request_id" json:"requestId,omitempty"`
	Title     string                   `db:"title" json:"title"`
	Category  string                   `db:"category" json:"category"`
	Priority  string                   `db:"priority" json:"priority"`
	Status    valueobject.TicketStatus `db:"status" json:"status"`
	CreatedAt time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time                `db:"updated_at" json:"updatedAt"`
	Replies   []Reply                  `json:"replies,omitempty"`
}

// Reply - сообщение в обращении.
type Reply struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TicketID  uuid.UUID `db:"ticket_id" json:"ticketId"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
