package dto

import (
	"time"
)

// CreateRequestRequest represents the request to create a study request
type CreateRequestRequest struct {
	ServiceID     string    `json:"serviceId" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Instructions  string    `json:"instructions" binding:"required"`
	AcademicLevel string    `json:"academicLevel" binding:"required"`
	Deadline      time.Time `json:"deadline" binding:"required"`
	Notes         *string   `json:"notes"`
}

// SubmitPaymentRequest represents the payment proof uploaded by a student
type SubmitPaymentRequest struct {
	RequestID       string  `json:"requestId" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
	Currency        string  `json:"currency" binding:"required"`
	ReceiptURL      string  `json:"receiptUrl" binding:"required"`
	ReferenceNumber string  `json:"referenceNumber" binding:"required"`
}

// ReviewPaymentRequest represents the admin decision on a payment
type ReviewPaymentRequest struct {
	Status          string  `json:"status" binding:"required"`
	RejectionReason *string `json:"rejectionReason"`
	FraudFlagged    bool    `json:"fraudFlagged"`
	FraudNotes      *string `json:"fraudNotes"`
}

// FileDisputeRequest represents a dispute over a rejected payment
type FileDisputeRequest struct {
	Explanation string `json:"explanation" binding:"required"`
}

// ResolveDisputeRequest represents the admin decision on a dispute
type ResolveDisputeRequest struct {
	Decision      string `json:"decision" binding:"required"`
	AdminResponse string `json:"adminResponse" binding:"required"`
}

// UploadDeliverableRequest represents a deliverable file attached to a request
type UploadDeliverableRequest struct {
	RequestID   string  `json:"requestId" binding:"required"`
	FileName    string  `json:"fileName" binding:"required"`
	FileURL     string  `json:"fileUrl" binding:"required"`
	FileType    string  `json:"fileType" binding:"required"`
	FileSize    int64   `json:"fileSize"`
	Description *string `json:"description"`
}

// ServiceRequest represents a catalog service created or updated by an admin
type ServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug" binding:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

// SuspendUserRequest represents the request to suspend or restore an account
type SuspendUserRequest struct {
	IsSuspended *bool   `json:"isSuspended" binding:"required"`
	Reason      *string `json:"reason"`
}

// CreateTicketRequest represents a new support ticket
type CreateTicketRequest struct {
	Title     string  `json:"title" binding:"required"`
	Category  string  `json:"category"`
	Priority  string  `json:"priority"`
	Message   string  `json:"message" binding:"required"`
	RequestID *string `json:"requestId"`
}

// TicketReplyRequest represents a message in a ticket thread
type TicketReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateTicketStatusRequest represents the request to update ticket status
type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
