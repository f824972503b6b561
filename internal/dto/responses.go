package dto

import (
	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// ErrorResponse represents an error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse represents a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// DeliverablesResponse represents the deliverables of a request together with the gate result
type DeliverablesResponse struct {
	Deliverables []models.Deliverable `json:"deliverables"`
	Locked       bool                 `json:"locked"`
}

// CountResponse represents a single counter
type CountResponse struct {
	Count int `json:"count"`
}
