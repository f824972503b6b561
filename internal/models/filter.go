package models

import "github.com/google/uuid"

// ListFilter - серверная фильтрация и пагинация списков.
type ListFilter struct {
	UserID       *uuid.UUID
	Status       string
	Search       string
	Category     string
	Priority     string
	Role         string
	Suspended    *bool
	FraudFlagged *bool
	Limit        int
	Offset       int
}

// Normalize подставляет значения пагинации по умолчанию.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Page - страница результатов вместе с общим количеством.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
