package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
)

// User описывает студента или администратора платформы.
type User struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	Name            string           `db:"name" json:"name"`
	Email           string           `db:"email" json:"email"`
	Role            valueobject.Role `db:"role" json:"role"`
	IsSuspended     bool             `db:"is_suspended" json:"isSuspended"`
	SuspendedReason *string          `db:"suspended_reason" json:"suspendedReason,omitempty"`
	SuspendedAt     *time.Time       `db:"suspended_at" json:"suspendedAt,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

// Identity - проверенные клеймы access токена от провайдера идентификации.
type Identity struct {
	UserID uuid.UUID
	Role   string
	Name   string
	Email  string
}

// Caller - явный контекст вызывающего, передаваемый в каждую операцию.
type Caller struct {
	UserID          uuid.UUID
	Role            valueobject.Role
	IsSuspended     bool
	SuspendedReason *string
}

// CallerFromUser строит контекст вызывающего по записи пользователя.
func CallerFromUser(u *User) Caller {
	return Caller{
		UserID:          u.ID,
		Role:            u.Role,
		IsSuspended:     u.IsSuspended,
		SuspendedReason: u.SuspendedReason,
	}
}

func (c Caller) IsAdmin() bool {
	return c.Role == valueobject.RoleAdmin
}

func (c Caller) IsStudent() bool {
	return c.Role == valueobject.RoleStudent
}
