package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
)

// Request - учебный заказ студента по одной услуге.
type Request struct {
	ID            uuid.UUID                 `db:"id" json:"id"`
	UserID        uuid.UUID                 `db:"user_id" json:"userId"`
	ServiceID     uuid.UUID                 `db:"service_id" json:"serviceId"`
	Title         string                    `db:"title" json:"title"`
	Instructions  string                    `db:"instructions" json:"instructions"`
	AcademicLevel string                    `db:"academic_level" json:"academicLevel"`
	Deadline      time.Time                 `db:"deadline" json:"deadline"`
	Notes         *string                   `db:"notes" json:"notes,omitempty"`
	Status        valueobject.RequestStatus `db:"status" json:"status"`
	CreatedAt     time.Time                 `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time                 `db:"updated_at" json:"updatedAt"`
	DeliveredAt   *time.Time                `db:"delivered_at" json:"deliveredAt,omitempty"`
	ClosedAt      *time.Time                `db:"closed_at" json:"closedAt,omitempty"`
}

func (r *Request) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// RequestDetails - заявка вместе со связанными сущностями для GET /requests/:id.
type RequestDetails struct {
	*Request
	Service            *Service      `json:"service,omitempty"`
	Payment            *Payment      `json:"payment,omitempty"`
	Deliverables       []Deliverable `json:"deliverables"`
	DeliverablesLocked bool          `json:"deliverablesLocked"`
}

// Deliverable - файл с результатом работы, загруженный администратором.
type Deliverable struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RequestID   uuid.UUID `db:"request_id" json:"requestId"`
	UploadedBy  uuid.UUID `db:"uploaded_by" json:"uploadedBy"`
	FileName    string    `db:"file_name" json:"fileName"`
	FileURL     string    `db:"file_url" json:"fileUrl"`
	FileType    string    `db:"file_type" json:"fileType"`
	FileSize    int64     `db:"file_size" json:"fileSize"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
