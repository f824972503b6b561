package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/academic-services-backend/internal/db"
	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// Тесты этого пакета идут против настоящего PostgreSQL: условные UPDATE и
// блокировки строк нельзя проверить на заглушке. База очищается перед каждым тестом,
// поэтому TEST_DATABASE_URL должен указывать на отдельную базу.
const testDatabaseEnv = "TEST_DATABASE_URL"

var reviewedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s не задан", testDatabaseEnv)
	}

	ctx := context.Background()
	conn, err := db.NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = db.RunMigrations(ctx, conn, os.DirFS("../../migrations"))
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `
		TRUNCATE notifications, audit_logs, ticket_replies, tickets, deliverables,
			disputes, payments, requests, services, users CASCADE
	`)
	require.NoError(t, err)
	return conn
}

// pgFixture - репозитории поверх одной тестовой базы и пара пользователей.
type pgFixture struct {
	conn         *sqlx.DB
	users        *UserRepository
	services     *ServiceRepository
	requests     *RequestRepository
	payments     *PaymentRepository
	disputes     *DisputeRepository
	deliverables *DeliverableRepository

	student *models.User
	admin   *models.User
	service *models.Service
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	conn := testDB(t)
	f := &pgFixture{
		conn:         conn,
		users:        NewUserRepository(conn),
		services:     NewServiceRepository(conn),
		requests:     NewRequestRepository(conn),
		payments:     NewPaymentRepository(conn),
		disputes:     NewDisputeRepository(conn),
		deliverables: NewDeliverableRepository(conn),
	}
	ctx := context.Background()

	f.student = &models.User{Name: "Студент", Email: uuid.NewString() + "@example.com", Role: valueobject.RoleStudent}
	require.NoError(t, f.users.Create(ctx, f.student))
	f.admin = &models.User{Name: "Админ", Email: uuid.NewString() + "@example.com", Role: valueobject.RoleAdmin}
	require.NoError(t, f.users.Create(ctx, f.admin))

	f.service = &models.Service{Name: "Эссе", Slug: "essay-" + uuid.NewString()[:8], Price: 40, Currency: "USD", IsActive: true}
	require.NoError(t, f.services.Create(ctx, f.service))
	return f
}

func (f *pgFixture) createRequest(t *testing.T) *models.Request {
	t.Helper()
	req := &models.Request{
		UserID:        f.student.ID,
		ServiceID:     f.service.ID,
		Title:         "Курсовая",
		Instructions:  "Двадцать страниц по микроэкономике",
		AcademicLevel: "UNDERGRADUATE",
		Deadline:      reviewedAt.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, f.requests.Create(context.Background(), req))
	return req
}

func (f *pgFixture) newPayment(requestID uuid.UUID) *models.Payment {
	return &models.Payment{
		RequestID:       requestID,
		UserID:          f.student.ID,
		ReferenceNumber: "TX-" + uuid.NewString()[:8],
		Amount:          40,
		Currency:        "USD",
		ReceiptURL:      "/files/receipts/r.png",
	}
}

func (f *pgFixture) submit(t *testing.T, requestID uuid.UUID) *models.Payment {
	t.Helper()
	p := f.newPayment(requestID)
	require.NoError(t, f.payments.Submit(context.Background(), p))
	return p
}

func (f *pgFixture) review(t *testing.T, paymentID uuid.UUID, decision valueobject.ReviewDecision) *models.Payment {
	t.Helper()
	p, err := f.payments.Review(context.Background(), f.reviewOf(paymentID, decision))
	require.NoError(t, err)
	return p
}

func (f *pgFixture) reviewOf(paymentID uuid.UUID, decision valueobject.ReviewDecision) models.PaymentReview {
	return models.PaymentReview{
		PaymentID:  paymentID,
		ReviewerID: f.admin.ID,
		Decision:   decision,
		ReviewedAt: reviewedAt,
	}
}

func (f *pgFixture) requestStatus(t *testing.T, id uuid.UUID) valueobject.RequestStatus {
	t.Helper()
	req, err := f.requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

func (f *pgFixture) deliverable(requestID uuid.UUID, at time.Time) *models.Deliverable {
	return &models.Deliverable{
		RequestID:  requestID,
		UploadedBy: f.admin.ID,
		FileName:   "work.pdf",
		FileURL:    "/files/deliverables/work.pdf",
		FileType:   "application/pdf",
		FileSize:   1024,
		CreatedAt:  at,
	}
}
