package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// ReportRepository строит агрегаты для админских отчётов.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// RevenueByCurrency суммирует одобренные платежи отдельно по каждой валюте.
func (r *ReportRepository) RevenueByCurrency(ctx context.Context) ([]models.CurrencyTotal, error) {
	totals := []models.CurrencyTotal{}
	err := r.db.SelectContext(ctx, &totals, `
		SELECT currency, SUM(amount)::float8 AS total, COUNT(*) AS payments
		FROM payments
		WHERE status = $1
		GROUP BY currency
		ORDER BY currency
	`, valueobject.PaymentStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("report repository: revenue by currency %w", err)
	}
	return totals, nil
}

// RequestCountsByStatus возвращает количество заявок в каждом статусе.
func (r *ReportRepository) RequestCountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("report repository: request counts %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("report repository: scan request counts %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
