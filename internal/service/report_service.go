package service

import (
	"context"
	"math"
	"time"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

// ReportRepository - агрегаты для отчётов.
type ReportRepository interface {
	RevenueByCurrency(ctx context.Context) ([]models.CurrencyTotal, error)
	RequestCountsByStatus(ctx context.Context) (map[string]int, error)
}

// ReportService строит админские отчёты. Суммы хранятся в исходной валюте
// и переводятся в базовую только здесь, по таблице курсов на момент чтения.
type ReportService struct {
	repo  ReportRepository
	rates *valueobject.RateTable
	cache *CacheService
	ttl   time.Duration
	now   func() time.Time
}

// NewReportService создаёт сервис отчётов. rates и cache могут быть nil.
func NewReportService(repo ReportRepository, rates *valueobject.RateTable, cache *CacheService, ttl time.Duration) *ReportService {
	return &ReportService{repo: repo, rates: rates, cache: cache, ttl: ttl, now: time.Now}
}

// Revenue возвращает выручку по одобренным платежам.
func (s *ReportService) Revenue(ctx context.Context, caller models.Caller) (*models.RevenueReport, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return Cached(s.cache, ReportCachePrefix+"revenue", s.ttl, func() (*models.RevenueReport, error) {
		return s.buildRevenue(ctx)
	})
}

func (s *ReportService) buildRevenue(ctx context.Context) (*models.RevenueReport, error) {
	totals, err := s.repo.RevenueByCurrency(ctx)
	if err != nil {
		return nil, apperror.Database(err)
	}
	counts, err := s.repo.RequestCountsByStatus(ctx)
	if err != nil {
		return nil, apperror.Database(err)
	}

	report := &models.RevenueReport{
		ByCurrency:       totals,
		Unconverted:      []models.CurrencyTotal{},
		RequestsByStatus: make(map[string]int, len(counts)),
		GeneratedAt:      s.now(),
	}
	for _, status := range valueobject.AllRequestStatuses() {
		report.RequestsByStatus[string(status)] = counts[string(status)]
	}
	if s.rates != nil {
		report.BaseCurrency = s.rates.Base
	}

	var sum float64
	for _, t := range totals {
		converted, ok := s.rates.Convert(valueobject.Money{Amount: t.Total, Currency: t.Currency})
		if !ok {
			report.Unconverted = append(report.Unconverted, t)
			continue
		}
		sum += converted
	}
	report.TotalInBase = math.Round(sum*100) / 100
	return report, nil
}
