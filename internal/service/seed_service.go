package service

import (
	"context"
	"fmt"

	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// ServiceSeeder добавляет услугу, если slug ещё свободен.
type ServiceSeeder interface {
	CreateIfAbsent(ctx context.Context, s *models.Service) (bool, error)
}

// SeedService заполняет каталог услугами по умолчанию.
type SeedService struct {
	services ServiceSeeder
	cache    *CacheService
}

// NewSeedService создаёт новый сервис для заполнения каталога.
func NewSeedService(services ServiceSeeder) *SeedService {
	return &SeedService{services: services}
}

// SetCache подключает кэш каталога, который сбрасывается после заполнения.
func (s *SeedService) SetCache(cache *CacheService) {
	s.cache = cache
}

// SeedResult - итог заполнения каталога.
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// SeedServices добавляет каталог по умолчанию. Повторный запуск ничего не дублирует.
func (s *SeedService) SeedServices(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	for i, in := range defaultCatalog() {
		in.SortOrder = (i + 1) * 10
		in.IsActive = true

		svc := &models.Service{}
		if err := applyServiceInput(svc, in); err != nil {
			return result, fmt.Errorf("seed service: %s: %w", in.Slug, err)
		}

		created, err := s.services.CreateIfAbsent(ctx, svc)
		if err != nil {
			return result, fmt.Errorf("seed service: failed to create %s: %w", in.Slug, err)
		}
		if created {
			result.Created = append(result.Created, svc.Slug)
		} else {
			result.Skipped = append(result.Skipped, svc.Slug)
		}
	}
	if s.cache != nil && len(result.Created) > 0 {
		s.cache.Delete(CatalogCacheKey)
	}
	return result, nil
}

func defaultCatalog() []ServiceInput {
	describe := func(s string) *string { return &s }

	return []ServiceInput{
		{
			Name:        "Эссе",
			Slug:        "essay",
			Description: describe("Аргументированное эссе по заданной теме с оформлением списка источников."),
			Price:       40,
		},
		{
			Name:        "Реферат",
			Slug:        "report",
			Description: describe("Обзор литературы по теме, структура по требованиям кафедры."),
			Price:       35,
		},
		{
			Name:        "Курсовая работа",
			Slug:        "term-paper",
			Description: describe("Теоретическая и практическая части, расчёты, оформление по ГОСТ или APA."),
			Price:       150,
		},
		{
			Name:        "Дипломная работа",
			Slug:        "thesis",
			Description: describe("Выпускная квалификационная работа с сопровождением до защиты."),
			Price:       600,
		},
		{
			Name:        "Решение задач",
			Slug:        "problem-solving",
			Description: describe("Подробные решения задач по математике, физике и экономике."),
			Price:       25,
		},
		{
			Name:        "Презентация",
			Slug:        "presentation",
			Description: describe("Слайды к докладу или защите с тезисами для выступления."),
			Price:       30,
		},
		{
			Name:        "Редактирование и корректура",
			Slug:        "proofreading",
			Description: describe("Вычитка текста, исправление стиля, оформление ссылок."),
			Price:       20,
		},
	}
}
