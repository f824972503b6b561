package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/validation"
)

// ServiceRepository - хранилище каталога услуг.
type ServiceRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Create(ctx context.Context, s *models.Service) error
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const catalogCacheTTL = 5 * time.Minute

// CatalogService управляет каталогом услуг.
type CatalogService struct {
	repo    ServiceRepository
	cache   *CacheService
	effects *sideEffects
}

// NewCatalogService создаёт сервис каталога. cache может быть nil.
func NewCatalogService(repo ServiceRepository, cache *CacheService, audit AuditStore) *CatalogService {
	return &CatalogService{
		repo:    repo,
		cache:   cache,
		effects: &sideEffects{audit: audit},
	}
}

// ServiceInput - поля услуги, которые задаёт администратор.
type ServiceInput struct {
	Name        string
	Slug        string
	Description *string
	Price       float64
	Currency    string
	IsActive    bool
	SortOrder   int
}

// ListActive возвращает опубликованные услуги. Результат кэшируется.
func (s *CatalogService) ListActive(ctx context.Context) ([]models.Service, error) {
	return Cached(s.cache, CatalogCacheKey, catalogCacheTTL, func() ([]models.Service, error) {
		return s.list(ctx, true)
	})
}

// ListAll возвращает весь каталог, включая скрытые услуги.
func (s *CatalogService) ListAll(ctx context.Context, caller models.Caller) ([]models.Service, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, false)
}

func (s *CatalogService) list(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	services, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return services, nil
}

// Get возвращает услугу. Скрытые услуги видит только администратор.
func (s *CatalogService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !svc.IsActive && !caller.IsAdmin() {
		return nil, apperror.ErrServiceNotFound
	}
	return svc, nil
}

// Create добавляет услугу в каталог.
func (s *CatalogService) Create(ctx context.Context, caller models.Caller, in ServiceInput) (*models.Service, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	svc := &models.Service{}
	if err := applyServiceInput(svc, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate()

	s.effects.record(ctx, caller, caller.UserID, models.EntityService, svc.ID, "service.created", nil, svc)
	return svc, nil
}

// Update изменяет услугу.
func (s *CatalogService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, in ServiceInput) (*models.Service, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	before := *svc

	if err := applyServiceInput(svc, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate()

	s.effects.record(ctx, caller, caller.UserID, models.EntityService, svc.ID, "service.updated", before, svc)
	return svc, nil
}

// Delete удаляет услугу. Если на неё ссылаются заявки, удаление отклоняется.
func (s *CatalogService) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if err := requireActive(caller); err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate()

	s.effects.record(ctx, caller, caller.UserID, models.EntityService, id, "service.deleted", nil, nil)
	return nil
}

func (s *CatalogService) invalidate() {
	if s.cache != nil {
		s.cache.Delete(CatalogCacheKey)
	}
}

func applyServiceInput(svc *models.Service, in ServiceInput) error {
	name := strings.TrimSpace(in.Name)
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = "USD"
	}

	if err := firstError(
		validation.ValidateRequired("название", name, validation.MinServiceNameLength, validation.MaxServiceNameLength),
		validation.ValidateSlug(slug),
		validation.ValidateOptional("описание", in.Description, validation.MaxServiceDescriptionLen),
		validation.ValidatePrice(in.Price),
	); err != nil {
		return apperror.Validation(err)
	}
	currency, err := valueobject.NormalizeCurrency(in.Currency)
	if err != nil {
		return err
	}

	svc.Name = name
	svc.Slug = slug
	svc.Description = trimmedOrNil(in.Description)
	svc.Price = in.Price
	svc.Currency = currency
	svc.IsActive = in.IsActive
	svc.SortOrder = in.SortOrder
	return nil
}
