package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ignatzorin/academic-services-backend/internal/goroutine"
)

// Префиксы ключей кэша.
const (
	ReportCachePrefix = "report:"
	CatalogCacheKey   = "catalog:active"
)

const cacheSweepInterval = 5 * time.Minute

// CacheService - in-memory кэш с TTL для каталога и отчётов.
//
// Каждое удаление увеличивает поколение кэша. GetOrSet сохраняет вычисленное значение,
// только если за время вычисления поколение не менялось: отчёт, начатый до рассмотрения
// платежа, не переживёт инвалидацию.
type CacheService struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	generation uint64
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш. Просроченные записи вычищаются, пока ctx не завершён.
func NewCacheService(ctx context.Context) *CacheService {
	cs := &CacheService{entries: make(map[string]cacheEntry)}
	goroutine.SafeGoWithContext(ctx, "cache-cleanup", cs.sweepLoop)
	return cs
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.entries[key] = cacheEntry{data: value, expiresAt: time.Now().Add(ttl)}
}

func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.entries, key)
	cs.generation++
}

// InvalidateByPrefix удаляет все ключи с префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for key := range cs.entries {
		if strings.HasPrefix(key, prefix) {
			delete(cs.entries, key)
		}
	}
	cs.generation++
}

// GetOrSet возвращает значение из кэша или вычисляет его через fn.
// Ошибки fn не кэшируются.
func (cs *CacheService) GetOrSet(key string, ttl time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	if value, ok := cs.Get(key); ok {
		return value, nil
	}

	cs.mu.RLock()
	gen := cs.generation
	cs.mu.RUnlock()

	value, err := fn()
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	if cs.generation == gen {
		cs.entries[key] = cacheEntry{data: value, expiresAt: time.Now().Add(ttl)}
	}
	cs.mu.Unlock()
	return value, nil
}

// Cached - типизированная обёртка над GetOrSet. При nil кэше fn вызывается напрямую.
func Cached[T any](cs *CacheService, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if cs == nil || ttl <= 0 {
		return fn()
	}
	v, err := cs.GetOrSet(key, ttl, func() (interface{}, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (cs *CacheService) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cs.sweep(now)
		}
	}
}

func (cs *CacheService) sweep(now time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for key, entry := range cs.entries {
		if now.After(entry.expiresAt) {
			delete(cs.entries, key)
		}
	}
}
