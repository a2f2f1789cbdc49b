// Пакет service — бизнес-логика: загрузка вакансий с hh.ru в БД
// и чтение агрегированных данных для HTTP API.
// CacheService — LRU-кэш результатов запросов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш результатов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша результатов.",
	})
)

// CacheService — LRU-кэш результатов агрегирующих запросов с автоматическим TTL.
// Ключ — имя операции с параметрами. Значения не изменяются после записи.
type CacheService struct {
	cache *expirable.LRU[string, any]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	return &CacheService{cache: expirable.NewLRU[string, any](maxSize, nil, ttl)}
}

// Get возвращает значение по ключу и обновляет метрики hit/miss.
func (c *CacheService) Get(key string) (any, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись.
func (c *CacheService) Set(key string, val any) {
	c.cache.Add(key, val)
}

// Purge очищает кэш (после загрузки новых данных).
func (c *CacheService) Purge() {
	c.cache.Purge()
}

// Len возвращает текущее количество записей.
func (c *CacheService) Len() int {
	return c.cache.Len()
}
