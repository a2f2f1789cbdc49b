// vacancies.go — чтение агрегированных данных о вакансиях.
// Каждый промах кэша открывает собственное соединение и закрывает его
// после запроса: Manager не разделяется между горутинами.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
	"github.com/arinazaikina/hh-vacancy-db/internal/repository"
)

// Prometheus-метрики чтения.
var (
	readTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vs_read_total",
		Help: "Общее количество операций чтения по источнику результата.",
	}, []string{"operation", "source"})
	readDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vs_read_duration_seconds",
		Help:    "Длительность операций чтения из БД.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// ScopeFunc выполняет fn на открытом соединении и закрывает его после
// на любом пути выхода.
type ScopeFunc func(ctx context.Context, fn func(database.Executor) error) error

// ManagerScope возвращает ScopeFunc поверх database.WithManager.
func ManagerScope(cfg *config.Config, logger *slog.Logger, opts ...database.Option) ScopeFunc {
	return func(ctx context.Context, fn func(database.Executor) error) error {
		return database.WithManager(ctx, cfg, logger, func(m *database.Manager) error {
			return fn(m)
		}, opts...)
	}
}

// VacancyService — чтение агрегированных данных с кэшированием.
type VacancyService struct {
	scope   ScopeFunc
	cache   *CacheService
	timeout time.Duration
	logger  *slog.Logger
}

// NewVacancyService создаёт сервис чтения.
// timeout ограничивает время одной операции с БД (0 — без ограничения).
func NewVacancyService(scope ScopeFunc, cache *CacheService, timeout time.Duration, logger *slog.Logger) *VacancyService {
	return &VacancyService{
		scope:   scope,
		cache:   cache,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "vacancy_service")),
	}
}

// CompaniesAndVacanciesCount возвращает компании с количеством вакансий.
func (s *VacancyService) CompaniesAndVacanciesCount(ctx context.Context) ([]model.CompanyVacancies, error) {
	return cached(ctx, s, "companies_count", "", (*repository.VacancyRepository).CompaniesAndVacanciesCount)
}

// AllVacancies возвращает все вакансии.
func (s *VacancyService) AllVacancies(ctx context.Context) ([]model.Vacancy, error) {
	return cached(ctx, s, "all_vacancies", "", (*repository.VacancyRepository).AllVacancies)
}

// AverageSalary возвращает среднюю зарплату.
func (s *VacancyService) AverageSalary(ctx context.Context) (float64, error) {
	return cached(ctx, s, "avg_salary", "", (*repository.VacancyRepository).AverageSalary)
}

// VacanciesWithHigherSalary возвращает вакансии с зарплатой выше средней.
func (s *VacancyService) VacanciesWithHigherSalary(ctx context.Context) ([]model.Vacancy, error) {
	return cached(ctx, s, "higher_salary", "", (*repository.VacancyRepository).VacanciesWithHigherSalary)
}

// VacanciesWithKeyword возвращает вакансии с ключевым словом в названии.
func (s *VacancyService) VacanciesWithKeyword(ctx context.Context, keyword string) ([]model.Vacancy, error) {
	return cached(ctx, s, "keyword", keyword, func(r *repository.VacancyRepository, ctx context.Context) ([]model.Vacancy, error) {
		return r.VacanciesWithKeyword(ctx, keyword)
	})
}

// InvalidateCache сбрасывает кэш результатов.
func (s *VacancyService) InvalidateCache() {
	s.cache.Purge()
	s.logger.Info("Кэш результатов сброшен")
}

// cached возвращает результат операции из кэша или выполняет её на
// отдельном соединении и кладёт результат в кэш. Ошибки не кэшируются.
func cached[T any](
	ctx context.Context,
	s *VacancyService,
	operation string,
	arg string,
	fn func(*repository.VacancyRepository, context.Context) (T, error),
) (T, error) {
	key := operation + ":" + arg
	if val, ok := s.cache.Get(key); ok {
		if res, ok := val.(T); ok {
			readTotal.WithLabelValues(operation, "cache").Inc()
			return res, nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	var res T
	err := s.scope(ctx, func(db database.Executor) error {
		var err error
		res, err = fn(repository.NewVacancyRepository(db), ctx)
		return err
	})
	readDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", operation, err)
	}

	readTotal.WithLabelValues(operation, "db").Inc()
	s.cache.Set(key, res)
	return res, nil
}
