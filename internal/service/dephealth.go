// dephealth.go — мониторинг зависимостей API вакансий через topologymetrics SDK.
//
// Граф зависимостей vacancy-api:
//   - postgresql — SQL-проверка через *sql.DB поверх pgx, critical
//   - hh-api — HTTP-проверка публичного справочника hh.ru, не critical:
//     чтение агрегатов из БД от hh.ru не зависит, страдает только загрузка
//
// Метрики app_dependency_* публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // фабрика HTTP checker
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// hhDictionariesPath — дешёвый endpoint hh.ru без авторизации.
const hhDictionariesPath = "/dictionaries"

// ErrNoPostgres — не передан *sql.DB для проверки PostgreSQL.
var ErrNoPostgres = errors.New("не задано подключение PostgreSQL для мониторинга")

// DependencyTargets — что именно проверяет мониторинг.
type DependencyTargets struct {
	// DB — пул database/sql из database.OpenSQLDB.
	DB *sql.DB
	// PostgresURL попадает только в лейблы host/port метрик.
	PostgresURL string
	// HHBaseURL — пусто, если hh.ru не мониторится.
	HHBaseURL string
}

// DephealthOption настраивает DephealthService.
type DephealthOption func(*dephealthSettings)

type dephealthSettings struct {
	interval   time.Duration
	registerer prometheus.Registerer
}

// WithCheckInterval задаёт период проверок (VS_DEPHEALTH_CHECK_INTERVAL).
func WithCheckInterval(d time.Duration) DephealthOption {
	return func(s *dephealthSettings) { s.interval = d }
}

// WithRegisterer подменяет глобальный Prometheus registry (в тестах).
func WithRegisterer(r prometheus.Registerer) DephealthOption {
	return func(s *dephealthSettings) { s.registerer = r }
}

// DephealthService — периодическая проверка PostgreSQL и hh.ru.
type DephealthService struct {
	dh     *dephealth.DepHealth
	deps   []string
	logger *slog.Logger
}

// NewDephealthService регистрирует зависимости vacancy-api в topologymetrics.
// serviceID — вершина графа, group — VS_DEPHEALTH_GROUP.
func NewDephealthService(
	serviceID, group string,
	targets DependencyTargets,
	logger *slog.Logger,
	opts ...DephealthOption,
) (*DephealthService, error) {
	if targets.DB == nil {
		return nil, ErrNoPostgres
	}

	settings := dephealthSettings{interval: 15 * time.Second}
	for _, opt := range opts {
		opt(&settings)
	}

	dhOpts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(targets.DB)),
			dephealth.FromURL(targets.PostgresURL),
			dephealth.CheckInterval(settings.interval),
			dephealth.Critical(true),
		),
	}
	deps := []string{"postgresql"}

	if targets.HHBaseURL != "" {
		dhOpts = append(dhOpts, dephealth.HTTP("hh-api",
			dephealth.FromURL(targets.HHBaseURL),
			dephealth.WithHTTPHealthPath(hhDictionariesPath),
			dephealth.CheckInterval(settings.interval),
			dephealth.Critical(false),
		))
		deps = append(deps, "hh-api")
	}
	if settings.registerer != nil {
		dhOpts = append(dhOpts, dephealth.WithRegisterer(settings.registerer))
	}

	dh, err := dephealth.New(serviceID, group, dhOpts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		deps:   deps,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Dependencies — имена зарегистрированных зависимостей.
func (ds *DephealthService) Dependencies() []string {
	return ds.deps
}

// Start запускает проверки в фоне.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен", slog.Any("dependencies", ds.deps))
	return ds.dh.Start(ctx)
}

func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health — состояние по имени зависимости, true означает ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
