// main.go — точка входа HTTP API агрегированных данных о вакансиях.
// Каждый запрос к данным открывает собственное соединение с PostgreSQL,
// результаты кэшируются в LRU с TTL.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/arinazaikina/hh-vacancy-db/internal/api/handlers"
	"github.com/arinazaikina/hh-vacancy-db/internal/catalog"
	"github.com/arinazaikina/hh-vacancy-db/internal/config"
	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/repository"
	"github.com/arinazaikina/hh-vacancy-db/internal/server"
	"github.com/arinazaikina/hh-vacancy-db/internal/service"
)

func main() {
	// 1. Конфигурация из переменных окружения (и INI-файла, если задан)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Логгер
	logger := config.SetupLogger(cfg)
	logger.Info("API вакансий запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Каталог запросов загружается один раз и разделяется всеми соединениями
	queries := catalog.Default()
	if cfg.QueriesPath != "" {
		queries, err = catalog.Load(cfg.QueriesPath)
		if err != nil {
			logger.Error("Ошибка загрузки каталога запросов", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	dbOpts := []database.Option{database.WithCatalog(queries)}

	// 3.1 Проверка, что каталог содержит все запросы API
	probe, err := database.New(cfg, logger, dbOpts...)
	if err != nil {
		logger.Error("Ошибка инициализации БД", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := repository.NewVacancyRepository(probe).Validate(); err != nil {
		logger.Error("В каталоге не хватает запросов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Схема: миграции по флагу VS_DB_MIGRATE
	if cfg.DBMigrate {
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 5. Сервисы: кэш и чтение с отдельным соединением на запрос
	cache := service.NewCacheService(cfg.CacheMaxSize, cfg.CacheTTL)
	vacancySvc := service.NewVacancyService(
		service.ManagerScope(cfg, logger, dbOpts...),
		cache,
		cfg.QueryTimeout,
		logger,
	)

	// 6. topologymetrics — мониторинг зависимостей (PostgreSQL + hh.ru)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DephealthEnabled {
		startDephealth(ctx, cfg, logger)
	}

	// 7. Обработчики и маршруты
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(cfg, logger, dbOpts...))
	vacancyHandler := handlers.NewVacancyHandler(vacancySvc, logger)
	router := server.NewRouter(logger, healthHandler, vacancyHandler)

	// 8. Запуск сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, router)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("API вакансий остановлен")
}

// startDephealth запускает мониторинг зависимостей. Ошибки не фатальны:
// сервис работает и без метрик зависимостей.
func startDephealth(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	pgDB, err := database.OpenSQLDB(cfg)
	if err != nil {
		logger.Warn("topologymetrics: не удалось подготовить *sql.DB", slog.String("error", err.Error()))
		return
	}

	dephealthSvc, err := service.NewDephealthService("vacancy-api", cfg.DephealthGroup,
		service.DependencyTargets{
			DB:          pgDB,
			PostgresURL: cfg.DatabaseURL("postgres"),
			HHBaseURL:   cfg.HHBaseURL,
		},
		logger,
		service.WithCheckInterval(cfg.DephealthCheckInterval),
	)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		_ = pgDB.Close()
		return
	}

	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		_ = pgDB.Close()
		return
	}

	logger.Info("topologymetrics запущен",
		slog.String("group", cfg.DephealthGroup),
		slog.String("check_interval", cfg.DephealthCheckInterval.String()),
	)

	go func() {
		<-ctx.Done()
		dephealthSvc.Stop()
		_ = pgDB.Close()
	}()
}
