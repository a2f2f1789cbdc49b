// main.go — загрузка вакансий с hh.ru в PostgreSQL.
// Порядок: конфигурация → соединение → создание таблиц → компании → вакансии.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/hhclient"
	"github.com/arinazaikina/hh-vacancy-db/internal/repository"
	"github.com/arinazaikina/hh-vacancy-db/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Загрузка вакансий запускается",
		slog.String("version", config.Version),
		slog.String("companies", cfg.CompaniesPath),
	)

	// Прерывание по SIGINT/SIGTERM отменяет контекст; соединение закрывается
	// в WithManager на любом пути выхода.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Загрузка завершилась с ошибкой", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	companies, err := service.ReadCompanies(cfg.CompaniesPath)
	if err != nil {
		return err
	}

	if cfg.DBMigrate {
		if err := database.Migrate(cfg, logger); err != nil {
			return err
		}
	}

	hh := hhclient.New(cfg.HHBaseURL, cfg.HHArea, cfg.HHUserAgent, cfg.HHTimeout, logger)

	return database.WithManager(ctx, cfg, logger, func(m *database.Manager) error {
		if !cfg.DBMigrate {
			if err := m.CreateTables(ctx, cfg.SchemaPath); err != nil {
				return err
			}
		}

		repo := repository.NewVacancyRepository(m)
		if err := repo.Validate(); err != nil {
			return err
		}

		report, err := service.NewIngestService(hh, repo, logger).Run(ctx, companies)
		if err != nil {
			return err
		}

		logger.Info("Итоги загрузки",
			slog.String("run_id", report.RunID),
			slog.Int("companies_added", report.CompaniesAdded),
			slog.Int("vacancies_added", report.VacanciesAdded),
		)
		return nil
	})
}
