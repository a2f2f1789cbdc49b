package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// CreateTables выполняет SQL-скрипт из файла path одним пакетом в одной
// транзакции. При успехе транзакция фиксируется, при любой ошибке
// откатывается целиком — частично созданной схемы не остаётся.
func (m *Manager) CreateTables(ctx context.Context, path string) error {
	if m.cursor == nil {
		return ErrNotOpen
	}

	script, err := os.ReadFile(path)
	if err != nil {
		m.logger.Error("Не удалось прочитать скрипт создания таблиц",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: скрипт %q: %w", ErrResourceAccess, path, err)
	}

	if err := m.execScript(ctx, string(script)); err != nil {
		if rbErr := m.cursor.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			m.logger.Warn("Ошибка отката транзакции", slog.String("error", rbErr.Error()))
		}
		m.logger.Error("Ошибка при создании таблиц",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: создание таблиц: %w", ErrQueryExecution, err)
	}

	m.logger.Info("Запросы из файла выполнены", slog.String("path", path))
	return nil
}

// execScript выполняет многооператорный скрипт и фиксирует транзакцию.
// Exec без аргументов идёт через simple protocol, который допускает
// несколько выражений в одном запросе.
func (m *Manager) execScript(ctx context.Context, script string) error {
	tx, err := m.cursor.begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, script); err != nil {
		return err
	}
	return m.cursor.commit(ctx)
}

// Migrate применяет встроенные SQL-миграции через golang-migrate (драйвер pgx5).
// Альтернатива CreateTables для окружений с версионированием схемы.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL("pgx5"))
	if err != nil {
		return fmt.Errorf("%w: инициализация миграций: %w", ErrConnection, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: применение миграций: %w", ErrQueryExecution, err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}
