package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
)

// ReadinessChecker — проверка готовности PostgreSQL для health endpoint.
// Каждая проверка открывает и закрывает собственное соединение.
type ReadinessChecker struct {
	cfg     *config.Config
	logger  *slog.Logger
	opts    []Option
	timeout time.Duration
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(cfg *config.Config, logger *slog.Logger, opts ...Option) *ReadinessChecker {
	return &ReadinessChecker{
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
		timeout: 3 * time.Second,
	}
}

// CheckReady проверяет подключение к PostgreSQL через ping.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := WithManager(ctx, c.cfg, c.logger, func(m *Manager) error {
		return m.Ping(ctx)
	}, c.opts...)
	if err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	return "ok", "подключение активно"
}

// OpenSQLDB возвращает *sql.DB поверх pgx для проверок topologymetrics.
// Не больше одного соединения, без простаивающих: каждая проверка
// подключается заново, как и обработчики запросов.
func OpenSQLDB(cfg *config.Config) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: разбор DSN: %w", ErrConnection, err)
	}
	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
	return db, nil
}
