// Пакет database — единственное соединение с PostgreSQL (pgx), его жизненный
// цикл, выполнение параметризованных запросов и создание схемы.
//
// Manager рассчитан на одного последовательного вызывающего: пула соединений
// и блокировок нет. Для конкурентного доступа каждый вызывающий открывает
// собственный Manager через WithManager.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/arinazaikina/hh-vacancy-db/internal/catalog"
	"github.com/arinazaikina/hh-vacancy-db/internal/config"
)

// Conn — операции соединения, которые использует Manager.
// Реализуется *pgx.Conn (и pgxmock в тестах).
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// DialFunc устанавливает соединение по DSN.
type DialFunc func(ctx context.Context, dsn string) (Conn, error)

// pgxDial — DialFunc по умолчанию через pgx.Connect.
func pgxDial(ctx context.Context, dsn string) (Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Option — опция конструктора Manager.
type Option func(*Manager)

// WithDialer подменяет способ установки соединения.
func WithDialer(dial DialFunc) Option {
	return func(m *Manager) {
		m.dial = dial
	}
}

// WithCatalog задаёт готовый каталог запросов вместо загрузки по cfg.QueriesPath.
func WithCatalog(c *catalog.Catalog) Option {
	return func(m *Manager) {
		m.queries = c
	}
}

// Manager владеет одним соединением и одним курсором.
// Инвариант: cursor != nil только при conn != nil.
type Manager struct {
	dsn     string
	dial    DialFunc
	queries *catalog.Catalog
	logger  *slog.Logger

	conn   Conn
	cursor *cursor
}

// New создаёт Manager. Каталог запросов загружается один раз здесь:
// из cfg.QueriesPath или встроенный, если путь пуст.
// Соединение не открывается — см. Open и WithManager.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		dsn:    cfg.DatabaseDSN(),
		dial:   pgxDial,
		logger: logger.With(slog.String("component", "database")),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.queries == nil {
		if cfg.QueriesPath == "" {
			m.queries = catalog.Default()
		} else {
			queries, err := catalog.Load(cfg.QueriesPath)
			if err != nil {
				m.logger.Error("Не удалось загрузить каталог запросов",
					slog.String("path", cfg.QueriesPath),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
			m.queries = queries
		}
	}

	m.logger.Debug("Каталог запросов загружен", slog.Int("queries", m.queries.Len()))
	return m, nil
}

// Queries возвращает каталог запросов.
func (m *Manager) Queries() *catalog.Catalog {
	return m.queries
}

// IsOpen сообщает, открыто ли соединение.
func (m *Manager) IsOpen() bool {
	return m.cursor != nil
}

// Open устанавливает соединение и создаёт курсор.
// Курсор создаётся только после успешного подключения; при ошибке
// ничего не остаётся открытым.
func (m *Manager) Open(ctx context.Context) error {
	if m.conn != nil {
		return nil
	}

	conn, err := m.dial(ctx, m.dsn)
	if err != nil {
		m.logger.Error("Не удалось подключиться к базе данных", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		m.logger.Error("Не удалось подключиться к базе данных", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	m.conn = conn
	m.cursor = &cursor{conn: conn}
	m.logger.Info("Успешное подключение к БД")
	return nil
}

// Close закрывает курсор, затем соединение. Каждый шаг выполняется,
// только если ресурс существует, поэтому Close безопасен после неудачного
// Open и при повторном вызове.
// Незафиксированная транзакция курсора откатывается.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error

	if m.cursor != nil {
		if err := m.cursor.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("закрытие курсора: %w", err))
		}
		m.cursor = nil
		m.logger.Info("Курсор закрыт")
	}

	if m.conn != nil {
		if err := m.conn.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("закрытие соединения: %w", err))
		}
		m.conn = nil
		m.logger.Info("Соединение с БД закрыто")
	}

	err := errors.Join(errs...)
	if err != nil {
		m.logger.Error("Ошибка при закрытии соединения", slog.String("error", err.Error()))
	}
	return err
}

// Run открывает соединение, выполняет fn и закрывает соединение на любом
// пути выхода: обычный возврат, ошибка fn или паника.
func (m *Manager) Run(ctx context.Context, fn func(*Manager) error) (err error) {
	if err := m.Open(ctx); err != nil {
		return err
	}
	defer func() {
		// Контекст вызывающего может быть уже отменён — закрываем с чистым.
		if closeErr := m.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(m)
}

// WithManager создаёт Manager, открывает соединение на время fn и закрывает его.
func WithManager(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	fn func(*Manager) error,
	opts ...Option,
) error {
	m, err := New(cfg, logger, opts...)
	if err != nil {
		return err
	}
	return m.Run(ctx, fn)
}

// Ping проверяет, что соединение живо.
func (m *Manager) Ping(ctx context.Context) error {
	if m.conn == nil {
		return ErrNotOpen
	}
	if err := m.conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// cursor держит неявную транзакцию соединения: она начинается первым
// запросом и завершается commit, rollback или закрытием курсора.
type cursor struct {
	conn Conn
	tx   pgx.Tx
}

// begin возвращает текущую транзакцию, начиная новую при необходимости.
func (c *cursor) begin(ctx context.Context) (pgx.Tx, error) {
	if c.tx != nil {
		return c.tx, nil
	}
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	c.tx = tx
	return tx, nil
}

// commit фиксирует текущую транзакцию (no-op, если её нет).
func (c *cursor) commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

// rollback откатывает текущую транзакцию (no-op, если её нет).
func (c *cursor) rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback(ctx)
}

// close освобождает курсор: незафиксированные изменения откатываются.
func (c *cursor) close(ctx context.Context) error {
	return c.rollback(ctx)
}
