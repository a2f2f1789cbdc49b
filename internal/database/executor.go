package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arinazaikina/hh-vacancy-db/internal/catalog"
)

// Prometheus-метрики выполнения запросов.
var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vs_db_queries_total",
			Help: "Общее количество выполненных SQL-запросов.",
		},
		[]string{"mode", "status"},
	)
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vs_db_query_duration_seconds",
			Help:    "Длительность выполнения SQL-запросов в секундах.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
)

// Mode — режим получения результата запроса. Выбирается вызывающим,
// из текста запроса не выводится.
type Mode int

const (
	// ModeNone — результат не возвращается.
	ModeNone Mode = iota
	// ModeOne — первый столбец первой строки; ErrNoRows, если строк нет.
	ModeOne
	// ModeAll — все строки (пустой срез, если строк нет).
	ModeAll
	// ModeMany — не более Request.Limit строк; лишние строки не читаются.
	ModeMany
)

// String возвращает имя режима для логов и метрик.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeOne:
		return "one"
	case ModeAll:
		return "all"
	case ModeMany:
		return "many"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Row — строка результата: упорядоченный набор значений без типизации.
type Row []any

// Request — запрос на выполнение одного SQL-выражения.
type Request struct {
	// Statement — текст запроса с плейсхолдерами $1, $2, ...
	Statement string
	// Params — позиционные параметры; подставляются драйвером, не конкатенацией
	Params []any
	// Mode — режим получения результата
	Mode Mode
	// Limit — максимальное число строк для ModeMany
	Limit int
	// Commit — зафиксировать транзакцию сразу после выполнения
	Commit bool
}

// Result — результат выполнения запроса.
// Scalar заполняется в ModeOne, Rows — в ModeAll и ModeMany.
type Result struct {
	Scalar any
	Rows   []Row
}

// Executor — выполнение запросов и доступ к каталогу.
// Реализуется *Manager.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
	Queries() *catalog.Catalog
}

// Execute выполняет запрос через курсор открытого соединения.
//
// При Commit транзакция фиксируется после выполнения и до формирования
// результата. При ошибке выполнения транзакция откатывается, фиксации нет,
// частичный результат не возвращается.
func (m *Manager) Execute(ctx context.Context, req Request) (Result, error) {
	if m.cursor == nil {
		return Result{}, ErrNotOpen
	}
	if strings.TrimSpace(req.Statement) == "" {
		m.logger.Error("Попытка выполнить пустой запрос", slog.Any("params", req.Params))
		return Result{}, ErrEmptyStatement
	}
	if req.Mode < ModeNone || req.Mode > ModeMany {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidMode, req.Mode)
	}

	mode := req.Mode.String()
	start := time.Now()

	rows, err := m.run(ctx, req)
	queryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		if rbErr := m.cursor.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			m.logger.Warn("Ошибка отката транзакции", slog.String("error", rbErr.Error()))
		}
		queriesTotal.WithLabelValues(mode, "error").Inc()
		m.logger.Error("Ошибка выполнения запроса",
			slog.String("query", req.Statement),
			slog.Any("params", req.Params),
			slog.String("error", err.Error()),
		)
		return Result{}, fmt.Errorf("%w: %w", ErrQueryExecution, err)
	}

	result, err := shape(rows, req)
	if err != nil {
		queriesTotal.WithLabelValues(mode, "error").Inc()
		m.logger.Error("Запрос не вернул ожидаемый результат",
			slog.String("query", req.Statement),
			slog.Any("params", req.Params),
			slog.String("mode", mode),
		)
		return Result{}, err
	}

	queriesTotal.WithLabelValues(mode, "ok").Inc()
	m.logger.Debug("Выполнен запрос",
		slog.String("query", req.Statement),
		slog.Any("params", req.Params),
		slog.String("mode", mode),
		slog.Int("rows", len(rows)),
	)
	return result, nil
}

// run выполняет запрос в транзакции курсора и вычитывает строки (в ModeMany
// не больше Limit), затем при необходимости фиксирует транзакцию.
func (m *Manager) run(ctx context.Context, req Request) ([]Row, error) {
	tx, err := m.cursor.begin(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, req.Statement, req.Params...)
	if err != nil {
		return nil, err
	}

	// В ModeMany чтение прекращается на Limit строках, остаток отбрасывает rows.Close.
	limit := -1
	if req.Mode == ModeMany {
		limit = max(req.Limit, 0)
	}

	collected := make([]Row, 0)
	for (limit < 0 || len(collected) < limit) && rows.Next() {
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			return nil, err
		}
		collected = append(collected, values)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if req.Commit {
		if err := m.cursor.commit(ctx); err != nil {
			return nil, err
		}
	}

	return collected, nil
}

// shape приводит вычитанные строки к форме, заданной режимом.
func shape(rows []Row, req Request) (Result, error) {
	switch req.Mode {
	case ModeNone:
		return Result{}, nil
	case ModeOne:
		if len(rows) == 0 || len(rows[0]) == 0 {
			return Result{}, ErrNoRows
		}
		return Result{Scalar: rows[0][0]}, nil
	case ModeAll:
		return Result{Rows: rows}, nil
	case ModeMany:
		limit := max(req.Limit, 0)
		if len(rows) > limit {
			rows = rows[:limit]
		}
		return Result{Rows: rows}, nil
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidMode, req.Mode)
	}
}

// Exec выполняет запрос без результата.
func (m *Manager) Exec(ctx context.Context, statement string, commit bool, params ...any) error {
	_, err := m.Execute(ctx, Request{Statement: statement, Params: params, Mode: ModeNone, Commit: commit})
	return err
}

// QueryOne возвращает первый столбец первой строки.
func (m *Manager) QueryOne(ctx context.Context, statement string, params ...any) (any, error) {
	res, err := m.Execute(ctx, Request{Statement: statement, Params: params, Mode: ModeOne})
	if err != nil {
		return nil, err
	}
	return res.Scalar, nil
}

// QueryAll возвращает все строки результата.
func (m *Manager) QueryAll(ctx context.Context, statement string, params ...any) ([]Row, error) {
	res, err := m.Execute(ctx, Request{Statement: statement, Params: params, Mode: ModeAll})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// QueryMany возвращает не более limit строк результата.
func (m *Manager) QueryMany(ctx context.Context, limit int, statement string, params ...any) ([]Row, error) {
	res, err := m.Execute(ctx, Request{Statement: statement, Params: params, Mode: ModeMany, Limit: limit})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}
