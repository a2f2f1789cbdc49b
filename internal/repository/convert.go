package repository

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Драйвер возвращает значения в типах PostgreSQL: INTEGER — int32,
// COUNT(*) — int64, AVG — pgtype.Numeric, NULL — nil.

// asInt64 приводит целочисленное значение столбца к int64.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	case pgtype.Numeric:
		i, err := n.Int64Value()
		if err != nil || !i.Valid {
			return 0, fmt.Errorf("%w: numeric %v", ErrUnexpectedValue, v)
		}
		return i.Int64, nil
	default:
		return 0, fmt.Errorf("%w: %T вместо целого", ErrUnexpectedValue, v)
	}
}

// asNullInt64 — asInt64 с поддержкой NULL.
func asNullInt64(v any) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	n, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// asFloat64 приводит числовое значение к float64; NULL — ErrNotFound.
func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, ErrNotFound
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case pgtype.Numeric:
		if !n.Valid {
			return 0, ErrNotFound
		}
		f, err := n.Float64Value()
		if err != nil {
			return 0, fmt.Errorf("%w: numeric: %w", ErrUnexpectedValue, err)
		}
		return f.Float64, nil
	default:
		i, err := asInt64(v)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
}

// asString приводит текстовое значение к string; NULL — пустая строка.
func asString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %T вместо строки", ErrUnexpectedValue, v)
	}
}

// asBool приводит значение EXISTS к bool.
func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %T вместо bool", ErrUnexpectedValue, v)
	}
	return b, nil
}

// asDate оставляет от времени только дату.
func asDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
