// Пакет config — загрузка и валидация конфигурации загрузчика вакансий
// и read-only API из переменных окружения и (опционально) INI-файла.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации.
// После Load не изменяется.
type Config struct {
	// --- Логирование ---

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Таймаут установки соединения
	DBConnectTimeout time.Duration
	// Путь к каталогу SQL-запросов (пустая строка — встроенный каталог)
	QueriesPath string
	// Путь к SQL-скрипту создания таблиц
	SchemaPath string
	// Применять встроенные миграции golang-migrate вместо SQL-скрипта
	DBMigrate bool

	// --- Загрузка вакансий ---

	// Путь к файлу со списком компаний
	CompaniesPath string
	// Базовый URL API HeadHunter
	HHBaseURL string
	// Регион поиска (113 — Россия)
	HHArea string
	// User-Agent для запросов к API HeadHunter
	HHUserAgent string
	// Таймаут HTTP-запросов к API HeadHunter
	HHTimeout time.Duration

	// --- HTTP API ---

	// Порт HTTP-сервера
	Port int
	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Таймаут выполнения одного запроса к БД из HTTP-обработчика
	QueryTimeout time.Duration
	// Максимальное количество записей в кэше результатов
	CacheMaxSize int
	// Время жизни записи кэша результатов
	CacheTTL time.Duration

	// --- Мониторинг зависимостей ---

	// Включить мониторинг зависимостей (topologymetrics)
	DephealthEnabled bool
	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию.
// Если задана VS_CONFIG_FILE, параметры БД сначала читаются из INI-файла,
// затем переопределяются переменными окружения.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// VS_CONFIG_FILE — INI-файл с секцией [database] (опционально)
	file := FileValues{}
	if path := os.Getenv("VS_CONFIG_FILE"); path != "" {
		file, err = LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("VS_CONFIG_FILE: %w", err)
		}
	}

	// --- Логирование ---

	// VS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("VS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("VS_LOG_LEVEL: %w", err)
	}

	// VS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("VS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("VS_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// VS_DB_HOST — обязательный (или host в INI)
	cfg.DBHost, err = getEnvRequired("VS_DB_HOST", file.get("host"))
	if err != nil {
		return nil, err
	}

	// VS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("VS_DB_PORT", file.getInt("port", 5432))
	if err != nil {
		return nil, fmt.Errorf("VS_DB_PORT: %w", err)
	}
	if cfg.DBPort < 1 || cfg.DBPort > 65535 {
		return nil, fmt.Errorf("VS_DB_PORT: значение %d вне допустимого диапазона 1-65535", cfg.DBPort)
	}

	// VS_DB_NAME — обязательный (или dbname в INI)
	cfg.DBName, err = getEnvRequired("VS_DB_NAME", file.get("dbname"))
	if err != nil {
		return nil, err
	}

	// VS_DB_USER — обязательный (или user в INI)
	cfg.DBUser, err = getEnvRequired("VS_DB_USER", file.get("user"))
	if err != nil {
		return nil, err
	}

	// VS_DB_PASSWORD — пароль (может быть пустым при trust-аутентификации)
	cfg.DBPassword = getEnvDefault("VS_DB_PASSWORD", file.get("password"))

	// VS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("VS_DB_SSL_MODE", file.getDefault("sslmode", "disable"))
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("VS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// VS_DB_CONNECT_TIMEOUT — таймаут подключения (по умолчанию 10s)
	cfg.DBConnectTimeout, err = getEnvDuration("VS_DB_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_DB_CONNECT_TIMEOUT: %w", err)
	}

	// VS_DB_QUERIES — каталог запросов (по умолчанию встроенный)
	cfg.QueriesPath = getEnvDefault("VS_DB_QUERIES", file.get("queries"))

	// VS_DB_SCHEMA — скрипт создания таблиц
	cfg.SchemaPath = getEnvDefault("VS_DB_SCHEMA", file.getDefault("schema", "data/create_tables.sql"))

	// VS_DB_MIGRATE — golang-migrate вместо скрипта (по умолчанию false)
	cfg.DBMigrate, err = getEnvBool("VS_DB_MIGRATE", false)
	if err != nil {
		return nil, fmt.Errorf("VS_DB_MIGRATE: %w", err)
	}

	// --- Загрузка вакансий ---

	// VS_COMPANIES_FILE — список компаний (по умолчанию data/companies.txt)
	cfg.CompaniesPath = getEnvDefault("VS_COMPANIES_FILE", "data/companies.txt")

	// VS_HH_BASE_URL — API HeadHunter (по умолчанию https://api.hh.ru)
	cfg.HHBaseURL = strings.TrimRight(getEnvDefault("VS_HH_BASE_URL", "https://api.hh.ru"), "/")
	if _, err := url.ParseRequestURI(cfg.HHBaseURL); err != nil {
		return nil, fmt.Errorf("VS_HH_BASE_URL: некорректный URL %q", cfg.HHBaseURL)
	}

	// VS_HH_AREA — регион поиска (по умолчанию 113)
	cfg.HHArea = getEnvDefault("VS_HH_AREA", "113")

	// VS_HH_USER_AGENT — User-Agent (API HH отклоняет запросы без него)
	cfg.HHUserAgent = getEnvDefault("VS_HH_USER_AGENT", "hh-vacancy-db/"+Version)

	// VS_HH_TIMEOUT — таймаут запросов к API HH (по умолчанию 30s)
	cfg.HHTimeout, err = getEnvDuration("VS_HH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_HH_TIMEOUT: %w", err)
	}

	// --- HTTP API ---

	// VS_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("VS_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("VS_PORT: %w", err)
	}

	// VS_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("VS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_HTTP_READ_TIMEOUT: %w", err)
	}

	// VS_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("VS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// VS_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("VS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// VS_QUERY_TIMEOUT — таймаут запроса к БД (по умолчанию 10s)
	cfg.QueryTimeout, err = getEnvDuration("VS_QUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_QUERY_TIMEOUT: %w", err)
	}

	// VS_CACHE_MAX_SIZE — размер кэша результатов (по умолчанию 256)
	cfg.CacheMaxSize, err = getEnvInt("VS_CACHE_MAX_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("VS_CACHE_MAX_SIZE: %w", err)
	}
	if cfg.CacheMaxSize < 1 {
		return nil, fmt.Errorf("VS_CACHE_MAX_SIZE: значение должно быть > 0")
	}

	// VS_CACHE_TTL — время жизни записи кэша (по умолчанию 1m)
	cfg.CacheTTL, err = getEnvDuration("VS_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("VS_CACHE_TTL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// VS_DEPHEALTH_ENABLED — мониторинг зависимостей (по умолчанию true)
	cfg.DephealthEnabled, err = getEnvBool("VS_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("VS_DEPHEALTH_ENABLED: %w", err)
	}

	// VS_DEPHEALTH_GROUP — группа в метриках (по умолчанию hh-vacancy-db)
	cfg.DephealthGroup = getEnvDefault("VS_DEPHEALTH_GROUP", "hh-vacancy-db")

	// VS_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("VS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// VS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("VS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL для pgx.
// connect_timeout в libpq целый и 0 означает "без таймаута",
// поэтому доли секунды округляются вверх, минимум до 1.
func (c *Config) DatabaseDSN() string {
	timeout := max(1, int(math.Ceil(c.DBConnectTimeout.Seconds())))
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		quoteDSNValue(c.DBHost), c.DBPort, quoteDSNValue(c.DBName), quoteDSNValue(c.DBUser),
		quoteDSNValue(c.DBPassword), quoteDSNValue(c.DBSSLMode), timeout,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL со схемой scheme
// (postgres для метрик dephealth, pgx5 для golang-migrate).
func (c *Config) DatabaseURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger создаёт slog-логгер по конфигурации. Глобальный логгер не
// меняется: логгер передаётся компонентам явно.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// --- Вспомогательные функции ---

// quoteDSNValue экранирует значение для формата key=value libpq.
func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// getEnvRequired возвращает значение переменной окружения, затем fallbackVal,
// или ошибку, если оба пусты.
func getEnvRequired(key, fallbackVal string) (string, error) {
	val := getEnvDefault(key, fallbackVal)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
