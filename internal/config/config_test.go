package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"VS_DB_HOST": "localhost",
		"VS_DB_NAME": "hh",
		"VS_DB_USER": "postgres",
	}
}

// writeINI записывает INI-файл во временный каталог и возвращает путь.
func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db_config.ini")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("запись INI: %v", err)
	}
	return path
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.QueriesPath != "" {
		t.Errorf("QueriesPath = %q, ожидается пустая строка", cfg.QueriesPath)
	}
	if cfg.SchemaPath != "data/create_tables.sql" {
		t.Errorf("SchemaPath = %q", cfg.SchemaPath)
	}
	if cfg.DBMigrate {
		t.Error("DBMigrate = true, ожидается false")
	}
	if cfg.CompaniesPath != "data/companies.txt" {
		t.Errorf("CompaniesPath = %q", cfg.CompaniesPath)
	}
	if cfg.HHBaseURL != "https://api.hh.ru" {
		t.Errorf("HHBaseURL = %q", cfg.HHBaseURL)
	}
	if cfg.HHArea != "113" {
		t.Errorf("HHArea = %q, ожидается 113", cfg.HHArea)
	}
	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.QueryTimeout != 10*time.Second {
		t.Errorf("QueryTimeout = %v, ожидается 10s", cfg.QueryTimeout)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, ожидается 1m", cfg.CacheTTL)
	}
	if !cfg.DephealthEnabled {
		t.Error("DephealthEnabled = false, ожидается true")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["VS_LOG_LEVEL"] = "debug"
	envs["VS_LOG_FORMAT"] = "text"
	envs["VS_DB_PORT"] = "5433"
	envs["VS_DB_SSL_MODE"] = "require"
	envs["VS_DB_QUERIES"] = "/etc/hh/queries.sql"
	envs["VS_DB_MIGRATE"] = "true"
	envs["VS_HH_BASE_URL"] = "http://hh-mock:8080/"
	envs["VS_CACHE_MAX_SIZE"] = "10"
	envs["VS_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.QueriesPath != "/etc/hh/queries.sql" {
		t.Errorf("QueriesPath = %q", cfg.QueriesPath)
	}
	if !cfg.DBMigrate {
		t.Error("DBMigrate = false, ожидается true")
	}
	if cfg.HHBaseURL != "http://hh-mock:8080" {
		t.Errorf("HHBaseURL = %q, ожидается без завершающего слэша", cfg.HHBaseURL)
	}
	if cfg.CacheMaxSize != 10 {
		t.Errorf("CacheMaxSize = %d, ожидается 10", cfg.CacheMaxSize)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{name: "нет хоста", envs: map[string]string{"VS_DB_HOST": ""}, wantErr: "VS_DB_HOST"},
		{name: "нет базы", envs: map[string]string{"VS_DB_NAME": ""}, wantErr: "VS_DB_NAME"},
		{name: "нет пользователя", envs: map[string]string{"VS_DB_USER": ""}, wantErr: "VS_DB_USER"},
		{name: "некорректный порт", envs: map[string]string{"VS_DB_PORT": "abc"}, wantErr: "VS_DB_PORT"},
		{name: "порт вне диапазона", envs: map[string]string{"VS_DB_PORT": "70000"}, wantErr: "VS_DB_PORT"},
		{name: "некорректный sslmode", envs: map[string]string{"VS_DB_SSL_MODE": "maybe"}, wantErr: "VS_DB_SSL_MODE"},
		{name: "некорректный уровень", envs: map[string]string{"VS_LOG_LEVEL": "trace"}, wantErr: "VS_LOG_LEVEL"},
		{name: "некорректный формат", envs: map[string]string{"VS_LOG_FORMAT": "xml"}, wantErr: "VS_LOG_FORMAT"},
		{name: "некорректный bool", envs: map[string]string{"VS_DB_MIGRATE": "yes-please"}, wantErr: "VS_DB_MIGRATE"},
		{name: "некорректная длительность", envs: map[string]string{"VS_QUERY_TIMEOUT": "10"}, wantErr: "VS_QUERY_TIMEOUT"},
		{name: "нулевой кэш", envs: map[string]string{"VS_CACHE_MAX_SIZE": "0"}, wantErr: "VS_CACHE_MAX_SIZE"},
		{name: "некорректный URL HH", envs: map[string]string{"VS_HH_BASE_URL": "api.hh.ru"}, wantErr: "VS_HH_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			for k, v := range tt.envs {
				envs[k] = v
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() не вернул ошибку")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ошибка %q не содержит %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestLoad_ConfigFile проверяет чтение параметров БД из INI-файла.
func TestLoad_ConfigFile(t *testing.T) {
	path := writeINI(t, `[database]
dbname = hh_vacancies
user = hh
password = secret
host = db.local
port = 6432
queries = data/queries.sql
`)
	setEnvs(t, map[string]string{
		"VS_CONFIG_FILE": path,
		"VS_DB_HOST":     "",
		"VS_DB_NAME":     "",
		"VS_DB_USER":     "",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.DBHost != "db.local" {
		t.Errorf("DBHost = %q, ожидается db.local", cfg.DBHost)
	}
	if cfg.DBPort != 6432 {
		t.Errorf("DBPort = %d, ожидается 6432", cfg.DBPort)
	}
	if cfg.DBName != "hh_vacancies" {
		t.Errorf("DBName = %q", cfg.DBName)
	}
	if cfg.DBUser != "hh" || cfg.DBPassword != "secret" {
		t.Errorf("DBUser/DBPassword = %q/%q", cfg.DBUser, cfg.DBPassword)
	}
	if cfg.QueriesPath != "data/queries.sql" {
		t.Errorf("QueriesPath = %q", cfg.QueriesPath)
	}
}

// TestLoad_EnvOverridesFile проверяет приоритет переменных окружения над INI.
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeINI(t, "[database]\ndbname = from_file\nuser = file_user\nhost = file_host\nport = 6432\n")
	setEnvs(t, map[string]string{
		"VS_CONFIG_FILE": path,
		"VS_DB_HOST":     "env_host",
		"VS_DB_NAME":     "",
		"VS_DB_USER":     "",
		"VS_DB_PORT":     "7000",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBHost != "env_host" {
		t.Errorf("DBHost = %q, ожидается env_host", cfg.DBHost)
	}
	if cfg.DBPort != 7000 {
		t.Errorf("DBPort = %d, ожидается 7000", cfg.DBPort)
	}
	if cfg.DBName != "from_file" {
		t.Errorf("DBName = %q, ожидается from_file", cfg.DBName)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("нет файла", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.ini"))
		if !errors.Is(err, ErrConfigFile) {
			t.Errorf("err = %v, ожидалась ErrConfigFile", err)
		}
	})

	t.Run("нет секции", func(t *testing.T) {
		_, err := LoadFile(writeINI(t, "[other]\nkey = value\n"))
		if !errors.Is(err, ErrConfigFile) {
			t.Errorf("err = %v, ожидалась ErrConfigFile", err)
		}
	})

	t.Run("некорректный порт", func(t *testing.T) {
		_, err := LoadFile(writeINI(t, "[database]\nport = five\n"))
		if !errors.Is(err, ErrConfigFile) {
			t.Errorf("err = %v, ожидалась ErrConfigFile", err)
		}
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:           "localhost",
		DBPort:           5432,
		DBName:           "hh",
		DBUser:           "postgres",
		DBPassword:       "it's secret",
		DBSSLMode:        "disable",
		DBConnectTimeout: 5 * time.Second,
	}

	want := `host=localhost port=5432 dbname=hh user=postgres password='it\'s secret' sslmode=disable connect_timeout=5`
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидалось %q", got, want)
	}

	cfg.DBPassword = ""
	if got := cfg.DatabaseDSN(); !strings.Contains(got, "password='' ") {
		t.Errorf("DatabaseDSN() = %q, ожидался пустой пароль в кавычках", got)
	}
}

// TestDatabaseDSN_ParsesBack — строка подключения разбирается pgx в те же
// значения, включая пробелы и кавычки в имени базы и пользователя.
func TestDatabaseDSN_ParsesBack(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantTimeout time.Duration
	}{
		{
			name:        "пробел в имени базы",
			cfg:         Config{DBHost: "localhost", DBPort: 5432, DBName: "my db", DBUser: "postgres", DBSSLMode: "disable", DBConnectTimeout: 500 * time.Millisecond},
			wantTimeout: time.Second,
		},
		{
			name:        "кавычка и обратная косая в пользователе",
			cfg:         Config{DBHost: "db.local", DBPort: 6432, DBName: "hh", DBUser: `o'neil\x`, DBPassword: "p w", DBSSLMode: "disable", DBConnectTimeout: 2500 * time.Millisecond},
			wantTimeout: 3 * time.Second,
		},
		{
			name:        "нулевой таймаут",
			cfg:         Config{DBHost: "localhost", DBPort: 5432, DBName: "hh", DBUser: "postgres", DBSSLMode: "disable"},
			wantTimeout: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := pgx.ParseConfig(tt.cfg.DatabaseDSN())
			if err != nil {
				t.Fatalf("pgx.ParseConfig() ошибка: %v", err)
			}
			if parsed.Host != tt.cfg.DBHost {
				t.Errorf("Host = %q, ожидался %q", parsed.Host, tt.cfg.DBHost)
			}
			if int(parsed.Port) != tt.cfg.DBPort {
				t.Errorf("Port = %d, ожидался %d", parsed.Port, tt.cfg.DBPort)
			}
			if parsed.Database != tt.cfg.DBName {
				t.Errorf("Database = %q, ожидалось %q", parsed.Database, tt.cfg.DBName)
			}
			if parsed.User != tt.cfg.DBUser {
				t.Errorf("User = %q, ожидался %q", parsed.User, tt.cfg.DBUser)
			}
			if parsed.Password != tt.cfg.DBPassword {
				t.Errorf("Password = %q, ожидался %q", parsed.Password, tt.cfg.DBPassword)
			}
			if parsed.ConnectTimeout != tt.wantTimeout {
				t.Errorf("ConnectTimeout = %v, ожидался %v", parsed.ConnectTimeout, tt.wantTimeout)
			}
		})
	}
}

// TestSetupLogger_KeepsDefault — SetupLogger не подменяет глобальный логгер.
func TestSetupLogger_KeepsDefault(t *testing.T) {
	before := slog.Default()

	logger := SetupLogger(&Config{LogLevel: slog.LevelDebug, LogFormat: "json"})
	if logger == nil {
		t.Fatal("SetupLogger() вернул nil")
	}
	if slog.Default() != before {
		t.Error("SetupLogger() изменил slog.Default()")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("уровень DEBUG не включён")
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5432,
		DBName:     "hh",
		DBUser:     "postgres",
		DBPassword: "p@ss",
		DBSSLMode:  "disable",
	}

	want := "pgx5://postgres:p%40ss@db:5432/hh?sslmode=disable"
	if got := cfg.DatabaseURL("pgx5"); got != want {
		t.Errorf("DatabaseURL() = %q, ожидалось %q", got, want)
	}
}
