package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/arinazaikina/hh-vacancy-db/internal/config"
	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер и создаёт таблицы скриптом
// из data/create_tables.sql.
func setupTestDB(t *testing.T) (*config.Config, *slog.Logger) {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("hh_test"),
		postgres.WithUsername("hh"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("VS_DB_HOST", host)
	t.Setenv("VS_DB_PORT", port.Port())
	t.Setenv("VS_DB_NAME", "hh_test")
	t.Setenv("VS_DB_USER", "hh")
	t.Setenv("VS_DB_PASSWORD", "test-password")
	t.Setenv("VS_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err = database.WithManager(ctx, cfg, logger, func(m *database.Manager) error {
		return m.CreateTables(ctx, "../../data/create_tables.sql")
	})
	if err != nil {
		t.Fatalf("Ошибка создания таблиц: %v", err)
	}

	return cfg, logger
}

// TestIntegration_Facade проверяет полный цикл: загрузка компаний и вакансий,
// затем все агрегирующие запросы.
func TestIntegration_Facade(t *testing.T) {
	cfg, logger := setupTestDB(t)
	ctx := context.Background()

	err := database.WithManager(ctx, cfg, logger, func(m *database.Manager) error {
		repo := NewVacancyRepository(m)

		if _, err := repo.AverageSalary(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("AverageSalary() на пустой таблице: err = %v, ожидалась ErrNotFound", err)
		}

		for _, c := range []model.Company{{ID: 1740, Name: "Яндекс"}, {ID: 3529, Name: "Сбер"}, {ID: 78638, Name: "Тинькофф"}} {
			if err := repo.AddCompany(ctx, c); err != nil {
				return err
			}
		}

		published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		records := []model.VacancyRecord{
			{ID: 1, Name: "Python-разработчик", URL: "https://hh.ru/vacancy/1", Salary: int64Ptr(100000), City: "Москва", PublishedDate: published, EmployerID: 1740},
			{ID: 2, Name: "python-стажёр", URL: "https://hh.ru/vacancy/2", Salary: int64Ptr(50000), City: "Москва", PublishedDate: published, EmployerID: 1740},
			{ID: 3, Name: "Аналитик", URL: "https://hh.ru/vacancy/3", Salary: int64Ptr(300000), City: "Санкт-Петербург", PublishedDate: published, EmployerID: 3529},
			{ID: 4, Name: "Тестировщик", URL: "https://hh.ru/vacancy/4", City: "Казань", PublishedDate: published, EmployerID: 3529},
		}
		for _, rec := range records {
			if err := repo.AddVacancy(ctx, rec); err != nil {
				return err
			}
		}

		exists, err := repo.CompanyExists(ctx, "Яндекс")
		if err != nil || !exists {
			t.Errorf("CompanyExists(Яндекс) = (%v, %v)", exists, err)
		}
		exists, err = repo.VacancyExists(ctx, 99)
		if err != nil || exists {
			t.Errorf("VacancyExists(99) = (%v, %v)", exists, err)
		}

		ids, err := repo.CompanyIDs(ctx)
		if err != nil {
			return err
		}
		if len(ids) != 3 {
			t.Errorf("CompanyIDs() = %v, ожидалось 3 id", ids)
		}

		counts, err := repo.CompaniesAndVacanciesCount(ctx)
		if err != nil {
			return err
		}
		byName := make(map[string]int64, len(counts))
		for _, c := range counts {
			byName[c.Company] = c.Count
		}
		if byName["Яндекс"] != 2 || byName["Сбер"] != 2 || byName["Тинькофф"] != 0 || len(byName) != 3 {
			t.Errorf("CompaniesAndVacanciesCount() = %v", counts)
		}

		all, err := repo.AllVacancies(ctx)
		if err != nil {
			return err
		}
		if len(all) != 4 {
			t.Errorf("AllVacancies() вернул %d вакансий, ожидалось 4", len(all))
		}

		avg, err := repo.AverageSalary(ctx)
		if err != nil {
			return err
		}
		if avg != 150000 {
			t.Errorf("AverageSalary() = %v, ожидалось 150000", avg)
		}

		higher, err := repo.VacanciesWithHigherSalary(ctx)
		if err != nil {
			return err
		}
		if len(higher) != 1 || higher[0].Title != "Аналитик" {
			t.Errorf("VacanciesWithHigherSalary() = %+v", higher)
		}

		// LIKE чувствителен к регистру: "python-стажёр" не совпадает.
		found, err := repo.VacanciesWithKeyword(ctx, "Python")
		if err != nil {
			return err
		}
		if len(found) != 1 || found[0].Title != "Python-разработчик" {
			t.Errorf("VacanciesWithKeyword(Python) = %+v", found)
		}

		none, err := repo.VacanciesWithKeyword(ctx, "'; DROP TABLE vacancies; --")
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Errorf("враждебное ключевое слово вернуло %d вакансий", len(none))
		}

		return nil
	})
	if err != nil {
		t.Fatalf("ошибка: %v", err)
	}
}
