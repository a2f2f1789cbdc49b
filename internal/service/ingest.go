// ingest.go — загрузка компаний и вакансий с hh.ru в БД.
// Повторный запуск не создаёт дубликатов: существующие записи пропускаются.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
)

// Prometheus-метрики загрузки.
var ingestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vs_ingest_records_total",
	Help: "Количество обработанных при загрузке записей по типу и результату.",
}, []string{"kind", "result"})

// VacancySource — источник данных о работодателях и вакансиях (hh.ru).
type VacancySource interface {
	EmployerID(ctx context.Context, name string) (int64, error)
	VacanciesByEmployer(ctx context.Context, employerID int64) ([]model.VacancyRecord, error)
}

// VacancyStore — операции записи компаний и вакансий в БД.
type VacancyStore interface {
	CompanyExists(ctx context.Context, name string) (bool, error)
	AddCompany(ctx context.Context, c model.Company) error
	CompanyIDs(ctx context.Context) ([]int64, error)
	VacancyExists(ctx context.Context, id int64) (bool, error)
	AddVacancy(ctx context.Context, rec model.VacancyRecord) error
}

// IngestReport — итоги одного запуска загрузки.
type IngestReport struct {
	// RunID — идентификатор запуска (для корреляции логов)
	RunID string
	// CompaniesAdded — добавлено компаний
	CompaniesAdded int
	// CompaniesSkipped — компании уже были в БД
	CompaniesSkipped int
	// CompaniesFailed — компании, для которых hh.ru не вернул данные
	CompaniesFailed int
	// VacanciesAdded — добавлено вакансий
	VacanciesAdded int
	// VacanciesSkipped — вакансии уже были в БД
	VacanciesSkipped int
	// Duration — длительность запуска
	Duration time.Duration
}

// IngestService — загрузка данных hh.ru в БД.
// Ошибки hh.ru по отдельной компании логируются и не прерывают загрузку,
// ошибки БД прерывают её.
type IngestService struct {
	source VacancySource
	store  VacancyStore
	logger *slog.Logger
}

// NewIngestService создаёт сервис загрузки.
func NewIngestService(source VacancySource, store VacancyStore, logger *slog.Logger) *IngestService {
	return &IngestService{
		source: source,
		store:  store,
		logger: logger.With(slog.String("component", "ingest_service")),
	}
}

// Run добавляет отсутствующие компании из списка, затем для каждой компании
// в БД загружает её вакансии и добавляет отсутствующие.
func (s *IngestService) Run(ctx context.Context, companies []string) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{RunID: uuid.NewString()}
	logger := s.logger.With(slog.String("run_id", report.RunID))

	logger.Info("Загрузка запущена", slog.Int("companies", len(companies)))

	if err := s.addCompanies(ctx, logger, companies, report); err != nil {
		return report, err
	}

	ids, err := s.store.CompanyIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("список компаний в БД: %w", err)
	}

	for _, id := range ids {
		if err := s.addVacancies(ctx, logger, id, report); err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	logger.Info("Загрузка завершена",
		slog.Int("companies_added", report.CompaniesAdded),
		slog.Int("companies_skipped", report.CompaniesSkipped),
		slog.Int("companies_failed", report.CompaniesFailed),
		slog.Int("vacancies_added", report.VacanciesAdded),
		slog.Int("vacancies_skipped", report.VacanciesSkipped),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// addCompanies добавляет компании, которых ещё нет в БД.
// Работодатель, уже сохранённый под другим названием, пропускается.
func (s *IngestService) addCompanies(ctx context.Context, logger *slog.Logger, companies []string, report *IngestReport) error {
	existing, err := s.store.CompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("список компаний в БД: %w", err)
	}
	known := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}

	for _, name := range companies {
		exists, err := s.store.CompanyExists(ctx, name)
		if err != nil {
			return fmt.Errorf("проверка компании %q: %w", name, err)
		}
		if exists {
			logger.Debug("Компания уже есть в БД", slog.String("company", name))
			report.CompaniesSkipped++
			ingestRecordsTotal.WithLabelValues("company", "skipped").Inc()
			continue
		}

		id, err := s.source.EmployerID(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn("Не удалось получить работодателя",
				slog.String("company", name),
				slog.String("error", err.Error()),
			)
			report.CompaniesFailed++
			ingestRecordsTotal.WithLabelValues("company", "failed").Inc()
			continue
		}

		if _, ok := known[id]; ok {
			logger.Warn("Работодатель уже сохранён под другим названием",
				slog.String("company", name),
				slog.Int64("employer_id", id),
			)
			report.CompaniesSkipped++
			ingestRecordsTotal.WithLabelValues("company", "skipped").Inc()
			continue
		}

		if err := s.store.AddCompany(ctx, model.Company{ID: id, Name: name}); err != nil {
			return fmt.Errorf("добавление компании %q: %w", name, err)
		}
		known[id] = struct{}{}
		report.CompaniesAdded++
		ingestRecordsTotal.WithLabelValues("company", "added").Inc()
		logger.Info("Компания добавлена", slog.String("company", name), slog.Int64("employer_id", id))
	}
	return nil
}

// addVacancies загружает вакансии работодателя и добавляет отсутствующие.
func (s *IngestService) addVacancies(ctx context.Context, logger *slog.Logger, employerID int64, report *IngestReport) error {
	vacancies, err := s.source.VacanciesByEmployer(ctx, employerID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Warn("Не удалось получить вакансии работодателя",
			slog.Int64("employer_id", employerID),
			slog.String("error", err.Error()),
		)
		report.CompaniesFailed++
		ingestRecordsTotal.WithLabelValues("company", "failed").Inc()
		return nil
	}

	for _, rec := range vacancies {
		exists, err := s.store.VacancyExists(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("проверка вакансии %d: %w", rec.ID, err)
		}
		if exists {
			report.VacanciesSkipped++
			ingestRecordsTotal.WithLabelValues("vacancy", "skipped").Inc()
			continue
		}
		if err := s.store.AddVacancy(ctx, rec); err != nil {
			return fmt.Errorf("добавление вакансии %d: %w", rec.ID, err)
		}
		report.VacanciesAdded++
		ingestRecordsTotal.WithLabelValues("vacancy", "added").Inc()
	}

	logger.Debug("Вакансии работодателя обработаны",
		slog.Int64("employer_id", employerID),
		slog.Int("received", len(vacancies)),
	)
	return nil
}
