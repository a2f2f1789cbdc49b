// vacancies.go — обработчики чтения агрегированных данных о вакансиях.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/arinazaikina/hh-vacancy-db/internal/api/errors"
	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
	"github.com/arinazaikina/hh-vacancy-db/internal/repository"
)

// maxKeywordLen — ограничение длины ключевого слова поиска.
const maxKeywordLen = 255

// VacancyReader — операции чтения, которые обслуживают обработчики.
type VacancyReader interface {
	CompaniesAndVacanciesCount(ctx context.Context) ([]model.CompanyVacancies, error)
	AllVacancies(ctx context.Context) ([]model.Vacancy, error)
	AverageSalary(ctx context.Context) (float64, error)
	VacanciesWithHigherSalary(ctx context.Context) ([]model.Vacancy, error)
	VacanciesWithKeyword(ctx context.Context, keyword string) ([]model.Vacancy, error)
	InvalidateCache()
}

// VacancyHandler — обработчик /api/v1/companies и /api/v1/vacancies.
type VacancyHandler struct {
	svc    VacancyReader
	logger *slog.Logger
}

// NewVacancyHandler создаёт обработчик вакансий.
func NewVacancyHandler(svc VacancyReader, logger *slog.Logger) *VacancyHandler {
	return &VacancyHandler{
		svc:    svc,
		logger: logger.With(slog.String("component", "vacancy_handler")),
	}
}

// listResponse — ответ со списком.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type avgSalaryResponse struct {
	AverageSalary float64 `json:"average_salary"`
}

// ListCompanies — GET /api/v1/companies: компании с количеством вакансий.
func (h *VacancyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.CompaniesAndVacanciesCount(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.CompanyVacancies]{Items: items, Total: len(items)})
}

// ListVacancies — GET /api/v1/vacancies: все вакансии.
func (h *VacancyHandler) ListVacancies(w http.ResponseWriter, r *http.Request) {
	h.writeVacancies(w, r, h.svc.AllVacancies)
}

// AverageSalary — GET /api/v1/vacancies/avg-salary.
func (h *VacancyHandler) AverageSalary(w http.ResponseWriter, r *http.Request) {
	avg, err := h.svc.AverageSalary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avgSalaryResponse{AverageSalary: avg})
}

// AboveAverage — GET /api/v1/vacancies/above-average.
func (h *VacancyHandler) AboveAverage(w http.ResponseWriter, r *http.Request) {
	h.writeVacancies(w, r, h.svc.VacanciesWithHigherSalary)
}

// Search — GET /api/v1/vacancies/search?keyword=...
// Поиск по подстроке в названии, с учётом регистра.
func (h *VacancyHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		apierrors.ValidationError(w, "Параметр keyword обязателен")
		return
	}
	if len(keyword) > maxKeywordLen {
		apierrors.ValidationError(w, "Параметр keyword слишком длинный")
		return
	}

	h.writeVacancies(w, r, func(ctx context.Context) ([]model.Vacancy, error) {
		return h.svc.VacanciesWithKeyword(ctx, keyword)
	})
}

// InvalidateCache — POST /api/v1/cache/invalidate: сброс кэша результатов
// после загрузки новых вакансий, не дожидаясь TTL.
func (h *VacancyHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.svc.InvalidateCache()
	h.logger.Info("Кэш сброшен по запросу", slog.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusNoContent)
}

func (h *VacancyHandler) writeVacancies(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]model.Vacancy, error)) {
	items, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.Vacancy]{Items: items, Total: len(items)})
}

// writeError сопоставляет ошибку сервисного слоя HTTP-ответу.
func (h *VacancyHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(w, "Нет вакансий с указанной зарплатой")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("Таймаут запроса к БД", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		apierrors.Timeout(w, "Запрос к базе данных превысил таймаут")
	case errors.Is(err, database.ErrConnection):
		h.logger.Error("БД недоступна", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		apierrors.DBUnavailable(w, "База данных недоступна")
	default:
		h.logger.Error("Ошибка чтения данных", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
