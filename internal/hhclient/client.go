// Пакет hhclient — HTTP-клиент публичного API hh.ru.
// Ищет работодателя по названию и выгружает его открытые вакансии с зарплатой.
package hhclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
)

// perPage — максимальный размер страницы API hh.ru.
const perPage = 100

var (
	// ErrUnexpectedStatus — API вернул статус, отличный от 200.
	ErrUnexpectedStatus = errors.New("неожиданный статус ответа hh.ru")
	// ErrEmployerNotFound — по названию не найдено ни одного работодателя.
	ErrEmployerNotFound = errors.New("работодатель не найден")
)

// employersResponse — ответ GET /employers.
type employersResponse struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// vacanciesResponse — ответ GET /vacancies.
type vacanciesResponse struct {
	Items []vacancyItem `json:"items"`
	Pages int           `json:"pages"`
	Page  int           `json:"page"`
}

// vacancyItem — вакансия в выдаче GET /vacancies.
type vacancyItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AlternateURL string `json:"alternate_url"`
	Salary       *struct {
		From *int64 `json:"from"`
		To   *int64 `json:"to"`
	} `json:"salary"`
	Area *struct {
		Name string `json:"name"`
	} `json:"area"`
	PublishedAt string `json:"published_at"`
}

// Client — HTTP-клиент API hh.ru.
type Client struct {
	httpClient *http.Client
	baseURL    string
	area       string
	userAgent  string
	logger     *slog.Logger
}

// New создаёт клиент API hh.ru.
// baseURL — базовый URL API (https://api.hh.ru), area — регион поиска
// (113 — Россия), userAgent — обязательный для hh.ru заголовок User-Agent.
func New(baseURL, area, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		area:       area,
		userAgent:  userAgent,
		logger:     logger.With(slog.String("component", "hh_client")),
	}
}

// EmployerID возвращает идентификатор первого работодателя с открытыми
// вакансиями, найденного по названию.
// GET /employers?text=...&only_with_vacancies=true&per_page=100
func (c *Client) EmployerID(ctx context.Context, name string) (int64, error) {
	params := url.Values{
		"text":                {name},
		"only_with_vacancies": {"true"},
		"per_page":            {strconv.Itoa(perPage)},
	}

	var resp employersResponse
	if err := c.get(ctx, "employers", params, &resp); err != nil {
		return 0, fmt.Errorf("поиск работодателя %q: %w", name, err)
	}
	if len(resp.Items) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrEmployerNotFound, name)
	}

	id, err := strconv.ParseInt(resp.Items[0].ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный id работодателя %q: %w", resp.Items[0].ID, err)
	}

	c.logger.Debug("Получен ID работодателя",
		slog.String("employer", name),
		slog.Int64("employer_id", id),
	)
	return id, nil
}

// VacanciesByEmployer возвращает все открытые вакансии работодателя
// с указанной зарплатой, постранично.
// GET /vacancies?employer_id=...&only_with_salary=true&vacancy_type=open&page=N
func (c *Client) VacanciesByEmployer(ctx context.Context, employerID int64) ([]model.VacancyRecord, error) {
	var result []model.VacancyRecord

	for page := 0; ; page++ {
		params := url.Values{
			"per_page":         {strconv.Itoa(perPage)},
			"employer_id":      {strconv.FormatInt(employerID, 10)},
			"only_with_salary": {"true"},
			"vacancy_type":     {"open"},
			"page":             {strconv.Itoa(page)},
		}

		var resp vacanciesResponse
		if err := c.get(ctx, "vacancies", params, &resp); err != nil {
			return nil, fmt.Errorf("вакансии работодателя %d, страница %d: %w", employerID, page, err)
		}

		for _, item := range resp.Items {
			rec, err := item.record(employerID)
			if err != nil {
				c.logger.Warn("Пропуск вакансии с некорректными данными",
					slog.String("vacancy_id", item.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			result = append(result, rec)
		}

		if resp.Pages-page <= 1 {
			break
		}
	}

	c.logger.Debug("Получены вакансии работодателя",
		slog.Int64("employer_id", employerID),
		slog.Int("count", len(result)),
	)
	return result, nil
}

// record приводит вакансию из ответа API к записи для БД.
// Зарплата — нижняя граница, иначе верхняя; дата — часть published_at до 'T'.
func (v vacancyItem) record(employerID int64) (model.VacancyRecord, error) {
	id, err := strconv.ParseInt(v.ID, 10, 64)
	if err != nil {
		return model.VacancyRecord{}, fmt.Errorf("некорректный id %q: %w", v.ID, err)
	}

	rec := model.VacancyRecord{
		ID:         id,
		Name:       v.Name,
		URL:        v.AlternateURL,
		EmployerID: employerID,
	}
	if v.Salary != nil {
		rec.Salary = v.Salary.From
		if rec.Salary == nil {
			rec.Salary = v.Salary.To
		}
	}
	if v.Area != nil {
		rec.City = v.Area.Name
	}
	if v.PublishedAt != "" {
		day, _, _ := strings.Cut(v.PublishedAt, "T")
		published, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return model.VacancyRecord{}, fmt.Errorf("некорректная дата публикации %q: %w", v.PublishedAt, err)
		}
		rec.PublishedDate = published
	}
	return rec, nil
}

// get выполняет GET-запрос к endpoint с параметрами региона по умолчанию
// и декодирует JSON-ответ в out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params.Get("area") == "" && c.area != "" {
		params.Set("area", c.area)
	}
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		c.logger.Error("Не могу получить данные",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("запрос %s к %s: %w", endpoint, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Не могу получить данные",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("%w: %d для %s", ErrUnexpectedStatus, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", endpoint, err)
	}
	return nil
}
