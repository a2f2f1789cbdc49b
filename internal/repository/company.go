package repository

import (
	"context"
	"fmt"

	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
)

// CompanyExists проверяет, есть ли компания с таким названием.
func (r *VacancyRepository) CompanyExists(ctx context.Context, name string) (bool, error) {
	v, err := r.queryOne(ctx, queryCompanyExists, name)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// AddCompany добавляет компанию и фиксирует транзакцию.
func (r *VacancyRepository) AddCompany(ctx context.Context, c model.Company) error {
	return r.exec(ctx, queryAddCompany, c.ID, c.Name)
}

// CompanyIDs возвращает идентификаторы всех сохранённых компаний.
func (r *VacancyRepository) CompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.queryAll(ctx, queryCompanyIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("%s: строка %d: %w: пустая строка", queryCompanyIDs, i, ErrUnexpectedValue)
		}
		id, err := asInt64(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: строка %d: %w", queryCompanyIDs, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// VacancyExists проверяет, сохранена ли вакансия с таким идентификатором.
func (r *VacancyRepository) VacancyExists(ctx context.Context, id int64) (bool, error) {
	v, err := r.queryOne(ctx, queryVacancyExists, id)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// AddVacancy добавляет вакансию и фиксирует транзакцию.
func (r *VacancyRepository) AddVacancy(ctx context.Context, rec model.VacancyRecord) error {
	var published any
	if !rec.PublishedDate.IsZero() {
		published = asDate(rec.PublishedDate)
	}
	return r.exec(ctx, queryAddVacancy,
		rec.ID, rec.Name, rec.URL, rec.Salary, rec.City, published, rec.EmployerID,
	)
}
