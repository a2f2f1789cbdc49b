package repository

import (
	"context"
	"fmt"

	"github.com/arinazaikina/hh-vacancy-db/internal/database"
	"github.com/arinazaikina/hh-vacancy-db/internal/domain/model"
)

// CompaniesAndVacanciesCount возвращает список компаний с количеством вакансий.
// Компании без вакансий входят в список с нулевым количеством.
func (r *VacancyRepository) CompaniesAndVacanciesCount(ctx context.Context) ([]model.CompanyVacancies, error) {
	rows, err := r.queryAll(ctx, queryCompaniesAndVacanciesCount)
	if err != nil {
		return nil, err
	}

	result := make([]model.CompanyVacancies, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: строка %d: %w: %d столбцов", queryCompaniesAndVacanciesCount, i, ErrUnexpectedValue, len(row))
		}
		name, err := asString(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: строка %d: %w", queryCompaniesAndVacanciesCount, i, err)
		}
		count, err := asInt64(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s: строка %d: %w", queryCompaniesAndVacanciesCount, i, err)
		}
		result = append(result, model.CompanyVacancies{Company: name, Count: count})
	}
	return result, nil
}

// AllVacancies возвращает все вакансии с названием компании.
func (r *VacancyRepository) AllVacancies(ctx context.Context) ([]model.Vacancy, error) {
	return r.vacancies(ctx, queryAllVacancies)
}

// AverageSalary возвращает среднюю зарплату по всем вакансиям с указанной
// зарплатой. ErrNotFound — если таких вакансий нет.
func (r *VacancyRepository) AverageSalary(ctx context.Context) (float64, error) {
	v, err := r.queryOne(ctx, queryAvgSalary)
	if err != nil {
		return 0, err
	}
	avg, err := asFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", queryAvgSalary, err)
	}
	return avg, nil
}

// VacanciesWithHigherSalary возвращает вакансии с зарплатой выше средней.
func (r *VacancyRepository) VacanciesWithHigherSalary(ctx context.Context) ([]model.Vacancy, error) {
	return r.vacancies(ctx, queryVacanciesWithHigherSalary)
}

// VacanciesWithKeyword возвращает вакансии, в названии которых есть keyword.
// Сравнение чувствительно к регистру (LIKE). Ключевое слово передаётся
// параметром, символы % и _ в нём сохраняют смысл шаблона.
func (r *VacancyRepository) VacanciesWithKeyword(ctx context.Context, keyword string) ([]model.Vacancy, error) {
	return r.vacancies(ctx, queryVacanciesWithKeyword, "%"+keyword+"%")
}

// vacancies выполняет запрос, возвращающий строки
// (company_name, vacancy_name, salary, vacancy_url, city).
func (r *VacancyRepository) vacancies(ctx context.Context, name string, params ...any) ([]model.Vacancy, error) {
	rows, err := r.queryAll(ctx, name, params...)
	if err != nil {
		return nil, err
	}

	result := make([]model.Vacancy, 0, len(rows))
	for i, row := range rows {
		v, err := scanVacancy(row)
		if err != nil {
			return nil, fmt.Errorf("%s: строка %d: %w", name, i, err)
		}
		result = append(result, v)
	}
	return result, nil
}

// scanVacancy приводит строку результата к model.Vacancy.
func scanVacancy(row database.Row) (model.Vacancy, error) {
	var v model.Vacancy
	if len(row) < 5 {
		return v, fmt.Errorf("%w: %d столбцов вместо 5", ErrUnexpectedValue, len(row))
	}

	var err error
	if v.Company, err = asString(row[0]); err != nil {
		return v, err
	}
	if v.Title, err = asString(row[1]); err != nil {
		return v, err
	}
	if v.Salary, err = asNullInt64(row[2]); err != nil {
		return v, err
	}
	if v.URL, err = asString(row[3]); err != nil {
		return v, err
	}
	if v.City, err = asString(row[4]); err != nil {
		return v, err
	}
	return v, nil
}
