// Пакет repository — агрегирующие запросы к таблицам companies и vacancies.
// Тексты запросов берутся из каталога по имени, выполнение — через
// database.Executor. Значения строк приводятся к доменным моделям здесь.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arinazaikina/hh-vacancy-db/internal/database"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запрос не вернул значения (например, AVG по пустой таблице).
	ErrNotFound = errors.New("запись не найдена")
	// ErrUnexpectedValue — значение столбца не приводится к ожидаемому типу.
	ErrUnexpectedValue = errors.New("неожиданное значение столбца")
)

// Имена запросов в каталоге.
const (
	queryCompaniesAndVacanciesCount = "get_companies_and_vacancies_count"
	queryAllVacancies               = "get_all_vacancies"
	queryAvgSalary                  = "get_avg_salary"
	queryVacanciesWithHigherSalary  = "get_vacancies_with_higher_salary"
	queryVacanciesWithKeyword       = "get_vacancies_with_keyword"

	queryCompanyExists = "check_record_exists_in_companies_table"
	queryAddCompany    = "add_record_to_companies_table"
	queryCompanyIDs    = "get_company_ids"
	queryVacancyExists = "check_record_exists_in_vacancies_table"
	queryAddVacancy    = "add_record_to_vacancies_table"
)

// QueryNames — имена запросов, которые должны присутствовать в каталоге.
var QueryNames = []string{
	queryCompaniesAndVacanciesCount,
	queryAllVacancies,
	queryAvgSalary,
	queryVacanciesWithHigherSalary,
	queryVacanciesWithKeyword,
	queryCompanyExists,
	queryAddCompany,
	queryCompanyIDs,
	queryVacancyExists,
	queryAddVacancy,
}

// VacancyRepository — запросы к вакансиям поверх открытого Executor.
// Не потокобезопасен: Executor используется последовательно.
type VacancyRepository struct {
	db database.Executor
}

// NewVacancyRepository создаёт репозиторий вакансий.
func NewVacancyRepository(db database.Executor) *VacancyRepository {
	return &VacancyRepository{db: db}
}

// Validate проверяет, что каталог Executor содержит все запросы репозитория.
func (r *VacancyRepository) Validate() error {
	var errs []error
	for _, name := range QueryNames {
		if _, err := r.db.Queries().MustLookup(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// execute находит запрос в каталоге и выполняет его в заданном режиме.
func (r *VacancyRepository) execute(ctx context.Context, name string, mode database.Mode, commit bool, params ...any) (database.Result, error) {
	stmt, err := r.db.Queries().MustLookup(name)
	if err != nil {
		return database.Result{}, err
	}
	return r.db.Execute(ctx, database.Request{
		Statement: stmt,
		Params:    params,
		Mode:      mode,
		Commit:    commit,
	})
}

// queryAll выполняет запрос в режиме ModeAll.
func (r *VacancyRepository) queryAll(ctx context.Context, name string, params ...any) ([]database.Row, error) {
	res, err := r.execute(ctx, name, database.ModeAll, false, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res.Rows, nil
}

// queryOne выполняет запрос в режиме ModeOne.
func (r *VacancyRepository) queryOne(ctx context.Context, name string, params ...any) (any, error) {
	res, err := r.execute(ctx, name, database.ModeOne, false, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res.Scalar, nil
}

// exec выполняет запрос без результата и фиксирует транзакцию.
func (r *VacancyRepository) exec(ctx context.Context, name string, params ...any) error {
	if _, err := r.execute(ctx, name, database.ModeNone, true, params...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
