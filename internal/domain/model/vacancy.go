// Пакет model — доменные модели компаний и вакансий.
// Company и VacancyRecord — маппинг таблиц companies и vacancies,
// CompanyVacancies и Vacancy — строки агрегирующих запросов.
package model

import "time"

// Company — работодатель из таблицы companies.
// ID совпадает с идентификатором работодателя на hh.ru.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CompanyVacancies — компания и количество её вакансий.
type CompanyVacancies struct {
	Company string `json:"company"`
	Count   int64  `json:"vacancies_count"`
}

// Vacancy — вакансия в выдаче агрегирующих запросов.
type Vacancy struct {
	// Company — название компании
	Company string `json:"company"`
	// Title — название вакансии
	Title string `json:"title"`
	// Salary — зарплата; nil, если не указана
	Salary *int64 `json:"salary"`
	// URL — ссылка на вакансию
	URL string `json:"url"`
	// City — город
	City string `json:"city"`
}

// VacancyRecord — вакансия для записи в таблицу vacancies.
type VacancyRecord struct {
	// ID — идентификатор вакансии на hh.ru
	ID int64
	// Name — название вакансии
	Name string
	// URL — ссылка на вакансию
	URL string
	// Salary — нижняя граница зарплаты, иначе верхняя; nil, если обе не указаны
	Salary *int64
	// City — город (area.name)
	City string
	// PublishedDate — дата публикации (без времени)
	PublishedDate time.Time
	// EmployerID — идентификатор компании-работодателя
	EmployerID int64
}
