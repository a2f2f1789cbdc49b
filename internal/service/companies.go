package service

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/arinazaikina/hh-vacancy-db/internal/database"
)

// ReadCompanies читает список компаний из файла: одно название на строку.
// Пробелы по краям обрезаются, пустые строки пропускаются.
func ReadCompanies(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: список компаний %q: %w", database.ErrResourceAccess, path, err)
	}
	defer f.Close()

	var companies []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		companies = append(companies, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: чтение %q: %w", database.ErrResourceAccess, path, err)
	}
	return companies, nil
}
