package config

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/ini.v1"
)

// ErrConfigFile — INI-файл конфигурации не удалось прочитать или он некорректен.
var ErrConfigFile = errors.New("ошибка файла конфигурации")

// databaseSection — секция INI-файла с параметрами подключения.
const databaseSection = "database"

// FileValues — значения секции [database] INI-файла.
type FileValues map[string]string

// LoadFile читает секцию [database] INI-файла:
//
//	[database]
//	dbname = hh
//	user = postgres
//	password = secret
//	host = localhost
//	port = 5432
//	queries = data/queries.sql
func LoadFile(path string) (FileValues, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrConfigFile, path, err)
	}

	sec, err := f.GetSection(databaseSection)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: отсутствует секция [%s]", ErrConfigFile, path, databaseSection)
	}

	values := FileValues{}
	for _, key := range sec.Keys() {
		values[key.Name()] = key.String()
	}

	if port, ok := values["port"]; ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("%w: %q: некорректный port %q", ErrConfigFile, path, port)
		}
	}

	return values, nil
}

// get возвращает значение ключа или пустую строку.
func (v FileValues) get(key string) string {
	return v[key]
}

// getDefault возвращает значение ключа или defaultVal.
func (v FileValues) getDefault(key, defaultVal string) string {
	if val := v[key]; val != "" {
		return val
	}
	return defaultVal
}

// getInt возвращает целое значение ключа или defaultVal.
// Корректность значения проверяется в LoadFile.
func (v FileValues) getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(v[key])
	if err != nil {
		return defaultVal
	}
	return n
}
