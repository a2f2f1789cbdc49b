// Пакет catalog — каталог именованных SQL-запросов.
// Запросы хранятся во внешнем текстовом файле блоками вида:
//
//	-- имя_запроса
//	SELECT ...
//	FROM ...;
//
// Каталог загружается один раз и после загрузки только читается.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Marker — разделитель блоков каталога, после которого идёт имя запроса.
const Marker = "-- "

// Ошибки каталога.
var (
	// ErrResourceAccess — файл каталога (или другой ресурс) не удалось прочитать.
	ErrResourceAccess = errors.New("ресурс недоступен")
	// ErrQueryNotFound — запрос с указанным именем отсутствует в каталоге.
	ErrQueryNotFound = errors.New("запрос не найден в каталоге")
)

//go:embed queries.sql
var defaultQueries string

// Catalog — неизменяемое отображение «имя запроса → текст запроса».
type Catalog struct {
	queries map[string]string
}

// Default возвращает каталог, встроенный в бинарник при сборке.
func Default() *Catalog {
	return Parse(defaultQueries)
}

// Load читает каталог из файла по пути path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: каталог запросов %q: %w", ErrResourceAccess, path, err)
	}
	return Parse(string(data)), nil
}

// LoadFS читает каталог из файловой системы fsys (например, embed.FS).
func LoadFS(fsys fs.FS, name string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: каталог запросов %q: %w", ErrResourceAccess, name, err)
	}
	return Parse(string(data)), nil
}

// Parse разбирает текст каталога.
// Текст до первого маркера игнорируется. Первая строка блока — имя запроса,
// остальные строки склеиваются в одну, пробельные символы схлопываются.
// При повторе имени побеждает последний блок.
func Parse(text string) *Catalog {
	blocks := strings.Split(text, Marker)

	queries := make(map[string]string, len(blocks))
	for _, block := range blocks[1:] {
		name, body, _ := strings.Cut(block, "\n")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		queries[name] = strings.Join(strings.Fields(body), " ")
	}

	return &Catalog{queries: queries}
}

// Lookup возвращает текст запроса по имени.
// Отсутствие имени не является ошибкой: возвращается ("", false),
// проверка остаётся за вызывающим кодом.
func (c *Catalog) Lookup(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	q, ok := c.queries[name]
	return q, ok
}

// MustLookup — строгий вариант Lookup: неизвестное имя возвращает ErrQueryNotFound.
func (c *Catalog) MustLookup(name string) (string, error) {
	q, ok := c.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrQueryNotFound, name)
	}
	return q, nil
}

// Names возвращает отсортированный список имён запросов.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.queries))
	for name := range c.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len возвращает количество запросов в каталоге.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.queries)
}
