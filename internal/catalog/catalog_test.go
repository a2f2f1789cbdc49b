package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// TestParse_TwoQueries проверяет разбор каталога из двух запросов.
func TestParse_TwoQueries(t *testing.T) {
	text := "-- avg_salary\nSELECT AVG(salary) FROM vacancies;\n-- count_vacancies\nSELECT COUNT(*) FROM vacancies;"

	c := Parse(text)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, ожидалось 2", c.Len())
	}
	got, ok := c.Lookup("avg_salary")
	if !ok {
		t.Fatal("avg_salary не найден")
	}
	if got != "SELECT AVG(salary) FROM vacancies;" {
		t.Errorf("avg_salary = %q", got)
	}
	got, _ = c.Lookup("count_vacancies")
	if got != "SELECT COUNT(*) FROM vacancies;" {
		t.Errorf("count_vacancies = %q", got)
	}
}

// TestParse_Multiline проверяет склейку многострочного запроса в одну строку.
func TestParse_Multiline(t *testing.T) {
	text := "-- all\nSELECT a,\n       b\n\tFROM t\n\n  WHERE a = $1;\n\n"

	got, ok := Parse(text).Lookup("all")
	if !ok {
		t.Fatal("all не найден")
	}
	want := "SELECT a, b FROM t WHERE a = $1;"
	if got != want {
		t.Errorf("Lookup(all) = %q, ожидалось %q", got, want)
	}
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLen   int
		wantNames []string
	}{
		{name: "пустой текст", text: "", wantLen: 0},
		{name: "без маркеров", text: "SELECT 1;", wantLen: 0},
		{name: "преамбула игнорируется", text: "преамбула\n-- q\nSELECT 1;", wantLen: 1, wantNames: []string{"q"}},
		{name: "CRLF", text: "-- q\r\nSELECT 1;\r\n", wantLen: 1, wantNames: []string{"q"}},
		{name: "повтор имени", text: "-- q\nSELECT 1;\n-- q\nSELECT 2;", wantLen: 1, wantNames: []string{"q"}},
		{name: "пустое имя пропускается", text: "-- \nSELECT 1;\n-- b\nSELECT 2;\n-- a\nSELECT 3;", wantLen: 2, wantNames: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Parse(tt.text)
			if c.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, ожидалось %d", c.Len(), tt.wantLen)
			}
			names := c.Names()
			for i, n := range tt.wantNames {
				if names[i] != n {
					t.Errorf("Names()[%d] = %q, ожидалось %q", i, names[i], n)
				}
			}
		})
	}
}

// TestParse_DuplicateLastWins проверяет, что при повторе имени побеждает последний блок.
func TestParse_DuplicateLastWins(t *testing.T) {
	got, _ := Parse("-- q\nSELECT 1;\n-- q\nSELECT 2;").Lookup("q")
	if got != "SELECT 2;" {
		t.Errorf("Lookup(q) = %q, ожидалось %q", got, "SELECT 2;")
	}
}

// TestLookup_Absent проверяет, что отсутствие имени — не ошибка.
func TestLookup_Absent(t *testing.T) {
	c := Parse("-- q\nSELECT 1;")

	got, ok := c.Lookup("missing")
	if ok {
		t.Error("ожидалось ok = false для отсутствующего имени")
	}
	if got != "" {
		t.Errorf("Lookup(missing) = %q, ожидалась пустая строка", got)
	}

	var nilCatalog *Catalog
	if _, ok := nilCatalog.Lookup("q"); ok {
		t.Error("nil-каталог не должен находить запросы")
	}
}

func TestMustLookup(t *testing.T) {
	c := Parse("-- q\nSELECT 1;")

	if got, err := c.MustLookup("q"); err != nil || got != "SELECT 1;" {
		t.Errorf("MustLookup(q) = (%q, %v)", got, err)
	}

	_, err := c.MustLookup("missing")
	if !errors.Is(err, ErrQueryNotFound) {
		t.Errorf("MustLookup(missing) err = %v, ожидалась ErrQueryNotFound", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.sql")
	if err := os.WriteFile(path, []byte("-- get_company_ids\nSELECT company_id\nFROM companies;\n"), 0o600); err != nil {
		t.Fatalf("запись файла: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() ошибка: %v", err)
	}
	got, _ := c.Lookup("get_company_ids")
	if got != "SELECT company_id FROM companies;" {
		t.Errorf("get_company_ids = %q", got)
	}
}

func TestLoad_Unreadable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.sql"))
	if !errors.Is(err, ErrResourceAccess) {
		t.Fatalf("err = %v, ожидалась ErrResourceAccess", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, ожидалась обёрнутая os.ErrNotExist", err)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"q.sql": {Data: []byte("-- one\nSELECT 1;")},
	}

	c, err := LoadFS(fsys, "q.sql")
	if err != nil {
		t.Fatalf("LoadFS() ошибка: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, ожидалось 1", c.Len())
	}

	if _, err := LoadFS(fsys, "missing.sql"); !errors.Is(err, ErrResourceAccess) {
		t.Errorf("err = %v, ожидалась ErrResourceAccess", err)
	}
}

// TestDefault проверяет, что встроенный каталог содержит все запросы приложения.
func TestDefault(t *testing.T) {
	c := Default()

	required := []string{
		"get_companies_and_vacancies_count",
		"get_all_vacancies",
		"get_avg_salary",
		"get_vacancies_with_higher_salary",
		"get_vacancies_with_keyword",
		"check_record_exists_in_companies_table",
		"add_record_to_companies_table",
		"get_company_ids",
		"check_record_exists_in_vacancies_table",
		"add_record_to_vacancies_table",
	}
	for _, name := range required {
		q, ok := c.Lookup(name)
		if !ok || q == "" {
			t.Errorf("встроенный каталог не содержит %q", name)
		}
	}
	if c.Len() != len(required) {
		t.Errorf("Len() = %d, ожидалось %d", c.Len(), len(required))
	}
}
