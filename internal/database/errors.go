package database

import (
	"errors"

	"github.com/arinazaikina/hh-vacancy-db/internal/catalog"
)

// Ошибки слоя доступа к БД.
// Ошибки категорий оборачивают исходную причину: errors.Is работает
// и для категории, и для причины.
var (
	// ErrConnection — не удалось установить соединение с PostgreSQL.
	ErrConnection = errors.New("не удалось подключиться к базе данных")
	// ErrQueryExecution — ошибка выполнения SQL-запроса.
	ErrQueryExecution = errors.New("ошибка выполнения запроса")
	// ErrResourceAccess — не удалось прочитать файл (каталог, схема).
	ErrResourceAccess = catalog.ErrResourceAccess
	// ErrNotOpen — соединение не открыто.
	ErrNotOpen = errors.New("соединение с базой данных не открыто")
	// ErrEmptyStatement — передан пустой текст запроса (например, результат
	// Lookup для отсутствующего в каталоге имени).
	ErrEmptyStatement = errors.New("пустой текст запроса")
	// ErrNoRows — в режиме ModeOne запрос не вернул ни одной строки.
	ErrNoRows = errors.New("запрос не вернул ни одной строки")
	// ErrInvalidMode — неизвестный режим получения результата.
	ErrInvalidMode = errors.New("неизвестный режим результата")
)
