package data

import "errors"

// Ошибки слоя данных. Обработчики переводят их в соответствующие HTTP-статусы.
var (
	// ErrNotFound — операция адресует несуществующую запись.
	// Для удаления по ID это не ошибка: желаемое состояние (записи нет) уже достигнуто.
	ErrNotFound = errors.New("запись не найдена")

	// ErrDuplicate — нарушение уникального ограничения (имя пользователя, имя проекта).
	// На пути расписаний не возникает: там всегда используется upsert по (UserId, Date).
	ErrDuplicate = errors.New("запись с таким значением уже существует")

	// ErrValidation — некорректные входные данные, отклоненные до обращения к БД.
	ErrValidation = errors.New("некорректные данные")
)
