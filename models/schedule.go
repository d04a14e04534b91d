package models

import (
	"fmt"
	"strings"
	"time"
)

// Schedule представляет ячейку сетки: место работы пользователя на конкретную дату.
// Пара (UserId, Date) уникальна; суррогатный Id нужен для обновлений и удалений.
type Schedule struct {
	ID        int64     `json:"id" db:"Id"`
	UserID    int64     `json:"userId" db:"UserId"`
	Date      string    `json:"date" db:"Date"` // "yyyy-MM-dd", без компонента времени
	Am        *string   `json:"am" db:"Am"`     // Место работы в первой половине дня
	Pm        *string   `json:"pm" db:"Pm"`     // Место работы во второй половине дня
	Note      string    `json:"note" db:"Note"`
	CreatedAt time.Time `json:"created_at" db:"CreatedAt"`
	UpdatedAt time.Time `json:"updated_at" db:"UpdatedAt"`
}

// CellValue представляет значение одной ячейки в снимке месяца на стороне клиента.
type CellValue struct {
	Am   *string `json:"am"`
	Pm   *string `json:"pm"`
	Note string  `json:"note"`
}

// IsEmpty сообщает, что ячейка пуста. Пустая ячейка никогда не хранится в БД:
// она представляется отсутствием строки Schedules.
func (c *CellValue) IsEmpty() bool {
	return c == nil || (isBlank(c.Am) && isBlank(c.Pm) && strings.TrimSpace(c.Note) == "")
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// MonthSnapshot — полный снимок месяца на стороне клиента:
// UserId -> ISO-дата -> значение ячейки (nil означает явно очищенную ячейку).
type MonthSnapshot map[int64]map[string]*CellValue

// YearMonth задает календарный месяц, ограничивающий окно запроса при сверке.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1..12
}

// ParseYearMonth разбирает строку "yyyy-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("ParseYearMonth: неверный формат месяца %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

// String возвращает месяц в формате "yyyy-MM".
func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Bounds возвращает первый и последний календарный день месяца в формате ISO.
// Конец диапазона — именно последний день месяца, а не первый день следующего,
// чтобы запрос по диапазону был включающим с обеих сторон.
func (m YearMonth) Bounds() (startDate, endDate string) {
	first := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// Contains проверяет, что ISO-дата попадает в данный месяц.
func (m YearMonth) Contains(dateISO string) bool {
	return strings.HasPrefix(dateISO, m.String()+"-")
}

// ValidDateISO проверяет, что строка является корректной календарной датой "yyyy-MM-dd".
func ValidDateISO(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ScheduleUpsertRequest представляет данные для создания/обновления одной ячейки.
type ScheduleUpsertRequest struct {
	UserID int64   `json:"userId"`
	Date   string  `json:"date"`
	Am     *string `json:"am"`
	Pm     *string `json:"pm"`
	Note   string  `json:"note"`
}

// ReconcileRequest представляет полный снимок месяца, присылаемый клиентом на сверку.
type ReconcileRequest struct {
	YearMonth string        `json:"yearMonth"` // "yyyy-MM"
	Entries   MonthSnapshot `json:"entries"`
}
