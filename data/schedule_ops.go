package data

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// FindSchedulesInRange извлекает записи расписания, чьи даты попадают в
// [startDate, endDate]. Диапазон включающий с обеих сторон; сравнение строк
// "yyyy-MM-dd" совпадает с календарным порядком.
func FindSchedulesInRange(startDate, endDate string) ([]models.Schedule, error) {
	var schedules []models.Schedule
	query := `SELECT Id, UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt
	          FROM Schedules WHERE Date >= ? AND Date <= ? ORDER BY Date ASC, UserId ASC`
	err := MainDB.Select(&schedules, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("FindSchedulesInRange: ошибка при получении записей [%s..%s]: %w", startDate, endDate, err)
	}
	return schedules, nil
}

// GetAllSchedules извлекает все записи расписания.
func GetAllSchedules() ([]models.Schedule, error) {
	var schedules []models.Schedule
	query := `SELECT Id, UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt
	          FROM Schedules ORDER BY Date ASC, UserId ASC`
	err := MainDB.Select(&schedules, query)
	if err != nil {
		return nil, fmt.Errorf("GetAllSchedules: ошибка при получении записей: %w", err)
	}
	return schedules, nil
}

// GetSchedulesByUserID извлекает все записи расписания пользователя.
func GetSchedulesByUserID(userID int64) ([]models.Schedule, error) {
	var schedules []models.Schedule
	query := `SELECT Id, UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt
	          FROM Schedules WHERE UserId = ? ORDER BY Date ASC`
	err := MainDB.Select(&schedules, query, userID)
	if err != nil {
		return nil, fmt.Errorf("GetSchedulesByUserID: ошибка при получении записей пользователя %d: %w", userID, err)
	}
	return schedules, nil
}

// GetScheduleByID извлекает запись расписания по ID.
func GetScheduleByID(id int64) (*models.Schedule, error) {
	schedule := &models.Schedule{}
	query := `SELECT Id, UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt
	          FROM Schedules WHERE Id = ?`
	err := MainDB.Get(schedule, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Не найдено
		}
		return nil, fmt.Errorf("GetScheduleByID: ошибка при получении записи ID %d: %w", id, err)
	}
	return schedule, nil
}

// UpsertSchedule создает или обновляет запись расписания по натуральному ключу
// (UserId, Date). Именно upsert делает сверку устойчивой к гонкам: если другая
// вкладка создала ту же ячейку между чтением и записью, вместо ошибки
// дублирования ключа строка обновляется на месте.
func UpsertSchedule(userID int64, dateISO string, value models.CellValue) (*models.Schedule, error) {
	if !models.ValidDateISO(dateISO) {
		return nil, fmt.Errorf("UpsertSchedule: неверный формат даты %q: %w", dateISO, ErrValidation)
	}
	if value.IsEmpty() {
		// Пустая ячейка представляется отсутствием строки, а не пустой строкой.
		return nil, fmt.Errorf("UpsertSchedule: пустая ячейка (%d, %s) не сохраняется: %w", userID, dateISO, ErrValidation)
	}

	now := time.Now()
	query := `INSERT INTO Schedules (UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (UserId, Date) DO UPDATE SET
	              Am = excluded.Am, Pm = excluded.Pm, Note = excluded.Note, UpdatedAt = excluded.UpdatedAt`
	_, err := MainDB.Exec(query, userID, dateISO, value.Am, value.Pm, value.Note, now, now)
	if err != nil {
		return nil, fmt.Errorf("UpsertSchedule: ошибка при записи ячейки (%d, %s): %w", userID, dateISO, err)
	}

	schedule := &models.Schedule{}
	err = MainDB.Get(schedule, `SELECT Id, UserId, Date, Am, Pm, Note, CreatedAt, UpdatedAt
	                            FROM Schedules WHERE UserId = ? AND Date = ?`, userID, dateISO)
	if err != nil {
		return nil, fmt.Errorf("UpsertSchedule: ошибка при чтении записанной ячейки (%d, %s): %w", userID, dateISO, err)
	}
	return schedule, nil
}

// UpdateScheduleByID обновляет поля существующей записи по суррогатному ID.
// Дата при этом не меняется; для переноса ячейки используется сверка месяца.
func UpdateScheduleByID(id int64, value models.CellValue) (*models.Schedule, error) {
	result, err := MainDB.Exec(`UPDATE Schedules SET Am = ?, Pm = ?, Note = ?, UpdatedAt = ? WHERE Id = ?`,
		value.Am, value.Pm, value.Note, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("UpdateScheduleByID: ошибка при обновлении записи ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("UpdateScheduleByID: запись ID %d: %w", id, ErrNotFound)
	}
	return GetScheduleByID(id)
}

// DeleteScheduleByID удаляет запись расписания по ID. Отсутствие записи не
// считается ошибкой: желаемое состояние (записи нет) уже достигнуто, например
// после конкурентного удаления другой вкладкой.
func DeleteScheduleByID(id int64) error {
	_, err := MainDB.Exec(`DELETE FROM Schedules WHERE Id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteScheduleByID: ошибка при удалении записи ID %d: %w", id, err)
	}
	return nil
}

// BuildMonthSnapshot восстанавливает снимок месяца из сохраненных записей.
// Обратная операция к сверке: reconcile(снимок) и следом BuildMonthSnapshot
// возвращают тот же снимок, ограниченный непустыми ячейками.
func BuildMonthSnapshot(month models.YearMonth) (models.MonthSnapshot, error) {
	startDate, endDate := month.Bounds()
	schedules, err := FindSchedulesInRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	snapshot := make(models.MonthSnapshot)
	for _, s := range schedules {
		if snapshot[s.UserID] == nil {
			snapshot[s.UserID] = make(map[string]*models.CellValue)
		}
		snapshot[s.UserID][s.Date] = &models.CellValue{Am: s.Am, Pm: s.Pm, Note: s.Note}
	}
	return snapshot, nil
}
