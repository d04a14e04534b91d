package data

import (
	"fmt"
	"log"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// ScheduleEvents получает уведомление о каждой измененной записи расписания.
// Уведомления отправляются по одному на строку, а не по одному на вызов сверки:
// массовое редактирование порождает несколько событий.
type ScheduleEvents interface {
	ScheduleUpserted(origin string, schedule *models.Schedule)
	ScheduleDeleted(origin string, id int64)
}

// ReconcileResult описывает фактически выполненные изменения.
type ReconcileResult struct {
	Upserted   []models.Schedule `json:"upserted"`
	DeletedIDs []int64           `json:"deletedIds"`
}

// scheduleKey — натуральный ключ записи расписания.
type scheduleKey struct {
	userID  int64
	dateISO string
}

// ReconcileMonth приводит сохраненное состояние месяца к присланному снимку.
//
// Снимок — полное отображение UserId -> дата -> ячейка для месяца month.
// scopeUserID != 0 ограничивает и множество записей, и множество удалений
// записями этого пользователя: ограниченный актор не может удалить или
// перезаписать чужие записи, даже если его снимок содержит их устаревшие
// копии. Ограничение симметрично для обоих путей.
//
// Вызов идемпотентен: повторная сверка с тем же снимком не порождает
// дополнительных изменений, а после частичного сбоя повторный вызов
// сходится к тому же конечному состоянию — удаления адресуют конкретные ID,
// записи выполняются как upsert по натуральному ключу.
func ReconcileMonth(month models.YearMonth, snapshot models.MonthSnapshot, scopeUserID int64, origin string, events ScheduleEvents) (*ReconcileResult, error) {
	// 1. Отбрасываем записи несуществующих пользователей: снимок может
	// содержать строки пользователя, удаленного другой вкладкой.
	validUserIDs, err := GetValidUserIDs()
	if err != nil {
		return nil, fmt.Errorf("ReconcileMonth: %w", err)
	}

	// 2. Текущее сохраненное состояние месяца, включая обе границы.
	startDate, endDate := month.Bounds()
	existing, err := FindSchedulesInRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ReconcileMonth: %w", err)
	}

	// 3. Индекс сохраненных строк по натуральному ключу.
	existingByKey := make(map[scheduleKey]models.Schedule, len(existing))
	for _, s := range existing {
		existingByKey[scheduleKey{userID: s.UserID, dateISO: s.Date}] = s
	}

	// 4. Обход снимка: непустые ячейки валидных пользователей в пределах
	// области видимости образуют множество записей.
	type pendingWrite struct {
		key   scheduleKey
		value models.CellValue
	}
	var writes []pendingWrite
	snapshotKeys := make(map[scheduleKey]bool)
	for userID, cells := range snapshot {
		if !validUserIDs[userID] {
			continue // Устаревший или удаленный пользователь
		}
		if scopeUserID != 0 && userID != scopeUserID {
			continue // Молчаливая фильтрация: чужие записи не ошибка, а шум
		}
		for dateISO, cell := range cells {
			if !models.ValidDateISO(dateISO) {
				return nil, fmt.Errorf("ReconcileMonth: неверный формат даты %q: %w", dateISO, ErrValidation)
			}
			if !month.Contains(dateISO) {
				continue // Снимок охватывает ровно один месяц
			}
			if cell.IsEmpty() {
				continue // Пустая ячейка = отсутствие строки; попадет в множество удалений
			}
			key := scheduleKey{userID: userID, dateISO: dateISO}
			snapshotKeys[key] = true
			writes = append(writes, pendingWrite{key: key, value: *cell})
		}
	}

	// 5. Обход сохраненного состояния: строки, отсутствующие в снимке,
	// подлежат удалению — с тем же ограничением области видимости.
	var deleteIDs []int64
	for key, s := range existingByKey {
		if snapshotKeys[key] {
			continue
		}
		if scopeUserID != 0 && s.UserID != scopeUserID {
			continue
		}
		deleteIDs = append(deleteIDs, s.ID)
	}

	result := &ReconcileResult{}

	// 6. Удаления. Порядок не важен: каждая операция адресует отдельный ID,
	// а удаление исчезнувшей строки — no-op.
	for _, id := range deleteIDs {
		if err := DeleteScheduleByID(id); err != nil {
			return result, fmt.Errorf("ReconcileMonth: ошибка при удалении записи ID %d: %w", id, err)
		}
		result.DeletedIDs = append(result.DeletedIDs, id)
		if events != nil {
			events.ScheduleDeleted(origin, id)
		}
	}

	// 7. Записи как upsert по (UserId, Date): конкурентное создание той же
	// ячейки между шагами 2 и 6 не приводит к ошибке дублирования ключа.
	for _, w := range writes {
		schedule, err := UpsertSchedule(w.key.userID, w.key.dateISO, w.value)
		if err != nil {
			return result, fmt.Errorf("ReconcileMonth: %w", err)
		}
		result.Upserted = append(result.Upserted, *schedule)
		if events != nil {
			events.ScheduleUpserted(origin, schedule)
		}
	}

	if len(result.DeletedIDs) > 0 || len(result.Upserted) > 0 {
		log.Printf("Сверка месяца %s: %d записей, %d удалений (scope=%d)",
			month, len(result.Upserted), len(result.DeletedIDs), scopeUserID)
	}
	return result, nil
}
