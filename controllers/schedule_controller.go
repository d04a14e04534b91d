package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/middleware"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// GetSchedulesHandler возвращает записи расписания. С параметрами startDate и
// endDate — только записи из диапазона дат (включительно с обеих сторон).
// GET /api/schedules?startDate=yyyy-MM-dd&endDate=yyyy-MM-dd
func GetSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	var schedules []models.Schedule
	var err error
	if startDate != "" && endDate != "" {
		if !models.ValidDateISO(startDate) || !models.ValidDateISO(endDate) {
			respondError(w, http.StatusBadRequest, "Неверный формат даты (ожидается yyyy-MM-dd).")
			return
		}
		schedules, err = data.FindSchedulesInRange(startDate, endDate)
	} else {
		schedules, err = data.GetAllSchedules()
	}
	if err != nil {
		log.Printf("Ошибка при получении записей расписания: %v", err)
		respondDataError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	respondJSON(w, http.StatusOK, schedules)
}

// GetSchedulesByUserHandler возвращает все записи расписания пользователя.
// GET /api/schedules/user/{userId}
func GetSchedulesByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID пользователя.")
		return
	}

	schedules, err := data.GetSchedulesByUserID(userID)
	if err != nil {
		log.Printf("Ошибка при получении записей пользователя %d: %v", userID, err)
		respondDataError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	respondJSON(w, http.StatusOK, schedules)
}

// GetScheduleHandler возвращает запись расписания по ID.
// GET /api/schedules/{id}
func GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID записи.")
		return
	}

	schedule, err := data.GetScheduleByID(id)
	if err != nil {
		log.Printf("Ошибка при получении записи ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}
	if schedule == nil {
		respondError(w, http.StatusNotFound, "Запись расписания не найдена.")
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// CreateScheduleHandler создает или обновляет одну ячейку расписания.
// Запись всегда выполняется как upsert по (UserId, Date): повторное создание
// той же ячейки обновляет ее, а не падает на дубликате ключа.
// POST /api/schedules
func CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if scope := middleware.ScheduleScope(r); scope != 0 && req.UserID != scope {
		respondError(w, http.StatusForbidden, "Можно изменять только собственное расписание.")
		return
	}

	schedule, err := upsertScheduleForUser(req)
	if err != nil {
		log.Printf("Ошибка при записи ячейки (%d, %s): %v", req.UserID, req.Date, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.ScheduleUpserted(originFromRequest(r), schedule)
	}
	respondJSON(w, http.StatusCreated, schedule)
}

// BulkCreateSchedulesHandler создает или обновляет набор ячеек. Каждая строка
// пишется отдельным upsert и порождает отдельное событие рассылки.
// POST /api/schedules/bulk
func BulkCreateSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	var reqs []models.ScheduleUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if scope := middleware.ScheduleScope(r); scope != 0 {
		for _, req := range reqs {
			if req.UserID != scope {
				respondError(w, http.StatusForbidden, "Можно изменять только собственное расписание.")
				return
			}
		}
	}

	origin := originFromRequest(r)
	schedules := make([]models.Schedule, 0, len(reqs))
	for _, req := range reqs {
		schedule, err := upsertScheduleForUser(req)
		if err != nil {
			log.Printf("Ошибка при записи ячейки (%d, %s): %v", req.UserID, req.Date, err)
			respondDataError(w, err)
			return
		}
		schedules = append(schedules, *schedule)
		if hub != nil {
			hub.ScheduleUpserted(origin, schedule)
		}
	}
	respondJSON(w, http.StatusCreated, schedules)
}

// ReconcileHandler приводит сохраненное состояние месяца к присланному
// полному снимку: вычисляет разницу и выполняет минимальный набор
// upsert/удалений. Для ограниченного актора чужие записи снимка молча
// фильтруются и на пути записи, и на пути удаления.
// POST /api/schedules/reconcile
func ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	month, err := models.ParseYearMonth(req.YearMonth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат месяца (ожидается yyyy-MM).")
		return
	}

	scope := middleware.ScheduleScope(r)
	result, err := data.ReconcileMonth(month, req.Entries, scope, originFromRequest(r), scheduleEvents())
	if err != nil {
		log.Printf("Ошибка сверки месяца %s: %v", month, err)
		respondDataError(w, err)
		return
	}
	if result.Upserted == nil {
		result.Upserted = []models.Schedule{}
	}
	if result.DeletedIDs == nil {
		result.DeletedIDs = []int64{}
	}
	respondJSON(w, http.StatusOK, result)
}

// UpdateScheduleHandler обновляет поля существующей записи по ID.
// PUT /api/schedules/{id}
func UpdateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID записи.")
		return
	}

	existing, err := data.GetScheduleByID(id)
	if err != nil {
		respondDataError(w, err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Запись расписания не найдена.")
		return
	}
	if scope := middleware.ScheduleScope(r); scope != 0 && existing.UserID != scope {
		respondError(w, http.StatusForbidden, "Можно изменять только собственное расписание.")
		return
	}

	var value models.CellValue
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if value.IsEmpty() {
		// Очистка всех полей означает удаление строки, а не пустую строку
		if err := data.DeleteScheduleByID(id); err != nil {
			respondDataError(w, err)
			return
		}
		if hub != nil {
			hub.ScheduleDeleted(originFromRequest(r), id)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	schedule, err := data.UpdateScheduleByID(id, value)
	if err != nil {
		log.Printf("Ошибка при обновлении записи ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.ScheduleUpserted(originFromRequest(r), schedule)
	}
	respondJSON(w, http.StatusOK, schedule)
}

// DeleteScheduleHandler удаляет запись расписания по ID. Отсутствие записи —
// успех: желаемое состояние уже достигнуто.
// DELETE /api/schedules/{id}
func DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID записи.")
		return
	}

	existing, err := data.GetScheduleByID(id)
	if err != nil {
		respondDataError(w, err)
		return
	}
	if existing != nil {
		if scope := middleware.ScheduleScope(r); scope != 0 && existing.UserID != scope {
			respondError(w, http.StatusForbidden, "Можно удалять только собственное расписание.")
			return
		}
		if err := data.DeleteScheduleByID(id); err != nil {
			log.Printf("Ошибка при удалении записи ID %d: %v", id, err)
			respondDataError(w, err)
			return
		}
		if hub != nil {
			hub.ScheduleDeleted(originFromRequest(r), id)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// upsertScheduleForUser проверяет запрос и выполняет upsert одной ячейки.
func upsertScheduleForUser(req models.ScheduleUpsertRequest) (*models.Schedule, error) {
	user, err := data.GetUserByID(req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, data.ErrValidation
	}
	return data.UpsertSchedule(req.UserID, req.Date, models.CellValue{Am: req.Am, Pm: req.Pm, Note: req.Note})
}

// scheduleEvents возвращает приемник событий для движка сверки.
// При выключенной рассылке (в тестах) сверка работает без уведомлений.
func scheduleEvents() data.ScheduleEvents {
	if hub == nil {
		return nil
	}
	return hub
}
