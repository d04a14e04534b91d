package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// GetLocationPresetsHandler возвращает предустановки мест в порядке SortOrder.
// GET /api/location-presets
func GetLocationPresetsHandler(w http.ResponseWriter, r *http.Request) {
	presets, err := data.GetAllLocationPresets()
	if err != nil {
		log.Printf("Ошибка при получении предустановок: %v", err)
		respondDataError(w, err)
		return
	}
	if presets == nil {
		presets = []models.LocationPreset{}
	}
	respondJSON(w, http.StatusOK, presets)
}

// GetLocationPresetHandler возвращает предустановку по ID.
// GET /api/location-presets/{id}
func GetLocationPresetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID предустановки.")
		return
	}

	preset, err := data.GetLocationPresetByID(id)
	if err != nil {
		log.Printf("Ошибка при получении предустановки ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}
	if preset == nil {
		respondError(w, http.StatusNotFound, "Предустановка не найдена.")
		return
	}
	respondJSON(w, http.StatusOK, preset)
}

// CreateLocationPresetHandler создает предустановку. Без явного порядка
// запись добавляется в конец списка.
// POST /api/location-presets
func CreateLocationPresetHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LocationPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	preset, err := data.CreateLocationPreset(&req)
	if err != nil {
		log.Printf("Ошибка при создании предустановки %s: %v", req.Name, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.LocationCreated(originFromRequest(r), preset)
	}
	respondJSON(w, http.StatusCreated, preset)
}

// UpdateLocationPresetHandler обновляет предустановку.
// PUT /api/location-presets/{id}
func UpdateLocationPresetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID предустановки.")
		return
	}

	var req models.LocationPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	preset, err := data.UpdateLocationPreset(id, &req)
	if err != nil {
		log.Printf("Ошибка при обновлении предустановки ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.LocationUpdated(originFromRequest(r), preset)
	}
	respondJSON(w, http.StatusOK, preset)
}

// DeleteLocationPresetHandler удаляет предустановку.
// DELETE /api/location-presets/{id}
func DeleteLocationPresetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID предустановки.")
		return
	}

	if err := data.DeleteLocationPreset(id); err != nil {
		log.Printf("Ошибка при удалении предустановки ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.LocationDeleted(originFromRequest(r), id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderLocationPresetsHandler переупорядочивает предустановки: каждому ID
// назначается порядок, равный его индексу в присланном полном списке.
// PUT /api/location-presets/reorder
func ReorderLocationPresetsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	presets, err := data.ReorderLocationPresets(req.IDs)
	if err != nil {
		log.Printf("Ошибка при переупорядочивании предустановок: %v", err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.LocationReordered(originFromRequest(r), presets)
	}
	respondJSON(w, http.StatusOK, presets)
}
