package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/UmetsuJunya/Workplace-Scheduler/broadcast"
	"github.com/UmetsuJunya/Workplace-Scheduler/data"

	"github.com/gorilla/mux"
)

// hub — канал рассылки, задается из main при старте сервера.
var hub *broadcast.Hub

// SetHub подключает канал рассылки к контроллерам.
func SetHub(h *broadcast.Hub) {
	hub = h
}

// originFromRequest извлекает ID сессии-источника из заголовка X-Session-Id.
// Клиент получает свой ID при подключении к /ws и помечает им REST-запросы,
// чтобы затем отбрасывать собственные события рассылки.
func originFromRequest(r *http.Request) string {
	return r.Header.Get("X-Session-Id")
}

// respondJSON отправляет ответ в формате JSON.
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("respondJSON: ошибка при кодировании ответа: %v", err)
		}
	}
}

// respondError отправляет сообщение об ошибке в формате JSON.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondDataError переводит ошибку слоя данных в HTTP-статус.
func respondDataError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, data.ErrDuplicate):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, data.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID извлекает числовой параметр {id} из пути запроса.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}
