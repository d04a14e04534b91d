package controllers

import (
	"encoding/json"
	"net/http"
)

// HealthCheck возвращает статус "OK", если сервер работает.
// GET /api/health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}
