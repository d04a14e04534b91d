package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// GetProjectsHandler возвращает все проекты со списками участников.
// GET /api/projects
func GetProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := data.GetAllProjects()
	if err != nil {
		log.Printf("Ошибка при получении проектов: %v", err)
		respondDataError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondJSON(w, http.StatusOK, projects)
}

// GetProjectHandler возвращает проект по ID.
// GET /api/projects/{id}
func GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID проекта.")
		return
	}

	project, err := data.GetProjectByID(id)
	if err != nil {
		log.Printf("Ошибка при получении проекта ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}
	if project == nil {
		respondError(w, http.StatusNotFound, "Проект не найден.")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// CreateProjectHandler создает проект с привязкой участников.
// POST /api/projects
func CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	project, err := data.CreateProject(&req)
	if err != nil {
		log.Printf("Ошибка при создании проекта %s: %v", req.Name, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.ProjectCreated(originFromRequest(r), project)
	}
	respondJSON(w, http.StatusCreated, project)
}

// UpdateProjectHandler обновляет проект; список участников заменяется целиком.
// PUT /api/projects/{id}
func UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID проекта.")
		return
	}

	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	project, err := data.UpdateProject(id, &req)
	if err != nil {
		log.Printf("Ошибка при обновлении проекта ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.ProjectUpdated(originFromRequest(r), project)
	}
	respondJSON(w, http.StatusOK, project)
}

// DeleteProjectHandler удаляет проект.
// DELETE /api/projects/{id}
func DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID проекта.")
		return
	}

	if err := data.DeleteProject(id); err != nil {
		log.Printf("Ошибка при удалении проекта ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.ProjectDeleted(originFromRequest(r), id)
	}
	w.WriteHeader(http.StatusNoContent)
}
