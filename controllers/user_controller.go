package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/middleware"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// GetUsersHandler возвращает всех пользователей в порядке создания.
// GET /api/users
func GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := data.GetAllUsers()
	if err != nil {
		log.Printf("Ошибка при получении пользователей: %v", err)
		respondDataError(w, err)
		return
	}

	infos := make([]models.UserPublicInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].PublicInfo())
	}
	respondJSON(w, http.StatusOK, infos)
}

// GetUserHandler возвращает пользователя по ID.
// GET /api/users/{id}
func GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID пользователя.")
		return
	}

	user, err := data.GetUserByID(id)
	if err != nil {
		log.Printf("Ошибка при получении пользователя ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "Пользователь не найден.")
		return
	}
	respondJSON(w, http.StatusOK, user.PublicInfo())
}

// CreateUserHandler создает пользователя. Доступно только администратору.
// POST /api/users
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if !middleware.AdminAllowed(r) {
		respondError(w, http.StatusForbidden, "Требуются права администратора.")
		return
	}

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Имя пользователя не может быть пустым.")
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, Role: req.Role}
	if _, err := data.CreateUser(user); err != nil {
		log.Printf("Ошибка при создании пользователя %s: %v", req.Name, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.UserCreated(originFromRequest(r), user.PublicInfo())
	}
	respondJSON(w, http.StatusCreated, user.PublicInfo())
}

// UpdateUserHandler обновляет пользователя. Доступно администратору либо
// самому пользователю; смена роли — только администратору.
// PUT /api/users/{id}
func UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID пользователя.")
		return
	}

	if !middleware.SelfOrAdminAllowed(r, id) {
		respondError(w, http.StatusForbidden, "Можно изменять только собственный профиль.")
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if req.Role != nil && !middleware.AdminAllowed(r) {
		respondError(w, http.StatusForbidden, "Менять роли может только администратор.")
		return
	}

	if req.Password != nil {
		if strings.TrimSpace(*req.Password) == "" {
			respondError(w, http.StatusBadRequest, "Новый пароль не может быть пустым.")
			return
		}
		// Самостоятельная смена пароля подтверждается текущим паролем;
		// администратор меняет пароли без подтверждения.
		if !middleware.AdminAllowed(r) {
			existing, err := data.GetUserByID(id)
			if err != nil {
				respondDataError(w, err)
				return
			}
			if existing == nil {
				respondError(w, http.StatusNotFound, "Пользователь не найден.")
				return
			}
			if existing.PasswordHash == nil || req.CurrentPassword == nil ||
				!data.CheckPasswordHash(*req.CurrentPassword, *existing.PasswordHash) {
				respondError(w, http.StatusForbidden, "Неверный текущий пароль.")
				return
			}
		}
	}

	user, err := data.UpdateUser(id, &req)
	if err != nil {
		log.Printf("Ошибка при обновлении пользователя ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if req.Password != nil {
		hashedPassword, err := data.HashPassword(*req.Password)
		if err != nil {
			log.Printf("Ошибка при хешировании пароля для пользователя ID %d: %v", id, err)
			respondError(w, http.StatusInternalServerError, "Не удалось обработать пароль.")
			return
		}
		if err := data.SetUserPassword(id, hashedPassword); err != nil {
			log.Printf("Ошибка при смене пароля пользователя ID %d: %v", id, err)
			respondDataError(w, err)
			return
		}
	}

	if hub != nil {
		hub.UserUpdated(originFromRequest(r), user.PublicInfo())
	}
	respondJSON(w, http.StatusOK, user.PublicInfo())
}

// DeleteUserHandler удаляет пользователя. Доступно только администратору.
// DELETE /api/users/{id}
func DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !middleware.AdminAllowed(r) {
		respondError(w, http.StatusForbidden, "Требуются права администратора.")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат ID пользователя.")
		return
	}

	if err := data.DeleteUser(id); err != nil {
		log.Printf("Ошибка при удалении пользователя ID %d: %v", id, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.UserDeleted(originFromRequest(r), id)
	}
	w.WriteHeader(http.StatusNoContent)
}
