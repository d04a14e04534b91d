package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/UmetsuJunya/Workplace-Scheduler/auth"
	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/middleware"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// RegisterHandler обрабатывает запросы на регистрацию новых пользователей.
// Первый зарегистрированный пользователь получает роль ADMIN. При включенной
// аутентификации регистрация закрывается, как только в системе есть хотя бы
// один пользователь: остальных заводит администратор.
// POST /api/auth/register
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Password) == "" {
		respondError(w, http.StatusBadRequest, "Имя и пароль не могут быть пустыми.")
		return
	}

	userCount, err := data.CountUsers()
	if err != nil {
		log.Printf("Ошибка при подсчете пользователей: %v", err)
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при проверке регистрации.")
		return
	}
	if middleware.AuthEnabled() && userCount > 0 {
		respondError(w, http.StatusForbidden, "Регистрация закрыта. Обратитесь к администратору.")
		return
	}

	hashedPassword, err := data.HashPassword(req.Password)
	if err != nil {
		log.Printf("Ошибка при хешировании пароля для %s: %v", req.Name, err)
		respondError(w, http.StatusInternalServerError, "Не удалось обработать пароль.")
		return
	}

	role := models.RoleUser
	if userCount == 0 {
		role = models.RoleAdmin // Первый пользователь всегда администратор
	}

	user := &models.User{
		Name:         req.Name,
		Role:         role,
		PasswordHash: &hashedPassword,
	}
	if email := strings.TrimSpace(strings.ToLower(req.Email)); email != "" {
		user.Email = &email
	}

	if _, err := data.CreateUser(user); err != nil {
		log.Printf("Ошибка при создании пользователя %s: %v", req.Name, err)
		respondDataError(w, err)
		return
	}

	if hub != nil {
		hub.UserCreated(originFromRequest(r), user.PublicInfo())
	}

	tokenString, _, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		log.Printf("Ошибка при генерации токена для пользователя %s: %v", user.Name, err)
		respondError(w, http.StatusInternalServerError, "Пользователь создан, но не удалось сгенерировать токен доступа.")
		return
	}

	respondJSON(w, http.StatusCreated, models.AuthResponse{
		AccessToken: tokenString,
		User:        user.PublicInfo(),
	})
}

// LoginHandler обрабатывает запросы на вход пользователей.
// В поле name принимается имя пользователя либо email.
// POST /api/auth/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Password) == "" {
		respondError(w, http.StatusBadRequest, "Имя и пароль не могут быть пустыми.")
		return
	}

	// Сначала ищем по email, затем по имени
	user, err := data.GetUserByEmail(strings.ToLower(req.Name))
	if err != nil {
		log.Printf("Ошибка при поиске пользователя по email %s: %v", req.Name, err)
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при поиске пользователя.")
		return
	}
	if user == nil {
		user, err = data.GetUserByName(req.Name)
		if err != nil {
			log.Printf("Ошибка при поиске пользователя %s: %v", req.Name, err)
			respondError(w, http.StatusInternalServerError, "Ошибка сервера при поиске пользователя.")
			return
		}
	}

	if user == nil || user.PasswordHash == nil || !data.CheckPasswordHash(req.Password, *user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Неверное имя или пароль.")
		return
	}

	tokenString, _, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		log.Printf("Ошибка при генерации токена для пользователя %s: %v", user.Name, err)
		respondError(w, http.StatusInternalServerError, "Не удалось сгенерировать токен доступа.")
		return
	}

	log.Printf("Пользователь %s (ID %d) вошел в систему", user.Name, user.ID)
	respondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: tokenString,
		User:        user.PublicInfo(),
	})
}

// CanRegisterHandler сообщает, открыта ли регистрация.
// GET /api/auth/can-register
func CanRegisterHandler(w http.ResponseWriter, r *http.Request) {
	if !middleware.AuthEnabled() {
		// При выключенной аутентификации страница регистрации не нужна
		respondJSON(w, http.StatusOK, models.CanRegisterResponse{CanRegister: false})
		return
	}

	userCount, err := data.CountUsers()
	if err != nil {
		log.Printf("Ошибка при подсчете пользователей: %v", err)
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при проверке регистрации.")
		return
	}
	respondJSON(w, http.StatusOK, models.CanRegisterResponse{CanRegister: userCount == 0})
}
