package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/auth"
	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/middleware"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthAPI(t *testing.T, authEnabled bool) *mux.Router {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(data.GetMainSchema())
	require.NoError(t, err)
	data.MainDB = db
	t.Cleanup(func() {
		_ = db.Close()
		data.MainDB = nil
	})

	auth.Configure("test_secret", time.Hour)
	middleware.Configure(authEnabled)
	t.Cleanup(func() { middleware.Configure(false) })

	router := mux.NewRouter()
	router.HandleFunc("/api/auth/register", RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/can-register", CanRegisterHandler).Methods(http.MethodGet)
	return router
}

// Первый зарегистрированный пользователь получает роль ADMIN,
// последующая регистрация при включенной аутентификации закрыта.
func TestRegisterFirstUserIsAdminThenClosed(t *testing.T) {
	router := setupAuthAPI(t, true)

	recorder := doJSON(t, router, http.MethodPost, "/api/auth/register",
		models.RegisterRequest{Name: "alice", Password: "пароль123"}, nil)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	second := doJSON(t, router, http.MethodPost, "/api/auth/register",
		models.RegisterRequest{Name: "bob", Password: "пароль456"}, nil)
	assert.Equal(t, http.StatusForbidden, second.Code)
}

func TestLoginByNameAndByEmail(t *testing.T) {
	router := setupAuthAPI(t, true)

	recorder := doJSON(t, router, http.MethodPost, "/api/auth/register",
		models.RegisterRequest{Name: "alice", Email: "Alice@Example.com", Password: "пароль123"}, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	byName := doJSON(t, router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Name: "alice", Password: "пароль123"}, nil)
	assert.Equal(t, http.StatusOK, byName.Code)

	// Email нормализуется к нижнему регистру при регистрации и при входе
	byEmail := doJSON(t, router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Name: "ALICE@example.COM", Password: "пароль123"}, nil)
	assert.Equal(t, http.StatusOK, byEmail.Code)

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Name: "alice", Password: "неверный"}, nil)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
}

func TestCanRegister(t *testing.T) {
	router := setupAuthAPI(t, true)

	check := func(expected bool) {
		t.Helper()
		recorder := doJSON(t, router, http.MethodGet, "/api/auth/can-register", nil, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		var resp models.CanRegisterResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, expected, resp.CanRegister)
	}

	check(true)

	recorder := doJSON(t, router, http.MethodPost, "/api/auth/register",
		models.RegisterRequest{Name: "alice", Password: "пароль123"}, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	check(false)
}

// При выключенной аутентификации страница регистрации не предлагается.
func TestCanRegisterAuthDisabled(t *testing.T) {
	router := setupAuthAPI(t, false)

	recorder := doJSON(t, router, http.MethodGet, "/api/auth/can-register", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp models.CanRegisterResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.CanRegister)
}
