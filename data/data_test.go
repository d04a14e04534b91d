package data

import (
	"testing"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB подключает тесты к SQLite в памяти.
// Одно подключение: каждое новое соединение получило бы собственную пустую БД.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(GetMainSchema())
	require.NoError(t, err)

	MainDB = db
	t.Cleanup(func() {
		_ = db.Close()
		MainDB = nil
	})
}

// createTestUser создает пользователя и возвращает его ID.
func createTestUser(t *testing.T, name string) int64 {
	t.Helper()
	id, err := CreateUser(&models.User{Name: name})
	require.NoError(t, err)
	return id
}

// strPtr — вспомогательная функция для указателей на строки в тестах.
func strPtr(s string) *string {
	return &s
}
