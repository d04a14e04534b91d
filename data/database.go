package data

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Драйвер SQLite, импортируется для побочных эффектов (регистрации драйвера)
)

var MainDB *sqlx.DB // Глобальная переменная для основного пула подключений к БД

// InitDB инициализирует подключение к базе данных SQLite и применяет схему.
func InitDB(dbPath string) error {
	log.Printf("Using database file at: %s", dbPath)

	var err error
	MainDB, err = sqlx.Connect("sqlite3", dbPath+"?_foreign_keys=on") // Включаем поддержку внешних ключей
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = MainDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("Successfully connected to the database.")

	if _, err = MainDB.Exec(GetMainSchema()); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	log.Println("Database schema applied successfully.")

	// Обновляем схему для добавления недостающих полей
	if err = EnsureSchedulesSchemaUpgrade(); err != nil {
		return fmt.Errorf("failed to upgrade schedules schema: %w", err)
	}

	return nil
}

// GetMainDB возвращает текущее подключение к базе данных.
func GetMainDB() *sqlx.DB {
	return MainDB
}

// EnsureSchedulesSchemaUpgrade добавляет недостающие поля в таблицу Schedules.
// Ранние версии схемы не имели колонки Note.
func EnsureSchedulesSchemaUpgrade() error {
	var noteColumnExists bool
	err := MainDB.Get(&noteColumnExists, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('Schedules')
		WHERE name = 'Note'
	`)
	if err != nil {
		log.Printf("Ошибка проверки колонки Note: %v", err)
	} else if !noteColumnExists {
		_, err = MainDB.Exec(`ALTER TABLE Schedules ADD COLUMN Note TEXT NOT NULL DEFAULT ''`)
		if err != nil {
			return fmt.Errorf("failed to add Note column: %w", err)
		}
		log.Printf("Добавлена колонка Note в таблицу Schedules")
	}

	return nil
}
