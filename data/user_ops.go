package data

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword генерирует хеш bcrypt для пароля.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash сравнивает пароль с хешем.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateUser создает нового пользователя. Имя должно быть уникальным.
// Поле user.PasswordHash, если задано, должно уже содержать хеш bcrypt.
func CreateUser(user *models.User) (int64, error) {
	if strings.TrimSpace(user.Name) == "" {
		return 0, fmt.Errorf("CreateUser: пустое имя пользователя: %w", ErrValidation)
	}

	existing, err := GetUserByName(user.Name)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: ошибка при проверке имени %s: %w", user.Name, err)
	}
	if existing != nil {
		return 0, fmt.Errorf("CreateUser: пользователь %s: %w", user.Name, ErrDuplicate)
	}

	if user.Role == "" {
		user.Role = models.RoleUser
	} else if user.Role != models.RoleAdmin && user.Role != models.RoleUser {
		return 0, fmt.Errorf("CreateUser: неизвестная роль %q: %w", user.Role, ErrValidation)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO Users (Name, Email, Role, PasswordHash, CreatedAt, UpdatedAt)
	          VALUES (:Name, :Email, :Role, :PasswordHash, :CreatedAt, :UpdatedAt)`
	result, err := MainDB.NamedExec(query, user)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: ошибка при вставке пользователя: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser: ошибка при получении LastInsertId: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetUserByID извлекает пользователя по ID.
func GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT Id, Name, Email, Role, PasswordHash, CreatedAt, UpdatedAt
	          FROM Users WHERE Id = ?`
	err := MainDB.Get(user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("GetUserByID: ошибка при получении пользователя ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByName извлекает пользователя по имени.
func GetUserByName(name string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT Id, Name, Email, Role, PasswordHash, CreatedAt, UpdatedAt
	          FROM Users WHERE Name = ?`
	err := MainDB.Get(user, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("GetUserByName: ошибка при получении пользователя %s: %w", name, err)
	}
	return user, nil
}

// GetUserByEmail извлекает пользователя по email.
func GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT Id, Name, Email, Role, PasswordHash, CreatedAt, UpdatedAt
	          FROM Users WHERE Email = ?`
	err := MainDB.Get(user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("GetUserByEmail: ошибка при получении пользователя по email %s: %w", email, err)
	}
	return user, nil
}

// GetAllUsers извлекает всех пользователей в порядке создания.
func GetAllUsers() ([]models.User, error) {
	var users []models.User
	query := `SELECT Id, Name, Email, Role, PasswordHash, CreatedAt, UpdatedAt
	          FROM Users ORDER BY CreatedAt ASC, Id ASC`
	err := MainDB.Select(&users, query)
	if err != nil {
		return nil, fmt.Errorf("GetAllUsers: ошибка при получении пользователей: %w", err)
	}
	return users, nil
}

// CountUsers возвращает количество пользователей в системе.
// Используется для определения, открыта ли регистрация.
func CountUsers() (int, error) {
	var count int
	if err := MainDB.Get(&count, `SELECT COUNT(*) FROM Users`); err != nil {
		return 0, fmt.Errorf("CountUsers: ошибка при подсчете пользователей: %w", err)
	}
	return count, nil
}

// GetValidUserIDs возвращает множество существующих ID пользователей.
// Сверка месяца использует его для отбрасывания устаревших записей снимка.
func GetValidUserIDs() (map[int64]bool, error) {
	var ids []int64
	if err := MainDB.Select(&ids, `SELECT Id FROM Users`); err != nil {
		return nil, fmt.Errorf("GetValidUserIDs: ошибка при получении ID пользователей: %w", err)
	}
	valid := make(map[int64]bool, len(ids))
	for _, id := range ids {
		valid[id] = true
	}
	return valid, nil
}

// UpdateUser обновляет поля пользователя; nil-поля запроса не изменяются.
// При смене имени проверяется уникальность нового имени.
func UpdateUser(id int64, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("UpdateUser: пользователь ID %d: %w", id, ErrNotFound)
	}

	if req.Name != nil && *req.Name != user.Name {
		existing, err := GetUserByName(*req.Name)
		if err != nil {
			return nil, fmt.Errorf("UpdateUser: ошибка при проверке имени %s: %w", *req.Name, err)
		}
		if existing != nil {
			return nil, fmt.Errorf("UpdateUser: пользователь %s: %w", *req.Name, ErrDuplicate)
		}
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleUser {
			return nil, fmt.Errorf("UpdateUser: неизвестная роль %q: %w", *req.Role, ErrValidation)
		}
		user.Role = *req.Role
	}
	user.UpdatedAt = time.Now()

	query := `UPDATE Users SET Name = :Name, Email = :Email, Role = :Role, UpdatedAt = :UpdatedAt
	          WHERE Id = :Id`
	if _, err := MainDB.NamedExec(query, user); err != nil {
		return nil, fmt.Errorf("UpdateUser: ошибка при обновлении пользователя ID %d: %w", id, err)
	}
	return user, nil
}

// SetUserPassword устанавливает хеш пароля пользователя.
func SetUserPassword(id int64, passwordHash string) error {
	result, err := MainDB.Exec(`UPDATE Users SET PasswordHash = ?, UpdatedAt = ? WHERE Id = ?`,
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("SetUserPassword: ошибка при обновлении пароля ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("SetUserPassword: пользователь ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteUser удаляет пользователя. Его записи расписания и членство в проектах
// удаляются каскадно.
func DeleteUser(id int64) error {
	result, err := MainDB.Exec(`DELETE FROM Users WHERE Id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteUser: ошибка при удалении пользователя ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("DeleteUser: пользователь ID %d: %w", id, ErrNotFound)
	}
	return nil
}
