package models

import "time"

// Роли пользователей. Первый зарегистрированный пользователь всегда получает роль ADMIN.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User представляет участника команды (строку в сетке расписания).
type User struct {
	ID           int64     `json:"id" db:"Id"`
	Name         string    `json:"name" db:"Name"` // Уникальное имя, отображается в сетке
	Email        *string   `json:"email,omitempty" db:"Email"`
	Role         string    `json:"role" db:"Role"`
	PasswordHash *string   `json:"-" db:"PasswordHash"` // NULL, если пользователь создан администратором без пароля
	CreatedAt    time.Time `json:"created_at" db:"CreatedAt"`
	UpdatedAt    time.Time `json:"updated_at" db:"UpdatedAt"`
}

// IsAdmin сообщает, имеет ли пользователь права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPublicInfo представляет публичные данные пользователя, возвращаемые API.
type UserPublicInfo struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Role  string  `json:"role"`
}

// PublicInfo возвращает представление пользователя без чувствительных полей.
func (u *User) PublicInfo() UserPublicInfo {
	return UserPublicInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// CreateUserRequest представляет данные для создания пользователя администратором.
type CreateUserRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Role  string  `json:"role,omitempty"`
}

// UpdateUserRequest представляет данные для обновления пользователя.
// Nil-поля не изменяются. Смена пароля самим пользователем требует
// подтверждения текущим паролем; администратору подтверждение не нужно.
type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Role            *string `json:"role,omitempty"`
	Password        *string `json:"password,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
}
