package models

import "time"

// Project представляет проект, группирующий пользователей для фильтрации сетки.
type Project struct {
	ID        int64     `json:"id" db:"Id"`
	Name      string    `json:"name" db:"Name"`
	CreatedAt time.Time `json:"created_at" db:"CreatedAt"`
	UpdatedAt time.Time `json:"updated_at" db:"UpdatedAt"`
	UserIDs   []int64   `json:"userIds"` // Заполняется из таблицы ProjectUsers
}

// ProjectRequest представляет данные для создания/обновления проекта.
// При обновлении список участников заменяется целиком.
type ProjectRequest struct {
	Name    string  `json:"name"`
	UserIDs []int64 `json:"userIds"`
}
