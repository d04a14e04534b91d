package models

import "time"

// LocationPreset представляет предустановленное место работы.
// Единственная сущность с явным полем порядка: список предустановок упорядочен
// по SortOrder и переупорядочивается только целиком (см. ReorderLocationPresets).
type LocationPreset struct {
	ID        int64     `json:"id" db:"Id"`
	Name      string    `json:"name" db:"Name"`
	SortOrder int       `json:"order" db:"SortOrder"`
	CreatedAt time.Time `json:"created_at" db:"CreatedAt"`
	UpdatedAt time.Time `json:"updated_at" db:"UpdatedAt"`
}

// LocationPresetRequest представляет данные для создания/обновления предустановки.
// Order без значения означает добавление в конец списка.
type LocationPresetRequest struct {
	Name  string `json:"name"`
	Order *int   `json:"order,omitempty"`
}

// ReorderRequest представляет полный упорядоченный список ID предустановок.
// Частичное переупорядочивание не поддерживается.
type ReorderRequest struct {
	IDs []int64 `json:"ids"`
}
