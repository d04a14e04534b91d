package data

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/jmoiron/sqlx"
)

// CreateLocationPreset создает предустановку места работы.
// Без явного порядка новая запись добавляется в конец: max(SortOrder) + 1,
// либо 0 для пустого списка.
func CreateLocationPreset(req *models.LocationPresetRequest) (*models.LocationPreset, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("CreateLocationPreset: пустое имя предустановки: %w", ErrValidation)
	}

	sortOrder := 0
	if req.Order != nil {
		sortOrder = *req.Order
	} else {
		var maxOrder sql.NullInt64
		if err := MainDB.Get(&maxOrder, `SELECT MAX(SortOrder) FROM LocationPresets`); err != nil {
			return nil, fmt.Errorf("CreateLocationPreset: ошибка при получении максимального порядка: %w", err)
		}
		if maxOrder.Valid {
			sortOrder = int(maxOrder.Int64) + 1
		}
	}

	now := time.Now()
	result, err := MainDB.Exec(`INSERT INTO LocationPresets (Name, SortOrder, CreatedAt, UpdatedAt) VALUES (?, ?, ?, ?)`,
		req.Name, sortOrder, now, now)
	if err != nil {
		return nil, fmt.Errorf("CreateLocationPreset: ошибка при вставке предустановки: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateLocationPreset: ошибка при получении LastInsertId: %w", err)
	}
	return &models.LocationPreset{ID: id, Name: req.Name, SortOrder: sortOrder, CreatedAt: now, UpdatedAt: now}, nil
}

// GetAllLocationPresets извлекает предустановки в порядке SortOrder.
func GetAllLocationPresets() ([]models.LocationPreset, error) {
	var presets []models.LocationPreset
	query := `SELECT Id, Name, SortOrder, CreatedAt, UpdatedAt FROM LocationPresets ORDER BY SortOrder ASC, Id ASC`
	if err := MainDB.Select(&presets, query); err != nil {
		return nil, fmt.Errorf("GetAllLocationPresets: ошибка при получении предустановок: %w", err)
	}
	return presets, nil
}

// GetLocationPresetByID извлекает предустановку по ID.
func GetLocationPresetByID(id int64) (*models.LocationPreset, error) {
	preset := &models.LocationPreset{}
	err := MainDB.Get(preset, `SELECT Id, Name, SortOrder, CreatedAt, UpdatedAt FROM LocationPresets WHERE Id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Не найдено
		}
		return nil, fmt.Errorf("GetLocationPresetByID: ошибка при получении предустановки ID %d: %w", id, err)
	}
	return preset, nil
}

// UpdateLocationPreset обновляет имя и/или порядок предустановки.
func UpdateLocationPreset(id int64, req *models.LocationPresetRequest) (*models.LocationPreset, error) {
	preset, err := GetLocationPresetByID(id)
	if err != nil {
		return nil, err
	}
	if preset == nil {
		return nil, fmt.Errorf("UpdateLocationPreset: предустановка ID %d: %w", id, ErrNotFound)
	}

	if req.Name != "" {
		preset.Name = req.Name
	}
	if req.Order != nil {
		preset.SortOrder = *req.Order
	}
	preset.UpdatedAt = time.Now()

	query := `UPDATE LocationPresets SET Name = :Name, SortOrder = :SortOrder, UpdatedAt = :UpdatedAt WHERE Id = :Id`
	if _, err := MainDB.NamedExec(query, preset); err != nil {
		return nil, fmt.Errorf("UpdateLocationPreset: ошибка при обновлении предустановки ID %d: %w", id, err)
	}
	return preset, nil
}

// DeleteLocationPreset удаляет предустановку по ID.
func DeleteLocationPreset(id int64) error {
	result, err := MainDB.Exec(`DELETE FROM LocationPresets WHERE Id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteLocationPreset: ошибка при удалении предустановки ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("DeleteLocationPreset: предустановка ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// ReorderLocationPresets назначает каждой предустановке порядок, равный ее
// индексу в присланном списке. Список должен охватывать коллекцию целиком:
// частичное переупорядочивание не поддерживается. Возвращает полный список
// в новом порядке.
func ReorderLocationPresets(ids []int64) ([]models.LocationPreset, error) {
	var total int
	if err := MainDB.Get(&total, `SELECT COUNT(*) FROM LocationPresets`); err != nil {
		return nil, fmt.Errorf("ReorderLocationPresets: ошибка при подсчете предустановок: %w", err)
	}
	if len(ids) != total {
		return nil, fmt.Errorf("ReorderLocationPresets: прислано %d ID из %d: %w", len(ids), total, ErrValidation)
	}

	now := time.Now()
	err := withTx(func(tx *sqlx.Tx) error {
		for index, id := range ids {
			result, err := tx.Exec(`UPDATE LocationPresets SET SortOrder = ?, UpdatedAt = ? WHERE Id = ?`, index, now, id)
			if err != nil {
				return fmt.Errorf("ошибка при обновлении порядка предустановки ID %d: %w", id, err)
			}
			rowsAffected, _ := result.RowsAffected()
			if rowsAffected == 0 {
				return fmt.Errorf("предустановка ID %d: %w", id, ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ReorderLocationPresets: %w", err)
	}
	return GetAllLocationPresets()
}
