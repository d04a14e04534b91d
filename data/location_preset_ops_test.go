package data

import (
	"testing"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPreset(t *testing.T, name string, order *int) *models.LocationPreset {
	t.Helper()
	preset, err := CreateLocationPreset(&models.LocationPresetRequest{Name: name, Order: order})
	require.NoError(t, err)
	return preset
}

// Без явного порядка первая предустановка получает 0, следующие — max + 1.
func TestCreateLocationPresetAppendsToEnd(t *testing.T) {
	setupTestDB(t)

	first := createTestPreset(t, "Офис", nil)
	assert.Equal(t, 0, first.SortOrder)

	second := createTestPreset(t, "Удаленно", nil)
	assert.Equal(t, 1, second.SortOrder)

	intPtr := func(v int) *int { return &v }
	explicit := createTestPreset(t, "Командировка", intPtr(10))
	assert.Equal(t, 10, explicit.SortOrder)

	// Следующая без порядка добавляется после явного максимума
	next := createTestPreset(t, "Отпуск", nil)
	assert.Equal(t, 11, next.SortOrder)
}

// Переупорядочивание назначает индекс в списке как порядок.
func TestReorderLocationPresets(t *testing.T) {
	setupTestDB(t)

	a := createTestPreset(t, "Офис", nil)
	b := createTestPreset(t, "Удаленно", nil)
	c := createTestPreset(t, "Командировка", nil)

	presets, err := ReorderLocationPresets([]int64{c.ID, a.ID, b.ID})
	require.NoError(t, err)

	require.Len(t, presets, 3)
	assert.Equal(t, "Командировка", presets[0].Name)
	assert.Equal(t, 0, presets[0].SortOrder)
	assert.Equal(t, "Офис", presets[1].Name)
	assert.Equal(t, 1, presets[1].SortOrder)
	assert.Equal(t, "Удаленно", presets[2].Name)
	assert.Equal(t, 2, presets[2].SortOrder)
}

// Частичный список отклоняется: переупорядочивание охватывает коллекцию целиком.
func TestReorderLocationPresetsRejectsPartialList(t *testing.T) {
	setupTestDB(t)

	a := createTestPreset(t, "Офис", nil)
	createTestPreset(t, "Удаленно", nil)

	_, err := ReorderLocationPresets([]int64{a.ID})
	require.ErrorIs(t, err, ErrValidation)

	// Порядок не изменился
	presets, err := GetAllLocationPresets()
	require.NoError(t, err)
	assert.Equal(t, 0, presets[0].SortOrder)
	assert.Equal(t, 1, presets[1].SortOrder)
}

// Неизвестный ID в списке откатывает всю операцию.
func TestReorderLocationPresetsUnknownIDRollsBack(t *testing.T) {
	setupTestDB(t)

	a := createTestPreset(t, "Офис", nil)
	b := createTestPreset(t, "Удаленно", nil)

	_, err := ReorderLocationPresets([]int64{b.ID, 999})
	require.ErrorIs(t, err, ErrNotFound)

	presets, err := GetAllLocationPresets()
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, a.ID, presets[0].ID, "исходный порядок сохранен после отката")
}

func TestCreateLocationPresetRejectsEmptyName(t *testing.T) {
	setupTestDB(t)

	_, err := CreateLocationPreset(&models.LocationPresetRequest{Name: ""})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteLocationPresetNotFound(t *testing.T) {
	setupTestDB(t)

	err := DeleteLocationPreset(42)
	require.ErrorIs(t, err, ErrNotFound)
}
