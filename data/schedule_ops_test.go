package data

import (
	"testing"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Повторный upsert той же ячейки обновляет строку, а не создает дубликат.
func TestUpsertScheduleNoDuplicate(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	first, err := UpsertSchedule(alice, "2024-06-03", models.CellValue{Am: strPtr("Office"), Pm: nil, Note: ""})
	require.NoError(t, err)

	second, err := UpsertSchedule(alice, "2024-06-03", models.CellValue{Am: strPtr("WFH"), Pm: strPtr("WFH"), Note: "дома"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "строка обновляется на месте")
	assert.Equal(t, "WFH", *second.Am)
	assert.Equal(t, "дома", second.Note)

	var count int
	require.NoError(t, MainDB.Get(&count, `SELECT COUNT(*) FROM Schedules`))
	assert.Equal(t, 1, count)
}

// Пустая ячейка не сохраняется.
func TestUpsertScheduleRejectsEmptyCell(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	_, err := UpsertSchedule(alice, "2024-06-03", models.CellValue{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpsertScheduleRejectsMalformedDate(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	_, err := UpsertSchedule(alice, "03.06.2024", models.CellValue{Am: strPtr("Office")})
	require.ErrorIs(t, err, ErrValidation)
}

// Удаление отсутствующей записи проходит без ошибки: желаемое состояние
// уже достигнуто.
func TestDeleteScheduleByIDMissingRowIsNoop(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, DeleteScheduleByID(12345))
}

// Диапазон включает обе границы.
func TestFindSchedulesInRangeInclusiveBounds(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	office := models.CellValue{Am: strPtr("Office"), Pm: nil, Note: ""}
	for _, date := range []string{"2024-05-31", "2024-06-01", "2024-06-30", "2024-07-01"} {
		_, err := UpsertSchedule(alice, date, office)
		require.NoError(t, err)
	}

	schedules, err := FindSchedulesInRange("2024-06-01", "2024-06-30")
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, "2024-06-01", schedules[0].Date)
	assert.Equal(t, "2024-06-30", schedules[1].Date)
}

// Удаление пользователя каскадно удаляет его расписание.
func TestDeleteUserCascadesSchedules(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	_, err := UpsertSchedule(alice, "2024-06-03", models.CellValue{Am: strPtr("Office")})
	require.NoError(t, err)

	require.NoError(t, DeleteUser(alice))

	var count int
	require.NoError(t, MainDB.Get(&count, `SELECT COUNT(*) FROM Schedules`))
	assert.Equal(t, 0, count)
}

func TestUpdateScheduleByIDNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := UpdateScheduleByID(999, models.CellValue{Am: strPtr("Office")})
	require.ErrorIs(t, err, ErrNotFound)
}
