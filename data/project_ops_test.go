package data

import (
	"testing"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectWithMembers(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	project, err := CreateProject(&models.ProjectRequest{Name: "Редизайн", UserIDs: []int64{alice, bob}})
	require.NoError(t, err)
	assert.Equal(t, []int64{alice, bob}, project.UserIDs)

	loaded, err := GetProjectByID(project.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Редизайн", loaded.Name)
	assert.Equal(t, []int64{alice, bob}, loaded.UserIDs)
}

// Обновление заменяет список участников целиком; nil оставляет его прежним.
func TestUpdateProjectReplacesMembers(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	project, err := CreateProject(&models.ProjectRequest{Name: "Редизайн", UserIDs: []int64{alice, bob}})
	require.NoError(t, err)

	updated, err := UpdateProject(project.ID, &models.ProjectRequest{UserIDs: []int64{bob}})
	require.NoError(t, err)
	assert.Equal(t, "Редизайн", updated.Name, "имя не изменилось")
	assert.Equal(t, []int64{bob}, updated.UserIDs)

	name := "Редизайн v2"
	renamed, err := UpdateProject(project.ID, &models.ProjectRequest{Name: name})
	require.NoError(t, err)
	assert.Equal(t, name, renamed.Name)
	assert.Equal(t, []int64{bob}, renamed.UserIDs, "участники не изменились")
}

// Удаление участника из системы каскадно убирает его из проектов.
func TestDeleteUserCascadesProjectMembership(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	project, err := CreateProject(&models.ProjectRequest{Name: "Редизайн", UserIDs: []int64{alice, bob}})
	require.NoError(t, err)

	require.NoError(t, DeleteUser(alice))

	loaded, err := GetProjectByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob}, loaded.UserIDs)
}

func TestDeleteProjectCascadesMembership(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")

	project, err := CreateProject(&models.ProjectRequest{Name: "Редизайн", UserIDs: []int64{alice}})
	require.NoError(t, err)
	require.NoError(t, DeleteProject(project.ID))

	var count int
	require.NoError(t, MainDB.Get(&count, `SELECT COUNT(*) FROM ProjectUsers`))
	assert.Equal(t, 0, count)

	loaded, err := GetProjectByID(project.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCreateProjectRejectsEmptyName(t *testing.T) {
	setupTestDB(t)

	_, err := CreateProject(&models.ProjectRequest{Name: ""})
	require.ErrorIs(t, err, ErrValidation)
}
