package data

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/jmoiron/sqlx"
)

// CreateProject создает проект и привязывает к нему указанных пользователей.
func CreateProject(req *models.ProjectRequest) (*models.Project, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("CreateProject: пустое имя проекта: %w", ErrValidation)
	}

	now := time.Now()
	var project *models.Project
	err := withTx(func(tx *sqlx.Tx) error {
		result, err := tx.Exec(`INSERT INTO Projects (Name, CreatedAt, UpdatedAt) VALUES (?, ?, ?)`,
			req.Name, now, now)
		if err != nil {
			return fmt.Errorf("ошибка при вставке проекта: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("ошибка при получении LastInsertId: %w", err)
		}
		if err := replaceProjectUsersTx(tx, id, req.UserIDs); err != nil {
			return err
		}
		project = &models.Project{ID: id, Name: req.Name, CreatedAt: now, UpdatedAt: now, UserIDs: req.UserIDs}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("CreateProject: %w", err)
	}
	if project.UserIDs == nil {
		project.UserIDs = []int64{}
	}
	return project, nil
}

// GetAllProjects извлекает все проекты вместе со списками участников.
func GetAllProjects() ([]models.Project, error) {
	var projects []models.Project
	query := `SELECT Id, Name, CreatedAt, UpdatedAt FROM Projects ORDER BY CreatedAt ASC, Id ASC`
	if err := MainDB.Select(&projects, query); err != nil {
		return nil, fmt.Errorf("GetAllProjects: ошибка при получении проектов: %w", err)
	}
	for i := range projects {
		userIDs, err := getProjectUserIDs(projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].UserIDs = userIDs
	}
	return projects, nil
}

// GetProjectByID извлекает проект по ID вместе со списком участников.
func GetProjectByID(id int64) (*models.Project, error) {
	project := &models.Project{}
	err := MainDB.Get(project, `SELECT Id, Name, CreatedAt, UpdatedAt FROM Projects WHERE Id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Не найдено
		}
		return nil, fmt.Errorf("GetProjectByID: ошибка при получении проекта ID %d: %w", id, err)
	}
	userIDs, err := getProjectUserIDs(id)
	if err != nil {
		return nil, err
	}
	project.UserIDs = userIDs
	return project, nil
}

// UpdateProject обновляет имя проекта и заменяет список участников целиком.
// Nil в req.UserIDs оставляет участников без изменений.
func UpdateProject(id int64, req *models.ProjectRequest) (*models.Project, error) {
	existing, err := GetProjectByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("UpdateProject: проект ID %d: %w", id, ErrNotFound)
	}

	name := existing.Name
	if req.Name != "" {
		name = req.Name
	}
	now := time.Now()
	err = withTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`UPDATE Projects SET Name = ?, UpdatedAt = ? WHERE Id = ?`, name, now, id); err != nil {
			return fmt.Errorf("ошибка при обновлении проекта ID %d: %w", id, err)
		}
		if req.UserIDs != nil {
			if err := replaceProjectUsersTx(tx, id, req.UserIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateProject: %w", err)
	}
	return GetProjectByID(id)
}

// DeleteProject удаляет проект; привязки участников удаляются каскадно.
func DeleteProject(id int64) error {
	result, err := MainDB.Exec(`DELETE FROM Projects WHERE Id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteProject: ошибка при удалении проекта ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("DeleteProject: проект ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// getProjectUserIDs извлекает ID участников проекта.
func getProjectUserIDs(projectID int64) ([]int64, error) {
	userIDs := []int64{}
	err := MainDB.Select(&userIDs, `SELECT UserId FROM ProjectUsers WHERE ProjectId = ? ORDER BY UserId ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("getProjectUserIDs: ошибка при получении участников проекта ID %d: %w", projectID, err)
	}
	return userIDs, nil
}

// replaceProjectUsersTx заменяет привязки участников проекта целиком.
func replaceProjectUsersTx(tx *sqlx.Tx, projectID int64, userIDs []int64) error {
	if _, err := tx.Exec(`DELETE FROM ProjectUsers WHERE ProjectId = ?`, projectID); err != nil {
		return fmt.Errorf("ошибка при очистке участников проекта ID %d: %w", projectID, err)
	}
	for _, userID := range userIDs {
		if _, err := tx.Exec(`INSERT INTO ProjectUsers (ProjectId, UserId) VALUES (?, ?)`, projectID, userID); err != nil {
			return fmt.Errorf("ошибка при добавлении пользователя %d в проект %d: %w", userID, projectID, err)
		}
	}
	return nil
}

// withTx выполняет функцию в транзакции с откатом при ошибке.
func withTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := MainDB.Beginx()
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (ошибка отката: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}
