package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/taskpilot/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository interface {
	Create(task *model.Task) error
	ByID(userID, taskID string) (*model.Task, error)
	Tasks(userID string) ([]*model.Task, error)
	Update(userID, taskID string, patch model.TaskPatch) error
	SetSuggestion(userID, taskID, suggestion string) (bool, error)
	CountSuggested(userID string) (int, error)
	Delete(userID, taskID string) (bool, error)
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *model.Task) error {
	query := `INSERT INTO tasks (id, user_id, title, description, deadline, priority, status, ai_suggestion, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Deadline,
		task.Priority,
		task.Status,
		task.AISuggestion,
		task.CreatedAt,
	)

	return err
}

// ByID only returns tasks owned by userID; foreign tasks look exactly like missing ones.
func (r *taskRepository) ByID(userID, taskID string) (*model.Task, error) {
	task := &model.Task{}
	query := `SELECT * FROM tasks WHERE id = $1 AND user_id = $2`

	err := r.db.Get(task, query, taskID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Tasks(userID string) ([]*model.Task, error) {
	tasks := []*model.Task{}
	query := `SELECT * FROM tasks WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.Select(&tasks, query, userID)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update writes only the columns present in patch.
func (r *taskRepository) Update(userID, taskID string, patch model.TaskPatch) error {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title.Set && patch.Title.Value != nil {
		add("title", *patch.Title.Value)
	}
	if patch.Description.Set {
		add("description", patch.Description.Value)
	}
	if patch.Deadline.Set {
		add("deadline", patch.Deadline.Value)
	}
	if patch.Priority.Set && patch.Priority.Value != nil {
		add("priority", *patch.Priority.Value)
	}
	if patch.Status.Set && patch.Status.Value != nil {
		add("status", *patch.Status.Value)
	}

	if len(sets) == 0 {
		_, err := r.ByID(userID, taskID)
		return err
	}

	args = append(args, taskID, userID)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	return expectRow(result, ErrTaskNotFound)
}

// SetSuggestion stores the suggestion only while none is present.
// It reports false when no row matched (task gone or already suggested).
func (r *taskRepository) SetSuggestion(userID, taskID, suggestion string) (bool, error) {
	query := `UPDATE tasks SET ai_suggestion = $1
	          WHERE id = $2 AND user_id = $3 AND (ai_suggestion IS NULL OR ai_suggestion = '')`

	result, err := r.db.Exec(query, suggestion, taskID, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *taskRepository) CountSuggested(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND ai_suggestion IS NOT NULL AND ai_suggestion <> ''`
	err := r.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

func (r *taskRepository) Delete(userID, taskID string) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, taskID, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
