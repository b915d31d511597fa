package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/taskpilot/internal/db/dbtest"
	"github.com/templui/taskpilot/internal/model"
)

func newUser(t *testing.T, db *sqlx.DB, email string) *model.User {
	t.Helper()

	hash := "hash"
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, NewUserRepository(db).Create(user))
	return user
}

func newTask(t *testing.T, repo TaskRepository, userID, title string) *model.Task {
	t.Helper()

	task := &model.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Priority:  model.TaskPriorityMedium,
		Status:    model.TaskStatusIncomplete,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(task))
	return task
}

func setup(t *testing.T) *sqlx.DB {
	t.Helper()
	return dbtest.New(t)
}
