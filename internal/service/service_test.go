package service

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/taskpilot/internal/db/dbtest"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-with-at-least-32-bytes!!"

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	tasks    repository.TaskRepository
	requests repository.PremiumRequestRepository
	email    *EmailService
	tokens   *TokenService
	auth     *AuthService
	taskSvc  *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		requests: repository.NewPremiumRequestRepository(db),
		email:    NewEmailService("", "noreply@example.com", "http://localhost:5173", "Taskpilot", true),
		tokens:   NewTokenService(testSecret, 7*24*time.Hour),
	}
	env.auth = NewAuthService(env.users, env.tokens, env.email)
	env.auth.bcryptCost = bcrypt.MinCost
	env.taskSvc = NewTaskService(env.tasks)
	return env
}

func (e *testEnv) signup(t *testing.T, email string) *model.User {
	t.Helper()
	user, _, err := e.auth.Signup("Test User", email, "correct horse battery")
	require.NoError(t, err)
	return user
}

func (e *testEnv) premium(t *testing.T, email string) *model.User {
	t.Helper()
	user := e.signup(t, email)
	require.NoError(t, e.users.SetPremium(user.ID))
	user.IsPremium = true
	return user
}

func (e *testEnv) task(t *testing.T, userID, title string) *model.Task {
	t.Helper()
	task, err := e.taskSvc.Create(userID, TaskForm{Title: title})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T {
	return &v
}
