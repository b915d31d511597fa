package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/taskpilot/internal/model"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := setup(t)
	repo := NewUserRepository(db)

	user := newUser(t, db, "ada@example.com")

	byID, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, "Test User", byID.Name)
	assert.False(t, byID.IsPremium)
	assert.True(t, byID.HasPassword())

	byEmail, err := repo.ByEmail("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(setup(t))

	_, err := repo.ByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.ByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.ByGoogleID("g-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setup(t)
	repo := NewUserRepository(db)
	newUser(t, db, "dup@example.com")

	err := repo.Create(&model.User{
		ID:        uuid.New().String(),
		Name:      "Other",
		Email:     "dup@example.com",
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = $1`, "dup@example.com"))
	assert.Equal(t, 1, count)
}

func TestUserRepository_SetPremium(t *testing.T) {
	db := setup(t)
	repo := NewUserRepository(db)
	user := newUser(t, db, "pro@example.com")

	require.NoError(t, repo.SetPremium(user.ID))

	got, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium)

	// idempotent
	require.NoError(t, repo.SetPremium(user.ID))

	assert.ErrorIs(t, repo.SetPremium("missing"), ErrUserNotFound)
}

func TestUserRepository_GoogleID(t *testing.T) {
	db := setup(t)
	repo := NewUserRepository(db)
	first := newUser(t, db, "g1@example.com")
	second := newUser(t, db, "g2@example.com")

	require.NoError(t, repo.LinkGoogleID(first.ID, "google-123"))

	got, err := repo.ByGoogleID("google-123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	err = repo.LinkGoogleID(second.ID, "google-123")
	assert.ErrorIs(t, err, ErrDuplicateGoogleID)
}
