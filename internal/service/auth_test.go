package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupLoginAuthenticate(t *testing.T) {
	env := newTestEnv(t)

	user, token, err := env.auth.Signup("  Ada  ", " Ada@Example.com ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsPremium)
	assert.Nil(t, user.PasswordHash)
	assert.NotEmpty(t, token)

	loggedIn, loginToken, err := env.auth.Login("ADA@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	authed, err := env.auth.Authenticate(loginToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	assert.Nil(t, authed.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "dup@example.com")

	_, _, err := env.auth.Signup("Other", "DUP@example.com", "another long password")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.Equal(t, KindConflict, KindOf(err))

	var count int
	require.NoError(t, env.db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = $1`, "dup@example.com"))
	assert.Equal(t, 1, count)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		want     error
	}{
		{"missing name", "", "a@example.com", "correct horse battery", nil},
		{"bad email", "Ada", "not-an-email", "correct horse battery", ErrInvalidEmail},
		{"short password", "Ada", "a@example.com", "short", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.auth.Signup(tt.userName, tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ada@example.com")

	_, _, err := env.auth.Login("", "")
	assert.ErrorIs(t, err, ErrCredentialsRequired)

	_, _, err = env.auth.Login("ada@example.com", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.auth.Login("nobody@example.com", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Authenticate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = env.auth.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Valid signature, but the user does not exist
	token, err := env.tokens.Issue("ghost")
	require.NoError(t, err)
	_, err = env.auth.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestAuthenticateGoogle(t *testing.T) {
	env := newTestEnv(t)

	created, token, err := env.auth.AuthenticateGoogle("g-1", "new@example.com", "New User")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "new@example.com", created.Email)

	again, _, err := env.auth.AuthenticateGoogle("g-1", "new@example.com", "New User")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// Google-only accounts cannot use password login
	_, _, err = env.auth.Login("new@example.com", "anything at all")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateGoogleLinksExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	existing := env.signup(t, "ada@example.com")

	linked, _, err := env.auth.AuthenticateGoogle("g-2", "Ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	byGoogle, err := env.users.ByGoogleID("g-2")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byGoogle.ID)

	// Password login keeps working after linking
	_, _, err = env.auth.Login("ada@example.com", "correct horse battery")
	assert.NoError(t, err)
}
