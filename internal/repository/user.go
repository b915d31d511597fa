package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/taskpilot/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateGoogleID = errors.New("google account already linked")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByGoogleID(googleID string) (*model.User, error)
	LinkGoogleID(id, googleID string) error
	SetPremium(id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, google_id, is_premium, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.IsPremium,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "google_id") {
				return ErrDuplicateGoogleID
			}
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	return r.getOne(`SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	return r.getOne(`SELECT * FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByGoogleID(googleID string) (*model.User, error) {
	return r.getOne(`SELECT * FROM users WHERE google_id = $1`, googleID)
}

func (r *userRepository) getOne(query string, arg string) (*model.User, error) {
	user := &model.User{}

	err := r.db.Get(user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) LinkGoogleID(id, googleID string) error {
	result, err := r.db.Exec(`UPDATE users SET google_id = $1 WHERE id = $2`, googleID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateGoogleID
		}
		return err
	}
	return expectRow(result, ErrUserNotFound)
}

// SetPremium flips the premium flag on. There is no downgrade path.
func (r *userRepository) SetPremium(id string) error {
	result, err := r.db.Exec(`UPDATE users SET is_premium = $1 WHERE id = $2`, true, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrUserNotFound)
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
