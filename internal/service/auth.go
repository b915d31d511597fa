package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepository repository.UserRepository
	tokenService   *TokenService
	emailService   *EmailService
	bcryptCost     int
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenService *TokenService,
	emailService *EmailService,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		tokenService:   tokenService,
		emailService:   emailService,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// Signup creates a password account and returns it with a fresh token.
func (s *AuthService) Signup(name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, "", ValidationError(err.Error())
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, "", ErrInvalidEmail
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, "", ValidationError(err.Error())
	}

	_, err = s.userRepository.ByEmail(email)
	if err == nil {
		return nil, "", ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: &hashedPassword,
		IsPremium:    false,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	err = s.userRepository.Create(user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent signup for the same address
		return nil, "", ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenService.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	err = s.emailService.SendWelcomeEmail(user.Email, user.Name)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user signed up", "user_id", user.ID)
	return user.Public(), token, nil
}

func (s *AuthService) Login(email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrCredentialsRequired
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	// Google-only accounts have no password to compare against
	if !user.HasPassword() {
		return nil, "", ErrInvalidCredentials
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user.Public(), token, nil
}

// Authenticate resolves a bearer token to its user. A token whose user no
// longer exists is treated as invalid.
func (s *AuthService) Authenticate(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	userID, err := s.tokenService.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user.Public(), nil
}

// AuthenticateGoogle signs in with a Google identity, linking it to an existing
// account with the same email or creating a password-less account.
func (s *AuthService) AuthenticateGoogle(googleID, email, name string) (*model.User, string, error) {
	email = normalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, "", ErrInvalidEmail
	}
	if googleID == "" {
		return nil, "", ValidationError("missing Google account id")
	}

	user, err := s.userRepository.ByGoogleID(googleID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to lookup user: %w", err)
	}

	if user == nil {
		user, err = s.userRepository.ByEmail(email)
		switch {
		case err == nil:
			err = s.userRepository.LinkGoogleID(user.ID, googleID)
			if err != nil {
				return nil, "", fmt.Errorf("failed to link google account: %w", err)
			}
			slog.Info("google account linked", "user_id", user.ID)

		case errors.Is(err, repository.ErrUserNotFound):
			name = strings.TrimSpace(name)
			if validation.ValidateName(name) != nil {
				name = strings.SplitN(email, "@", 2)[0]
			}

			user = &model.User{
				ID:        uuid.New().String(),
				Name:      name,
				Email:     email,
				GoogleID:  &googleID,
				CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
				// password_hash is NULL for Google accounts
			}
			err = s.userRepository.Create(user)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create user: %w", err)
			}

			err = s.emailService.SendWelcomeEmail(user.Email, user.Name)
			if err != nil {
				slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
			}
			slog.Info("new google user created", "user_id", user.ID)

		default:
			return nil, "", fmt.Errorf("failed to lookup user: %w", err)
		}
	}

	token, err := s.tokenService.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user.Public(), token, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
