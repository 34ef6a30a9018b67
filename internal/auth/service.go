package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validator"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// Messages shown on the login and registration forms.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgTooManyAttempts    = "Too many login attempts. Please try again later."
	MsgPasswordMismatch   = "Passwords do not match!"
	MsgUsernameTaken      = "A user with that username already exists."
	MsgUsernameInvalid    = "Enter a valid username. This value may contain only letters, numbers, and _ or - characters (3-64)."
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *entities.User) error
	GetByID(id uint) (*entities.User, error)
	GetByUsername(username string) (*entities.User, error)
	UsernameTaken(username string) (bool, error)
	RecordLogin(id uint, at time.Time) error
	Count() (int64, error)
}

// Service handles authentication and user management.
type Service struct {
	users  UserRepository
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(users UserRepository, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		config: cfg,
		now:    time.Now,
	}
}

// RegisterForm is the self-service sign-up form.
type RegisterForm struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"-"`
	PasswordConfirm string `form:"password_confirm" json:"-"`
}

// Register validates the form and creates a non-admin account. Invalid input
// yields validator.Errors and persists nothing.
func (s *Service) Register(form RegisterForm) (*entities.User, error) {
	v := validator.New()
	username := strings.TrimSpace(form.Username)
	email := strings.TrimSpace(form.Email)

	v.Check(form.Password == form.PasswordConfirm, "password_confirm", MsgPasswordMismatch)
	v.Check(username != "", "username", validator.MsgRequired)
	v.Check(usernamePattern.MatchString(username), "username", MsgUsernameInvalid)
	if email != "" {
		v.Check(validator.IsEmail(email), "email", validator.MsgInvalidEmail)
	}
	v.Check(form.Password != "", "password", validator.MsgRequired)
	v.Check(len(form.Password) >= MinPasswordLength, "password",
		fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	v.Check(len(form.Password) <= MaxPasswordLength, "password",
		fmt.Sprintf("This password is too long. It must contain at most %d characters.", MaxPasswordLength))

	if v.Valid() {
		taken, err := s.users.UsernameTaken(username)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		v.Check(!taken, "username", MsgUsernameTaken)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	return s.CreateUser(username, email, form.Password, false)
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(username, email, password string, isAdmin bool) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if email != "" && !validator.IsEmail(email) {
		return nil, ErrEmailInvalid
	}

	taken, err := s.users.UsernameTaken(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}

	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user. Unknown users
// and wrong passwords both yield ErrInvalidCredentials; repeated failures
// are throttled by LoginThrottle, not here.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if err := s.users.RecordLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
