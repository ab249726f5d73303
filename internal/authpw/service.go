// Package authpw provides username/password authentication.
package authpw

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"taskhive/api/internal/store"
)

// Service registers accounts and verifies credentials. It is the only
// component that sees plaintext passwords or password hashes.
type Service struct {
	store UserStore
}

// UserStore is the narrow slice of the data store the identity layer needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, firstName, lastName, email, passwordHash string) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// ValidationError reports every failing field of a register request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid registration input"
}

var ErrUsernameTaken = errors.New("username already taken")
var ErrInvalidCredentials = errors.New("invalid username or password")

// RegisterRequest contains the registration profile.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Register validates the profile, hashes the password, and creates the user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "Username is required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters"
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "Invalid email address"
	}
	if len(fields) > 0 {
		return store.User{}, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, err
	}

	user, err := s.store.CreateUser(ctx, strings.TrimSpace(req.Username), strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.Email, string(hash))
	if errors.Is(err, store.ErrUsernameTaken) {
		return store.User{}, ErrUsernameTaken
	}
	if err != nil {
		return store.User{}, err
	}
	return user, nil
}

// SignIn checks a username/password pair and returns the matching user.
// Lookup misses and hash mismatches are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, username, password string) (store.User, error) {
	if username == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
