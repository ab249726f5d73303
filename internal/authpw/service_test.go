package authpw

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"taskhive/api/internal/store"
)

func validRequest() RegisterRequest {
	return RegisterRequest{
		Username:  "avery",
		Password:  "hunter22",
		FirstName: "Avery",
		LastName:  "Quinn",
		Email:     "avery@example.com",
	}
}

func TestRegisterCreatesUserWithHashedPassword(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewService(mem)

	user, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected id 1, got %d", user.ID)
	}
	if user.PasswordHash == "hunter22" || user.PasswordHash == "" {
		t.Fatalf("password was not hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterReportsAllInvalidFields(t *testing.T) {
	svc := NewService(store.NewMemoryStore())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:  "",
		Password:  "short",
		FirstName: " ",
		LastName:  "",
		Email:     "not-an-email",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "password", "firstName", "lastName", "email"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected violation for field %q, got %v", field, verr.Fields)
		}
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRequest()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(ctx, validRequest())
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRequest())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.SignIn(ctx, "avery", "hunter22")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %d, got %d", registered.ID, user.ID)
	}

	if _, err := svc.SignIn(ctx, "avery", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}
