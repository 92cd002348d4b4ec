package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/tennis-tournament/models"
)

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RolePlayer {
		t.Fatalf("expected default player role, got %s", user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash must not leak out of the service")
	}

	stored, err := userRepo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatal("stored password must be hashed")
	}
}

func TestRegisterCannotSelfAssignAdmin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "sneaky",
		Email:    "sneaky@example.com",
		Password: "secret1",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RolePlayer {
		t.Fatalf("admin self-assignment must fall back to player, got %s", user.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "secret1"}); !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("expected ErrUsernameRequired, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Username: "u", Email: "a@b.c", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestRegisterEmailConflict(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), RegisterInput{Username: "first", Email: "dup@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), RegisterInput{Username: "second", Email: "dup@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("expected ErrUserEmailConflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "secret1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Login(context.Background(), LoginInput{Email: "ivan@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "ivan" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "ivan@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Fatalf("expected ErrAuthInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "secret1"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Fatalf("expected ErrAuthInvalidCredentials for unknown email, got %v", err)
	}
}
