package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"promptly/internal/domain"
	"promptly/internal/repository"
)

type mockUserRepo struct {
	byEmail   map[string]domain.User
	byID      map[string]domain.User
	created   []domain.User
	createErr error
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	m := &mockUserRepo{byEmail: make(map[string]domain.User), byID: make(map[string]domain.User)}
	for _, u := range users {
		m.byEmail[u.Email] = u
		m.byID[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, user)
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type stubLimiter struct{ allow bool }

func (s stubLimiter) Allow(string) bool { return s.allow }

func TestUserServiceRegister(t *testing.T) {
	t.Run("registra y hashea la contraseña", func(t *testing.T) {
		repo := newMockUserRepo()
		svc := NewUserService(zap.NewNop(), repo, stubLimiter{allow: true})

		user, err := svc.Register(context.Background(), RegisterInput{
			Email:    "  Fer@Example.com ",
			FullName: "Fer",
			Password: "secreta123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "fer@example.com" {
			t.Fatalf("expected normalized email, got %q", user.Email)
		}
		if user.PasswordHash == "secreta123" || user.PasswordHash == "" {
			t.Fatalf("expected hashed password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secreta123")); err != nil {
			t.Fatalf("hash does not match password: %v", err)
		}
		if len(repo.created) != 1 {
			t.Fatalf("expected user persisted")
		}
	})

	t.Run("email duplicado", func(t *testing.T) {
		repo := newMockUserRepo(domain.User{ID: "u1", Email: "fer@example.com"})
		svc := NewUserService(zap.NewNop(), repo, stubLimiter{allow: true})

		_, err := svc.Register(context.Background(), RegisterInput{Email: "fer@example.com", Password: "x12345"})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("entrada invalida", func(t *testing.T) {
		svc := NewUserService(zap.NewNop(), newMockUserRepo(), stubLimiter{allow: true})
		if _, err := svc.Register(context.Background(), RegisterInput{Email: "  ", Password: "x"}); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
		if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "  "}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestUserServiceAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	existing := domain.User{ID: "u1", Email: "fer@example.com", PasswordHash: string(hash)}

	t.Run("credenciales correctas", func(t *testing.T) {
		svc := NewUserService(zap.NewNop(), newMockUserRepo(existing), stubLimiter{allow: true})
		user, err := svc.Authenticate(context.Background(), "FER@example.com", "secreta123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != "u1" {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	t.Run("contraseña incorrecta", func(t *testing.T) {
		svc := NewUserService(zap.NewNop(), newMockUserRepo(existing), stubLimiter{allow: true})
		if _, err := svc.Authenticate(context.Background(), "fer@example.com", "otra"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("usuario inexistente", func(t *testing.T) {
		svc := NewUserService(zap.NewNop(), newMockUserRepo(), stubLimiter{allow: true})
		if _, err := svc.Authenticate(context.Background(), "nadie@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rate limit", func(t *testing.T) {
		svc := NewUserService(zap.NewNop(), newMockUserRepo(existing), stubLimiter{allow: false})
		if _, err := svc.Authenticate(context.Background(), "fer@example.com", "secreta123"); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})
}

func TestUserServiceGetByID(t *testing.T) {
	existing := domain.User{ID: "u1", Email: "fer@example.com"}
	svc := NewUserService(zap.NewNop(), newMockUserRepo(existing), stubLimiter{allow: true})

	if user, err := svc.GetByID(context.Background(), "u1"); err != nil || user.Email != "fer@example.com" {
		t.Fatalf("unexpected result: %+v, %v", user, err)
	}
	if _, err := svc.GetByID(context.Background(), "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
