package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mjholt/waypost/internal/apperror"
)

// mockUserRepository lets each test plug in just the behavior it needs.
type mockUserRepository struct {
	createFunc          func(ctx context.Context, user *User) error
	findByIDFunc        func(ctx context.Context, id string) (*User, error)
	findByEmailFunc     func(ctx context.Context, email string) (*User, error)
	emailExistsFunc     func(ctx context.Context, email string) (bool, error)
	updateLastLoginFunc func(ctx context.Context, id string) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFunc != nil {
		return m.emailExistsFunc(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, id)
	}
	return nil
}

// newTestService builds a service on a fresh miniredis instance.
func newTestService(t *testing.T, repo UserRepository) (AuthService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewAuthService(repo, rdb, time.Hour), rdb
}

// assertAppError fails the test unless err is an AppError with the given code.
func assertAppError(t *testing.T, err error, wantCode int) *apperror.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with code %d, got nil", wantCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != wantCode {
		t.Fatalf("expected code %d, got %d (%v)", wantCode, appErr.Code, appErr)
	}
	return appErr
}

func TestRegister_Success(t *testing.T) {
	var created *User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:       "  Camper@Example.COM ",
		DisplayName: "Happy Camper",
		Password:    "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == "" {
		t.Error("expected a generated user ID")
	}
	if user.Email != "camper@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if created == nil {
		t.Fatal("expected repository Create to be called")
	}
	if created.PasswordHash == "correct horse battery" {
		t.Error("password stored in plaintext")
	}
	if !strings.HasPrefix(created.PasswordHash, "$argon2id$") {
		t.Errorf("expected argon2id hash, got %q", created.PasswordHash)
	}
	if !verifyPassword("correct horse battery", created.PasswordHash) {
		t.Error("stored hash does not verify against the original password")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		emailExistsFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "taken@example.com",
		DisplayName: "Somebody",
		Password:    "password123",
	})
	assertAppError(t, err, http.StatusConflict)
}

func seededUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	return &User{
		ID:           "user-1",
		Email:        "camper@example.com",
		DisplayName:  "Happy Camper",
		PasswordHash: hash,
	}
}

func TestLogin_Success(t *testing.T) {
	user := seededUser(t, "password123")
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			if email != "camper@example.com" {
				t.Errorf("expected normalized email lookup, got %q", email)
			}
			return user, nil
		},
	}
	svc, rdb := newTestService(t, repo)

	token, got, err := svc.Login(context.Background(), LoginInput{
		Email:    "Camper@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, got.ID)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Errorf("expected %d-char hex token, got %d chars", sessionTokenBytes*2, len(token))
	}

	data, err := rdb.Get(context.Background(), sessionKeyPrefix+token).Bytes()
	if err != nil {
		t.Fatalf("session not stored in Redis: %v", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("unmarshaling stored session: %v", err)
	}
	if session.UserID != user.ID || session.Name != user.DisplayName {
		t.Errorf("unexpected session contents: %+v", session)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := seededUser(t, "password123")
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "camper@example.com",
		Password: "wrong",
	})
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t, &mockUserRepository{})

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	// Same status as a wrong password so attackers can't probe for accounts.
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestValidateSession(t *testing.T) {
	user := seededUser(t, "password123")
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	svc, _ := newTestService(t, repo)

	token, _, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	session, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if session.UserID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, session.UserID)
	}

	_, err = svc.ValidateSession(context.Background(), "not-a-real-token")
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestDestroySession(t *testing.T) {
	user := seededUser(t, "password123")
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	svc, _ := newTestService(t, repo)

	token, _, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.DestroySession(context.Background(), token); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}

	_, err = svc.ValidateSession(context.Background(), token)
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$garbage",
		"$argon2id$v=19$m=65536,t=3,p=4$!!notbase64!!$AAAA",
	}
	for _, hash := range cases {
		if verifyPassword("password123", hash) {
			t.Errorf("verifyPassword accepted malformed hash %q", hash)
		}
	}
}
