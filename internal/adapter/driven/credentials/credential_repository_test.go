package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

func signToken(t *testing.T, userID int64, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newRepo(t *testing.T, now time.Time) (*CredentialRepositoryImpl, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	repo := NewCredentialRepository(path).(*CredentialRepositoryImpl)
	repo.now = func() time.Time { return now }
	return repo, path
}

func TestSaveAndLoad(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo, path := newRepo(t, now)
	token := signToken(t, 42, now.Add(6*time.Hour))

	if err := repo.Save(entity.Credential{Token: token, Username: "alice"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("credentials file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %o", perm)
	}

	cred, err := repo.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cred.Token != token || cred.Username != "alice" || cred.UserID != 42 {
		t.Errorf("unexpected credential %+v", cred)
	}
	if !cred.ExpiresAt.Equal(now.Add(6 * time.Hour)) {
		t.Errorf("unexpected expiry %v", cred.ExpiresAt)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	repo, _ := newRepo(t, time.Now())

	cred, err := repo.Load()
	if !errors.Is(err, types.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if cred != nil {
		t.Errorf("expected no credential, got %+v", cred)
	}
}

func TestLoad_ExpiredToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo, _ := newRepo(t, now)
	if err := repo.Save(entity.Credential{Token: signToken(t, 1, now.Add(-time.Minute))}); err != nil {
		t.Fatal(err)
	}

	cred, err := repo.Load()
	if !errors.Is(err, types.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	var authErr *types.AuthError
	if !errors.As(err, &authErr) {
		t.Error("expired token should be an AuthError")
	}
	if cred == nil || cred.UserID != 1 {
		t.Errorf("expected the expired credential to be returned, got %+v", cred)
	}
}

func TestLoad_OpaqueToken(t *testing.T) {
	repo, _ := newRepo(t, time.Now())
	if err := repo.Save(entity.Credential{Token: "not-a-jwt"}); err != nil {
		t.Fatal(err)
	}

	cred, err := repo.Load()
	if err != nil {
		t.Fatalf("opaque tokens must load, got %v", err)
	}
	if cred.Token != "not-a-jwt" || !cred.ExpiresAt.IsZero() {
		t.Errorf("unexpected credential %+v", cred)
	}
}

func TestSave_EmptyToken(t *testing.T) {
	repo, _ := newRepo(t, time.Now())

	var validationErr *types.ValidationError
	if err := repo.Save(entity.Credential{}); !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestClear(t *testing.T) {
	repo, path := newRepo(t, time.Now())
	if err := repo.Save(entity.Credential{Token: "tok"}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file to be removed, got %v", err)
	}
	if err := repo.Clear(); err != nil {
		t.Errorf("second clear should be a no-op, got %v", err)
	}
	if _, err := repo.Load(); !errors.Is(err, types.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated after clear, got %v", err)
	}
}
