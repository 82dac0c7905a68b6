package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

// credentialFile é o formato gravado em disco.
type credentialFile struct {
	Token    string    `yaml:"token"`
	Username string    `yaml:"username,omitempty"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// tokenClaims são os campos que o servidor coloca no JWT.
type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// CredentialRepositoryImpl guarda o token num arquivo YAML legível só pelo dono.
type CredentialRepositoryImpl struct {
	path string
	now  func() time.Time
}

// NewCredentialRepository cria o repositório. Um path vazio usa DefaultPath.
func NewCredentialRepository(path string) repository.CredentialRepository {
	if path == "" {
		path = DefaultPath()
	}
	return &CredentialRepositoryImpl{path: path, now: time.Now}
}

// DefaultPath retorna $HOME/.fintrack/credentials.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fintrack", "credentials.yaml")
	}
	return filepath.Join(home, ".fintrack", "credentials.yaml")
}

// Load reads the stored credential. A missing file means nobody is logged in.
// An expired token is returned together with types.ErrTokenExpired so the
// caller can clear it.
func (r *CredentialRepositoryImpl) Load() (*entity.Credential, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("error reading credentials file: %w", err)
	}

	var stored credentialFile
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("error parsing credentials file: %w", err)
	}
	if stored.Token == "" {
		return nil, types.ErrNotAuthenticated
	}

	cred := Inspect(stored.Token)
	cred.Username = stored.Username
	if cred.Expired(r.now()) {
		return &cred, types.ErrTokenExpired
	}
	return &cred, nil
}

// Save grava o token com permissão 0600, criando o diretório se preciso.
func (r *CredentialRepositoryImpl) Save(cred entity.Credential) error {
	if cred.Token == "" {
		return &types.ValidationError{Field: "token", Message: "empty token"}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("error creating credentials directory: %w", err)
	}

	data, err := yaml.Marshal(credentialFile{
		Token:    cred.Token,
		Username: cred.Username,
		SavedAt:  r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("error encoding credentials: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("error writing credentials file: %w", err)
	}
	return nil
}

// Clear remove o arquivo. Não é erro se ele já não existir.
func (r *CredentialRepositoryImpl) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing credentials file: %w", err)
	}
	return nil
}

// Inspect reads the user id and expiry from a JWT without verifying its
// signature; only the server holds the key. Tokens that are not JWTs are
// kept as opaque credentials with no known expiry.
func Inspect(token string) entity.Credential {
	cred := entity.Credential{Token: token}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return cred
	}

	cred.UserID = claims.UserID
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred
}
