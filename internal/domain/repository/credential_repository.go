package repository

import "github.com/diillson/fintrack-dashboard-go/internal/domain/entity"

// CredentialRepository persiste o token entre execuções da CLI.
type CredentialRepository interface {
	Load() (*entity.Credential, error)
	Save(cred entity.Credential) error
	Clear() error
}
