package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Variáveis de ambiente reconhecidas.
const (
	EnvAPIURL      = "FINTRACK_API_URL"
	EnvTimeout     = "FINTRACK_TIMEOUT"
	EnvLogLevel    = "FINTRACK_LOG_LEVEL"
	EnvCredentials = "FINTRACK_CREDENTIALS"
	EnvS3Bucket    = "FINTRACK_S3_BUCKET"
	EnvAWSProfile  = "FINTRACK_AWS_PROFILE"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct {
	getenv func(string) string
}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{getenv: os.Getenv}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &config, nil
}

// LoadEnv lê as variáveis FINTRACK_*. Campos não definidos ficam vazios.
func (r *ConfigRepositoryImpl) LoadEnv() types.Config {
	return types.Config{
		APIURL:          r.getEnv(EnvAPIURL, ""),
		Timeout:         r.getEnv(EnvTimeout, ""),
		LogLevel:        r.getEnv(EnvLogLevel, ""),
		CredentialsFile: r.getEnv(EnvCredentials, ""),
		S3Bucket:        r.getEnv(EnvS3Bucket, ""),
		AWSProfile:      r.getEnv(EnvAWSProfile, ""),
	}
}

func (r *ConfigRepositoryImpl) getEnv(key, fallback string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return fallback
}
