package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Env holds the FASHION_* environment overrides.
type Env struct {
	BaseURL              string `env:"FASHION_API_URL"`
	APIKey               string `env:"FASHION_API_KEY"`
	APIVersion           string `env:"FASHION_API_VERSION"`
	DataCollectionOptOut *bool  `env:"FASHION_DATA_COLLECTION_OPT_OUT"`
	Profile              string `env:"FASHION_PROFILE"`
	Output               string `env:"FASHION_OUTPUT"`
}

// LoadEnv parses the environment overrides.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// DotEnvPath is the .env file loaded on every run when it exists.
func DotEnvPath() string {
	return filepath.Join(Dir(), ".env")
}

// LoadDotEnv loads variables from the default .env file and then from
// explicit, which must exist when given. Variables already present in the
// environment are never overwritten.
func LoadDotEnv(explicit string) error {
	if err := godotenv.Load(DotEnvPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", DotEnvPath(), err)
	}
	if explicit == "" {
		return nil
	}
	if _, err := os.Stat(explicit); err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Load(explicit); err != nil {
		return fmt.Errorf("load %s: %w", explicit, err)
	}
	return nil
}

// ReadDotEnv reads a .env file without touching the environment.
func ReadDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}
