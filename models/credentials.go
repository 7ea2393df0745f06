package models

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvAPIKey = "API_KEY"
	EnvCSEID  = "CSE_ID"
)

// ConfigError reports a missing or invalid setting. It is fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Credentials are what the search provider needs before a run can start.
type Credentials struct {
	APIKey string
	CSEID  string
}

// LoadCredentials reads API_KEY and CSE_ID from the environment,
// loading envFile first when it exists.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Credentials{}, &ConfigError{Field: "env", Err: fmt.Errorf("failed to load %s: %w", envFile, err)}
		}
	}

	creds := Credentials{
		APIKey: os.Getenv(EnvAPIKey),
		CSEID:  os.Getenv(EnvCSEID),
	}
	if creds.APIKey == "" || creds.CSEID == "" {
		return Credentials{}, &ConfigError{
			Field: "credentials",
			Err:   fmt.Errorf("%s and %s must be set (environment or .env file)", EnvAPIKey, EnvCSEID),
		}
	}
	return creds, nil
}
