package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	backendFirebase = "firebase"
	backendMemory   = "memory"
)

// Config holds service configuration. Values come from the environment or
// an optional .env file.
type Config struct {
	Port              string `mapstructure:"PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	ProjectID         string `mapstructure:"PROJECT_ID"`
	StorageBackend    string `mapstructure:"STORAGE_BACKEND"`
	StorageBucket     string `mapstructure:"STORAGE_BUCKET"`
	CredentialsFile   string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	FirestoreEnabled  bool   `mapstructure:"FIRESTORE_ENABLED"`
	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`
	UploadMaxMemoryMB int64  `mapstructure:"UPLOAD_MAX_MEMORY_MB"`
	SignedURLSecretID string `mapstructure:"SIGNED_URL_SECRET_ID"`

	// Filled from Secret Manager, never from the environment.
	SignedURLServiceAccountEmail string `mapstructure:"-"`
	SignedURLPrivateKey          string `mapstructure:"-"`
}

// LoadConfig reads configuration from the environment, with defaults
// suitable for local development.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PROJECT_ID", "")
	v.SetDefault("STORAGE_BACKEND", backendFirebase)
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	v.SetDefault("FIRESTORE_ENABLED", true)
	v.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	v.SetDefault("UPLOAD_MAX_MEMORY_MB", 512)
	v.SetDefault("SIGNED_URL_SECRET_ID", "")

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "PROJECT_ID", "STORAGE_BACKEND", "STORAGE_BUCKET",
		"GOOGLE_CREDENTIALS_FILE", "FIRESTORE_ENABLED", "CORS_ALLOWED_ORIGIN",
		"UPLOAD_MAX_MEMORY_MB", "SIGNED_URL_SECRET_ID",
	} {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case backendMemory:
	case backendFirebase:
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the firebase storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", backendFirebase, backendMemory, c.StorageBackend)
	}
	if c.FirestoreEnabled && c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID is required when FIRESTORE_ENABLED is true")
	}
	if c.UploadMaxMemoryMB <= 0 {
		return fmt.Errorf("UPLOAD_MAX_MEMORY_MB must be positive, got %d", c.UploadMaxMemoryMB)
	}
	return nil
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "development"
}

// serviceAccountCreds is a minimal view of a GCP service account JSON key.
type serviceAccountCreds struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// loadSigningCreds loads the service account used to sign direct-upload URLs
// from Secret Manager. Signed URLs stay disabled when anything is missing.
func loadSigningCreds(ctx context.Context, projectID, secretID string, logger zerolog.Logger) (string, string) {
	if projectID == "" || secretID == "" {
		return "", ""
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("secret manager client init failed")
		return "", ""
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing secret manager client")
		}
	}()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretID)
	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		logger.Warn().Err(err).Str("secret", name).Msg("AccessSecretVersion failed")
		return "", ""
	}
	if resp.Payload == nil || len(resp.Payload.Data) == 0 {
		logger.Warn().Str("secret", name).Msg("secret has empty payload")
		return "", ""
	}

	var creds serviceAccountCreds
	if err := json.Unmarshal(resp.Payload.Data, &creds); err != nil {
		logger.Warn().Err(err).Str("secret", name).Msg("secret is not a service account key")
		return "", ""
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		logger.Warn().Str("secret", name).Msg("secret missing client_email or private_key")
		return "", ""
	}
	return creds.ClientEmail, creds.PrivateKey
}
