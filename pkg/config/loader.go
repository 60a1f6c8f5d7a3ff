package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SHOWCASE_CONFIG env, ./config.yaml, /etc/showcase/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SHOWCASE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/showcase/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check SHOWCASE_CONFIG env var.
	if envPath := os.Getenv("SHOWCASE_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/showcase/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// AWS_* / LOGIN_* / *_MEMORY_ID names match what the deployment tooling
// already exports; SHOWCASE_* names cover the rest.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("AWS_REGION", &cfg.AWS.Region)
	setString("AWS_ACCOUNT_ID", &cfg.AWS.AccountID)
	setString("S3_BUCKET", &cfg.AWS.S3Bucket)
	setString("EXECUTION_ROLE_ARN", &cfg.AWS.ExecutionRoleARN)
	setString("DEPLOYMENT_PACKAGE_PATH", &cfg.AWS.DeploymentPackagePath)
	setString("AGENT_NAME", &cfg.AWS.AgentName)
	setString("CONTAINER_ECR_REPOSITORY_NAME", &cfg.AWS.ContainerRepository)
	setString("CONTAINER_IMAGE_TAG", &cfg.AWS.ContainerImageTag)
	setString("CONTAINER_EXECUTION_ROLE_ARN", &cfg.AWS.ContainerExecutionRoleARN)
	setString("STM_MEMORY_ID", &cfg.Memory.STMMemoryID)
	setString("LTM_MEMORY_ID", &cfg.Memory.LTMMemoryID)
	setString("LOGIN_USERNAME", &cfg.Login.Username)
	setString("LOGIN_PASSWORD", &cfg.Login.Password)

	if v := os.Getenv("LOGIN_ENABLE"); v != "" {
		cfg.Login.Enabled = parseBool(v)
	}

	setString("SHOWCASE_MODEL_ID", &cfg.Model.ID)
	setString("SHOWCASE_LOG_LEVEL", &cfg.Logging.Level)
	setString("SHOWCASE_LOG_FORMAT", &cfg.Logging.Format)
	setString("SHOWCASE_STORAGE", &cfg.Storage.Type)
	setString("SHOWCASE_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	setString("SHOWCASE_TOKEN_SECRET", &cfg.Login.TokenSecret)

	if v := os.Getenv("SHOWCASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SHOWCASE_STREAM_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Demo.StreamDelay = d
		}
	}
}

// parseBool interprets the truthy spellings the deployment tooling uses.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// login.password_file -> login.password
	if cfg.Login.PasswordFile != "" && cfg.Login.Password == "" {
		val, err := readSecretFile(cfg.Login.PasswordFile)
		if err != nil {
			return fmt.Errorf("login.password_file: %w", err)
		}
		cfg.Login.Password = val
	}

	// login.token_secret_file -> login.token_secret
	if cfg.Login.TokenSecretFile != "" && cfg.Login.TokenSecret == "" {
		val, err := readSecretFile(cfg.Login.TokenSecretFile)
		if err != nil {
			return fmt.Errorf("login.token_secret_file: %w", err)
		}
		cfg.Login.TokenSecret = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
