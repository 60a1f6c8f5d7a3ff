package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for inconsistencies that would only
// surface later as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive, got %d", c.Server.MaxBodySize)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if strings.TrimSpace(c.AWS.Region) == "" {
		return fmt.Errorf("aws.region must not be empty")
	}
	if strings.TrimSpace(c.Model.ID) == "" {
		return fmt.Errorf("model.id must not be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be within [0, 1], got %g", c.Model.Temperature)
	}

	if c.Login.Enabled {
		if c.Login.Username == "" {
			return fmt.Errorf("login.username is required when login is enabled")
		}
		if c.Login.Password == "" {
			return fmt.Errorf("login.password is required when login is enabled")
		}
		if c.Login.TokenTTL <= 0 {
			return fmt.Errorf("login.token_ttl must be positive, got %s", c.Login.TokenTTL)
		}
	}

	switch c.Storage.Type {
	case "memory":
		if c.Storage.MaxSize <= 0 {
			return fmt.Errorf("storage.max_size must be positive, got %d", c.Storage.MaxSize)
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("storage.type must be memory or postgres, got %q", c.Storage.Type)
	}

	if c.Demo.StreamDelay < 0 {
		return fmt.Errorf("demo.stream_delay must not be negative, got %s", c.Demo.StreamDelay)
	}

	return nil
}
