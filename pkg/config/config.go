// Package config provides unified configuration for the showcase gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SHOWCASE_ prefix plus the legacy
//     AWS_* / LOGIN_* / *_MEMORY_ID names)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the showcase gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	AWS           AWSConfig           `yaml:"aws"`
	Model         ModelConfig         `yaml:"model"`
	Memory        MemoryConfig        `yaml:"memory"`
	Login         LoginConfig         `yaml:"login"`
	Storage       StorageConfig       `yaml:"storage"`
	Demo          DemoConfig          `yaml:"demo"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (streams run long)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MB
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// AWSConfig holds AWS account and deployment settings.
type AWSConfig struct {
	Region                    string `yaml:"region"`                       // default: us-west-2
	AccountID                 string `yaml:"account_id"`                   // required for container deploys
	S3Bucket                  string `yaml:"s3_bucket"`                    // required for code deploys
	ExecutionRoleARN          string `yaml:"execution_role_arn"`           // required for code deploys
	DeploymentPackagePath     string `yaml:"deployment_package_path"`      // local zip to upload
	AgentName                 string `yaml:"agent_name"`                   // default: agentcore_demo
	ContainerRepository       string `yaml:"container_repository"`         // ECR repository name
	ContainerImageTag         string `yaml:"container_image_tag"`          // default: latest
	ContainerExecutionRoleARN string `yaml:"container_execution_role_arn"` // falls back to execution_role_arn
	ContainerAgentName        string `yaml:"container_agent_name"`         // default: agentcore_container_demo
}

// ModelConfig holds Bedrock model invocation settings.
type ModelConfig struct {
	ID          string  `yaml:"id"`          // default: us.anthropic.claude-sonnet-4-5-20250929-v1:0
	MaxTokens   int32   `yaml:"max_tokens"`  // default: 2000
	Temperature float32 `yaml:"temperature"` // default: 0.7
}

// MemoryConfig holds AgentCore memory resource bindings.
type MemoryConfig struct {
	STMMemoryID string `yaml:"stm_memory_id"`
	LTMMemoryID string `yaml:"ltm_memory_id"`
}

// LoginConfig holds authentication settings. When Enabled is false every
// request runs as the default demo user.
type LoginConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	PasswordFile    string        `yaml:"password_file"`     // _file variant for password
	TokenSecret     string        `yaml:"token_secret"`      // HMAC secret for session tokens
	TokenSecretFile string        `yaml:"token_secret_file"` // _file variant for token_secret
	TokenTTL        time.Duration `yaml:"token_ttl"`         // default: 12h
}

// StorageConfig holds session/deployment record persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 1000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// DemoConfig holds pacing for the scripted demo streams.
type DemoConfig struct {
	StreamDelay time.Duration `yaml:"stream_delay"` // delay between SSE lines, default: 400ms
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		AWS: AWSConfig{
			Region:             "us-west-2",
			AgentName:          "agentcore_demo",
			ContainerImageTag:  "latest",
			ContainerAgentName: "agentcore_container_demo",
		},
		Model: ModelConfig{
			ID:          "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
			MaxTokens:   2000,
			Temperature: 0.7,
		},
		Login: LoginConfig{
			TokenTTL: 12 * time.Hour,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 1000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Demo: DemoConfig{
			StreamDelay: 400 * time.Millisecond,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
