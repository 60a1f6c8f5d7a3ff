// Package runtime deploys agents to AgentCore runtimes and drives the
// deployment demos. Two packaging modes are supported: a code zip
// uploaded to S3 and a container image pulled from ECR.
package runtime

import (
	"log/slog"
)

// Config carries the deployment settings for both packaging modes.
type Config struct {
	Region    string
	AccountID string

	// Code deployments.
	S3Bucket         string
	ExecutionRoleARN string
	PackagePath      string
	AgentName        string

	// Container deployments.
	ContainerRepository       string
	ContainerImageTag         string
	ContainerExecutionRoleARN string
	ContainerAgentName        string
}

// packageKey is where the code zip lands in the bucket.
func (c Config) packageKey() string {
	return c.AgentName + "/deployment_package.zip"
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
