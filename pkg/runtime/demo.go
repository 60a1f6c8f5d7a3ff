package runtime

import (
	"context"
	"fmt"

	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

// CodeStep2 streams the agent source the code deployment packages.
func (d *Deployer) CodeStep2(ctx context.Context, stream transport.LineStream) error {
	if err := writeLines(ctx, stream, "The agent is a small Python program built on the AgentCore SDK:", codeAgentSource); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 2})
}

// CodeStep3 streams the package dependencies.
func (d *Deployer) CodeStep3(ctx context.Context, stream transport.LineStream) error {
	if err := writeLines(ctx, stream, "The deployment zip bundles the agent with two dependencies:", codeRequirements); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 3})
}

// CodeStep4 streams the execution role requirements.
func (d *Deployer) CodeStep4(ctx context.Context, stream transport.LineStream) error {
	if err := writeLines(ctx, stream, fmt.Sprintf("The runtime assumes %s:", d.cfg.ExecutionRoleARN), executionRolePolicy); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 4})
}

// PackageStep uploads the prebuilt deployment zip to S3.
func (d *Deployer) PackageStep(ctx context.Context) (map[string]any, error) {
	key, err := d.UploadPackage(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"bucket": d.cfg.S3Bucket,
		"key":    key,
	}, nil
}

// DeployStream creates the code runtime and streams status changes
// until it is ready.
func (d *Deployer) DeployStream(ctx context.Context, stream transport.LineStream, sessionID string) error {
	if err := stream.WriteLine(ctx, fmt.Sprintf("Creating agent runtime %s from s3://%s/%s...", d.cfg.AgentName, d.cfg.S3Bucket, d.cfg.packageKey())); err != nil {
		return err
	}
	dep, err := d.CreateCodeRuntime(ctx, sessionID)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Runtime %s created, waiting for READY...", dep.RuntimeID)); err != nil {
		return err
	}

	status, err := d.WaitReady(ctx, sessionID, func(s string) error {
		return stream.WriteLine(ctx, "Status: "+s)
	})
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}

	return stream.WriteDone(ctx, map[string]any{
		"runtime_id":  status.RuntimeID,
		"runtime_arn": status.RuntimeARN,
		"status":      status.Status,
	})
}

// ContainerStep1 streams the prerequisites for the container path.
func (d *Deployer) ContainerStep1(ctx context.Context, stream transport.LineStream) error {
	lines := []string{
		"The container path needs three things ready up front:",
		"- an ECR repository to push the image to",
		"- Docker with arm64 build support",
		"- an execution role the runtime can assume",
		"",
		fmt.Sprintf("This demo uses repository %q and role %s.", d.cfg.ContainerRepository, d.cfg.ContainerExecutionRoleARN),
	}
	if err := writeLines(ctx, stream, "", lines); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 1})
}

// ContainerStep2 streams the container agent source.
func (d *Deployer) ContainerStep2(ctx context.Context, stream transport.LineStream) error {
	if err := writeLines(ctx, stream, "The containerized agent reads its prompt from a nested input object:", containerAgentSource); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 2})
}

// ContainerStep3 streams the Dockerfile.
func (d *Deployer) ContainerStep3(ctx context.Context, stream transport.LineStream) error {
	if err := writeLines(ctx, stream, "The image is a slim Python base with the agent on top:", containerDockerfile); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 3})
}

// ContainerStep4 streams the build-and-push commands with the resolved
// image URI.
func (d *Deployer) ContainerStep4(ctx context.Context, stream transport.LineStream) error {
	lines := append([]string{}, containerPushCommands...)
	lines = append(lines, "", "Resolved image URI: "+d.cfg.ContainerImageURI())
	if err := writeLines(ctx, stream, "Build for arm64 and push to ECR:", lines); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 4})
}

// ContainerStep5 streams the effective container configuration.
func (d *Deployer) ContainerStep5(ctx context.Context, stream transport.LineStream) error {
	cfg := d.ContainerConfigView()
	lines := []string{
		"Repository:      " + cfg.Repository,
		"Image tag:       " + cfg.ImageTag,
		"Image URI:       " + cfg.ImageURI,
		"Execution role:  " + cfg.ExecutionRoleARN,
		"Agent name:      " + cfg.AgentName,
	}
	if err := writeLines(ctx, stream, "The runtime will be created with:", lines); err != nil {
		return err
	}
	return stream.WriteDone(ctx, map[string]any{"step": 5})
}

// ContainerStep6 creates the container runtime and streams status
// changes until it is ready.
func (d *Deployer) ContainerStep6(ctx context.Context, stream transport.LineStream, sessionID string) error {
	if err := stream.WriteLine(ctx, fmt.Sprintf("Creating agent runtime %s from %s...", d.cfg.ContainerAgentName, d.cfg.ContainerImageURI())); err != nil {
		return err
	}
	dep, err := d.CreateContainerRuntime(ctx, sessionID)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Runtime %s created, waiting for READY...", dep.RuntimeID)); err != nil {
		return err
	}

	status, err := d.WaitReady(ctx, sessionID, func(s string) error {
		return stream.WriteLine(ctx, "Status: "+s)
	})
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}

	return stream.WriteDone(ctx, map[string]any{
		"runtime_id":  status.RuntimeID,
		"runtime_arn": status.RuntimeARN,
		"status":      status.Status,
	})
}

func writeLines(ctx context.Context, stream transport.LineStream, intro string, lines []string) error {
	if intro != "" {
		if err := stream.WriteLine(ctx, intro); err != nil {
			return err
		}
	}
	for _, line := range lines {
		if err := stream.WriteLine(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
