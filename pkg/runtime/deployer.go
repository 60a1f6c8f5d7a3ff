package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	cctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/debug"
	"github.com/avollmer/agentcore-showcase/pkg/observability"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

// invokeQualifier selects the runtime endpoint version.
const invokeQualifier = "DEFAULT"

// statusPollInterval is how often deploy streams check runtime status.
var statusPollInterval = 5 * time.Second

// ControlAPI is the subset of the AgentCore control-plane client used
// for runtime deployments.
type ControlAPI interface {
	CreateAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.CreateAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateAgentRuntimeOutput, error)
	GetAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.GetAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.GetAgentRuntimeOutput, error)
	DeleteAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.DeleteAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.DeleteAgentRuntimeOutput, error)
}

// InvokeAPI is the data-plane surface for invoking deployed runtimes.
type InvokeAPI interface {
	InvokeAgentRuntime(ctx context.Context, params *bedrockagentcore.InvokeAgentRuntimeInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeAgentRuntimeOutput, error)
}

// S3API is the bucket surface for deployment packages.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Deployer manages agent runtime deployments, one per UI session.
type Deployer struct {
	control ControlAPI
	invoker InvokeAPI
	s3api   S3API
	store   storage.Store
	cfg     Config
	logger  *slog.Logger

	readFile func(string) ([]byte, error)
}

// NewDeployer creates a deployer.
func NewDeployer(control ControlAPI, invoker InvokeAPI, s3api S3API, store storage.Store, cfg Config, logger *slog.Logger) *Deployer {
	return &Deployer{
		control:  control,
		invoker:  invoker,
		s3api:    s3api,
		store:    store,
		cfg:      cfg,
		logger:   loggerOrDefault(logger),
		readFile: os.ReadFile,
	}
}

// UploadPackage reads the prebuilt deployment zip and uploads it to the
// configured bucket. Returns the object key.
func (d *Deployer) UploadPackage(ctx context.Context) (string, error) {
	if d.cfg.S3Bucket == "" {
		return "", api.NewInvalidRequestError("", "no S3 bucket configured; set S3_BUCKET")
	}
	data, err := d.readFile(d.cfg.PackagePath)
	if err != nil {
		return "", api.NewInvalidRequestError("", fmt.Sprintf("reading deployment package %s: %v", d.cfg.PackagePath, err))
	}

	key := d.cfg.packageKey()
	_, err = d.s3api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.cfg.S3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	recordS3Call("PutObject", err)
	if err != nil {
		return "", fmt.Errorf("uploading deployment package: %w", err)
	}

	d.logger.Info("uploaded deployment package",
		slog.String("bucket", d.cfg.S3Bucket),
		slog.String("key", key),
		slog.Int("bytes", len(data)),
	)
	return key, nil
}

// CreateCodeRuntime creates an agent runtime from the uploaded code
// package and records the deployment for the session.
func (d *Deployer) CreateCodeRuntime(ctx context.Context, sessionID string) (*storage.Deployment, error) {
	out, err := d.control.CreateAgentRuntime(ctx, &bedrockagentcorecontrol.CreateAgentRuntimeInput{
		AgentRuntimeName: aws.String(d.cfg.AgentName),
		RoleArn:          aws.String(d.cfg.ExecutionRoleARN),
		ClientToken:      aws.String(api.NewClientToken()),
		AgentRuntimeArtifact: &cctypes.AgentRuntimeArtifactMemberCodeConfiguration{
			Value: cctypes.CodeConfiguration{
				Code: &cctypes.CodeMemberS3{
					Value: cctypes.S3Location{
						Bucket: aws.String(d.cfg.S3Bucket),
						Prefix: aws.String(d.cfg.packageKey()),
					},
				},
				Runtime:    cctypes.AgentManagedRuntimeTypePython313,
				EntryPoint: []string{"main.py"},
			},
		},
		NetworkConfiguration: &cctypes.NetworkConfiguration{
			NetworkMode: cctypes.NetworkModePublic,
		},
	})
	recordControlCall("CreateAgentRuntime", err)
	if err != nil {
		return nil, fmt.Errorf("creating agent runtime: %w", err)
	}

	return d.recordDeployment(ctx, sessionID, api.DeploymentTypeCode, out)
}

// CreateContainerRuntime creates an agent runtime from the configured
// container image and records the deployment for the session.
func (d *Deployer) CreateContainerRuntime(ctx context.Context, sessionID string) (*storage.Deployment, error) {
	if d.cfg.ContainerRepository == "" {
		return nil, api.NewInvalidRequestError("", "no container repository configured; set CONTAINER_ECR_REPOSITORY_NAME")
	}

	out, err := d.control.CreateAgentRuntime(ctx, &bedrockagentcorecontrol.CreateAgentRuntimeInput{
		AgentRuntimeName: aws.String(d.cfg.ContainerAgentName),
		RoleArn:          aws.String(d.cfg.ContainerExecutionRoleARN),
		ClientToken:      aws.String(api.NewClientToken()),
		AgentRuntimeArtifact: &cctypes.AgentRuntimeArtifactMemberContainerConfiguration{
			Value: cctypes.ContainerConfiguration{
				ContainerUri: aws.String(d.cfg.ContainerImageURI()),
			},
		},
		NetworkConfiguration: &cctypes.NetworkConfiguration{
			NetworkMode: cctypes.NetworkModePublic,
		},
	})
	recordControlCall("CreateAgentRuntime", err)
	if err != nil {
		return nil, fmt.Errorf("creating container agent runtime: %w", err)
	}

	return d.recordDeployment(ctx, sessionID, api.DeploymentTypeContainer, out)
}

func (d *Deployer) recordDeployment(ctx context.Context, sessionID string, dt api.DeploymentType, out *bedrockagentcorecontrol.CreateAgentRuntimeOutput) (*storage.Deployment, error) {
	now := time.Now()
	dep := &storage.Deployment{
		SessionID:      sessionID,
		DeploymentType: string(dt),
		RuntimeID:      aws.ToString(out.AgentRuntimeId),
		RuntimeARN:     aws.ToString(out.AgentRuntimeArn),
		RuntimeVersion: aws.ToString(out.AgentRuntimeVersion),
		Status:         string(out.Status),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if dt == api.DeploymentTypeContainer {
		dep.AgentName = d.cfg.ContainerAgentName
		dep.ImageURI = d.cfg.ContainerImageURI()
	} else {
		dep.AgentName = d.cfg.AgentName
		dep.S3Key = d.cfg.packageKey()
	}
	if err := d.store.PutDeployment(ctx, dep); err != nil {
		return nil, err
	}

	d.logger.Info("created agent runtime",
		slog.String("session_id", sessionID),
		slog.String("deployment_type", string(dt)),
		slog.String("runtime_id", dep.RuntimeID),
	)
	return dep, nil
}

// Status returns the current runtime status for the session's
// deployment.
func (d *Deployer) Status(ctx context.Context, sessionID string) (*api.RuntimeStatusResult, error) {
	dep, err := d.store.GetDeployment(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewNotFoundError(fmt.Sprintf("no deployment for session %q", sessionID))
	}
	if err != nil {
		return nil, err
	}

	out, err := d.control.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
		AgentRuntimeId: aws.String(dep.RuntimeID),
	})
	recordControlCall("GetAgentRuntime", err)
	if err != nil {
		return nil, fmt.Errorf("getting agent runtime: %w", err)
	}

	status := string(out.Status)
	if status != dep.Status {
		dep.Status = status
		dep.UpdatedAt = time.Now()
		if err := d.store.PutDeployment(ctx, dep); err != nil {
			return nil, err
		}
	}

	return &api.RuntimeStatusResult{
		Status:     status,
		RuntimeID:  dep.RuntimeID,
		RuntimeARN: dep.RuntimeARN,
		Ready:      status == string(cctypes.AgentRuntimeStatusReady),
		Failed:     isFailedStatus(status),
	}, nil
}

// WaitReady polls until the runtime is READY or failed, reporting each
// status change through report.
func (d *Deployer) WaitReady(ctx context.Context, sessionID string, report func(status string) error) (*api.RuntimeStatusResult, error) {
	last := ""
	for {
		status, err := d.Status(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if status.Status != last {
			last = status.Status
			if report != nil {
				if err := report(status.Status); err != nil {
					return nil, err
				}
			}
		}
		if status.Ready {
			return status, nil
		}
		if status.Failed {
			return status, api.NewServerError(fmt.Sprintf("runtime entered %s", status.Status))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(statusPollInterval):
		}
	}
}

// Invoke sends a prompt to the session's deployed runtime and returns
// the agent's reply.
func (d *Deployer) Invoke(ctx context.Context, req *api.InvokeRuntimeRequest) (*api.InvokeRuntimeResult, error) {
	if err := api.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	if err := api.ValidateRuntimeSessionID(req.RuntimeSessionID); err != nil {
		return nil, err
	}

	dep, err := d.store.GetDeployment(ctx, req.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewNotFoundError(fmt.Sprintf("no deployment for session %q", req.SessionID))
	}
	if err != nil {
		return nil, err
	}

	runtimeSessionID := req.RuntimeSessionID
	if runtimeSessionID == "" {
		runtimeSessionID = api.NewRuntimeSessionID()
	}

	payload, err := invokePayload(api.DeploymentType(dep.DeploymentType), req.Prompt)
	if err != nil {
		return nil, err
	}

	out, err := d.invoker.InvokeAgentRuntime(ctx, &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(dep.RuntimeARN),
		RuntimeSessionId: aws.String(runtimeSessionID),
		Qualifier:        aws.String(invokeQualifier),
		Payload:          payload,
	})
	recordDataCall("InvokeAgentRuntime", err)
	if err != nil {
		return nil, fmt.Errorf("invoking agent runtime: %w", err)
	}

	body, err := io.ReadAll(out.Response)
	out.Response.Close()
	if err != nil {
		return nil, fmt.Errorf("reading agent response: %w", err)
	}
	debug.Trace("runtime", "agent runtime reply", "session_id", req.SessionID,
		"body", debug.Truncate(string(body), 500))

	return &api.InvokeRuntimeResult{
		Response:         extractResponseText(body),
		RuntimeSessionID: runtimeSessionID,
	}, nil
}

// Cleanup tears down the session's deployment: the runtime, the
// uploaded package for code deployments, and the tracked record.
func (d *Deployer) Cleanup(ctx context.Context, sessionID string) (*api.CleanupResult, error) {
	dep, err := d.store.GetDeployment(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewNotFoundError(fmt.Sprintf("no deployment for session %q", sessionID))
	}
	if err != nil {
		return nil, err
	}

	result := &api.CleanupResult{}

	if dep.RuntimeID != "" {
		_, err := d.control.DeleteAgentRuntime(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeInput{
			AgentRuntimeId: aws.String(dep.RuntimeID),
			ClientToken:    aws.String(api.NewClientToken()),
		})
		recordControlCall("DeleteAgentRuntime", err)
		if err != nil {
			d.logger.Warn("deleting agent runtime",
				slog.String("runtime_id", dep.RuntimeID),
				slog.String("error", err.Error()),
			)
		} else {
			result.RuntimeDeleted = true
		}
	}

	if dep.S3Key != "" && d.cfg.S3Bucket != "" {
		_, err := d.s3api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(d.cfg.S3Bucket),
			Key:    aws.String(dep.S3Key),
		})
		recordS3Call("DeleteObject", err)
		if err != nil {
			d.logger.Warn("deleting deployment package",
				slog.String("key", dep.S3Key),
				slog.String("error", err.Error()),
			)
		} else {
			result.PackageDeleted = true
		}
	}

	if err := d.store.DeleteDeployment(ctx, sessionID); err != nil {
		return nil, err
	}
	result.SessionReleased = true
	return result, nil
}

// ReleaseSession drops the tracked deployment record without touching
// AWS resources.
func (d *Deployer) ReleaseSession(ctx context.Context, sessionID string) error {
	err := d.store.DeleteDeployment(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(fmt.Sprintf("no deployment for session %q", sessionID))
	}
	return err
}

// Deployments lists all tracked deployments.
func (d *Deployer) Deployments(ctx context.Context) ([]api.DeploymentView, error) {
	deps, err := d.store.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]api.DeploymentView, 0, len(deps))
	for _, dep := range deps {
		views = append(views, api.DeploymentView{
			SessionID:      dep.SessionID,
			DeploymentType: api.DeploymentType(dep.DeploymentType),
			AgentName:      dep.AgentName,
			RuntimeID:      dep.RuntimeID,
			RuntimeARN:     dep.RuntimeARN,
			Status:         dep.Status,
			S3Key:          dep.S3Key,
			ImageURI:       dep.ImageURI,
			CreatedAt:      dep.CreatedAt,
		})
	}
	return views, nil
}

// ConfigView exposes the effective code-deployment settings.
func (d *Deployer) ConfigView() *api.RuntimeConfigView {
	return &api.RuntimeConfigView{
		Region:           d.cfg.Region,
		AccountID:        d.cfg.AccountID,
		S3Bucket:         d.cfg.S3Bucket,
		ExecutionRoleARN: d.cfg.ExecutionRoleARN,
		PackagePath:      d.cfg.PackagePath,
		AgentName:        d.cfg.AgentName,
	}
}

// ContainerConfigView exposes the effective container-deployment
// settings.
func (d *Deployer) ContainerConfigView() *api.ContainerConfigView {
	return &api.ContainerConfigView{
		Repository:       d.cfg.ContainerRepository,
		ImageTag:         d.cfg.ContainerImageTag,
		ImageURI:         d.cfg.ContainerImageURI(),
		ExecutionRoleARN: d.cfg.ContainerExecutionRoleARN,
		AgentName:        d.cfg.ContainerAgentName,
	}
}

// invokePayload builds the request body the deployed agent expects.
// Code agents read a top-level prompt, container agents a nested input
// object.
func invokePayload(dt api.DeploymentType, prompt string) ([]byte, error) {
	var body any
	switch dt {
	case api.DeploymentTypeContainer:
		body = map[string]any{"input": map[string]any{"prompt": prompt}}
	default:
		body = map[string]any{"prompt": prompt}
	}
	return json.Marshal(body)
}

// extractResponseText pulls the reply text out of the agent's JSON
// response, falling back to the raw body.
func extractResponseText(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	for _, key := range []string{"result", "response", "output"} {
		if s, ok := parsed[key].(string); ok && s != "" {
			return s
		}
	}
	return string(body)
}

func isFailedStatus(status string) bool {
	return status == string(cctypes.AgentRuntimeStatusCreateFailed) ||
		status == string(cctypes.AgentRuntimeStatusUpdateFailed)
}

func recordControlCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore-control", operation, status).Inc()
}

func recordDataCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore", operation, status).Inc()
}

func recordS3Call(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("s3", operation, status).Inc()
}
