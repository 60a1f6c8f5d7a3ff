// Package interpreter runs code and shell commands in AgentCore code
// interpreter sandboxes. A Client wraps the data-plane API; the Service
// tracks one sandbox per UI session and drives the scripted demos.
package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	actypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"

	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

// Identifier is the AWS-managed code interpreter used for all sessions.
const Identifier = "aws.codeinterpreter.v1"

// sessionTimeoutSeconds is the sandbox idle timeout requested at start.
const sessionTimeoutSeconds = 900

// AgentCoreAPI is the subset of the AgentCore data-plane client used for
// code interpreter sessions.
type AgentCoreAPI interface {
	StartCodeInterpreterSession(ctx context.Context, params *bedrockagentcore.StartCodeInterpreterSessionInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.StartCodeInterpreterSessionOutput, error)
	InvokeCodeInterpreter(ctx context.Context, params *bedrockagentcore.InvokeCodeInterpreterInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeCodeInterpreterOutput, error)
	StopCodeInterpreterSession(ctx context.Context, params *bedrockagentcore.StopCodeInterpreterSessionInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.StopCodeInterpreterSessionOutput, error)
}

// Result is the drained output of one interpreter invocation.
type Result struct {
	Output  string
	IsError bool
}

// File is one file written into the sandbox filesystem.
type File struct {
	Path string
	Text string
}

// Client wraps the AgentCore code interpreter data plane.
type Client struct {
	api AgentCoreAPI
}

// NewClient creates a code interpreter client.
func NewClient(apiClient AgentCoreAPI) *Client {
	return &Client{api: apiClient}
}

// StartSession starts a sandbox and returns its session ID.
func (c *Client) StartSession(ctx context.Context, name string) (string, error) {
	out, err := c.api.StartCodeInterpreterSession(ctx, &bedrockagentcore.StartCodeInterpreterSessionInput{
		CodeInterpreterIdentifier: aws.String(Identifier),
		Name:                      aws.String(name),
		SessionTimeoutSeconds:     aws.Int32(sessionTimeoutSeconds),
	})
	recordAWSCall("StartCodeInterpreterSession", err)
	if err != nil {
		return "", fmt.Errorf("starting interpreter session: %w", err)
	}
	return aws.ToString(out.SessionId), nil
}

// StopSession stops a sandbox.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	_, err := c.api.StopCodeInterpreterSession(ctx, &bedrockagentcore.StopCodeInterpreterSessionInput{
		CodeInterpreterIdentifier: aws.String(Identifier),
		SessionId:                 aws.String(sessionID),
	})
	recordAWSCall("StopCodeInterpreterSession", err)
	if err != nil {
		return fmt.Errorf("stopping interpreter session: %w", err)
	}
	return nil
}

// Execute runs code in the sandbox and returns the drained output.
func (c *Client) Execute(ctx context.Context, sessionID, code, language string) (*Result, error) {
	return c.invoke(ctx, sessionID, "executeCode", &actypes.ToolArguments{
		Language: actypes.ProgrammingLanguage(language),
		Code:     aws.String(code),
	})
}

// ExecuteCommand runs a shell command in the sandbox.
func (c *Client) ExecuteCommand(ctx context.Context, sessionID, command string) (*Result, error) {
	return c.invoke(ctx, sessionID, "executeCommand", &actypes.ToolArguments{
		Command: aws.String(command),
	})
}

// WriteFiles writes files into the sandbox filesystem.
func (c *Client) WriteFiles(ctx context.Context, sessionID string, files []File) (*Result, error) {
	content := make([]actypes.InputContentBlock, 0, len(files))
	for _, f := range files {
		content = append(content, actypes.InputContentBlock{
			Path: aws.String(f.Path),
			Text: aws.String(f.Text),
		})
	}
	return c.invoke(ctx, sessionID, "writeFiles", &actypes.ToolArguments{
		Content: content,
	})
}

// ListFiles lists a sandbox directory.
func (c *Client) ListFiles(ctx context.Context, sessionID, path string) (*Result, error) {
	return c.invoke(ctx, sessionID, "listFiles", &actypes.ToolArguments{
		Path: aws.String(path),
	})
}

// RemoveFiles deletes files from the sandbox filesystem.
func (c *Client) RemoveFiles(ctx context.Context, sessionID string, paths []string) (*Result, error) {
	return c.invoke(ctx, sessionID, "removeFiles", &actypes.ToolArguments{
		Paths: paths,
	})
}

// invoke calls one interpreter tool and drains its result stream.
func (c *Client) invoke(ctx context.Context, sessionID, tool string, args *actypes.ToolArguments) (*Result, error) {
	out, err := c.api.InvokeCodeInterpreter(ctx, &bedrockagentcore.InvokeCodeInterpreterInput{
		CodeInterpreterIdentifier: aws.String(Identifier),
		SessionId:                 aws.String(sessionID),
		Name:                      actypes.ToolName(tool),
		Arguments:                 args,
	})
	recordAWSCall("InvokeCodeInterpreter", err)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", tool, err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var sb strings.Builder
	isError := false
	for event := range stream.Events() {
		result, ok := event.(*actypes.CodeInterpreterStreamOutputMemberResult)
		if !ok {
			continue
		}
		if aws.ToBool(result.Value.IsError) {
			isError = true
		}
		for _, block := range result.Value.Content {
			if block.Type == actypes.ContentBlockTypeText && block.Text != nil {
				sb.WriteString(*block.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("reading %s result stream: %w", tool, err)
	}

	return &Result{Output: sb.String(), IsError: isError}, nil
}

// recordAWSCall updates the AWS request metrics.
func recordAWSCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore", operation, status).Inc()
}

// sessionName builds a readable sandbox name from a UI session ID.
func sessionName(uiSessionID string) string {
	name := "showcase-" + uiSessionID
	if len(name) > 60 {
		name = name[:60]
	}
	return name + "-" + fmt.Sprint(time.Now().Unix())
}
