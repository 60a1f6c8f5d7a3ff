// Package browser manages AgentCore browser sandboxes and the browsing
// demo that narrates a task over the session's websocket.
package browser

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	actypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"

	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

// Identifier is the AWS-managed browser used for all sessions.
const Identifier = "aws.browser.v1"

// sessionTimeoutSeconds is the sandbox idle timeout requested at start.
const sessionTimeoutSeconds = 900

// AgentCoreAPI is the subset of the AgentCore data-plane client used
// for browser sessions.
type AgentCoreAPI interface {
	StartBrowserSession(ctx context.Context, params *bedrockagentcore.StartBrowserSessionInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.StartBrowserSessionOutput, error)
	GetBrowserSession(ctx context.Context, params *bedrockagentcore.GetBrowserSessionInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.GetBrowserSessionOutput, error)
	StopBrowserSession(ctx context.Context, params *bedrockagentcore.StopBrowserSessionInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.StopBrowserSessionOutput, error)
}

// Session describes a started browser sandbox.
type Session struct {
	SessionID     string
	Status        string
	LiveViewURL   string
	AutomationURL string
}

// Client wraps the AgentCore browser data plane.
type Client struct {
	api AgentCoreAPI
}

// NewClient creates a browser client.
func NewClient(apiClient AgentCoreAPI) *Client {
	return &Client{api: apiClient}
}

// Start launches a browser sandbox and returns its session with the
// live-view and automation stream endpoints.
func (c *Client) Start(ctx context.Context, name string) (*Session, error) {
	out, err := c.api.StartBrowserSession(ctx, &bedrockagentcore.StartBrowserSessionInput{
		BrowserIdentifier:     aws.String(Identifier),
		Name:                  aws.String(name),
		SessionTimeoutSeconds: aws.Int32(sessionTimeoutSeconds),
	})
	recordAWSCall("StartBrowserSession", err)
	if err != nil {
		return nil, fmt.Errorf("starting browser session: %w", err)
	}

	session := &Session{
		SessionID: aws.ToString(out.SessionId),
		Status:    "READY",
	}
	session.LiveViewURL, session.AutomationURL = streamEndpoints(out.Streams)
	return session, nil
}

// Get refreshes the status and endpoints of a browser sandbox.
func (c *Client) Get(ctx context.Context, sessionID string) (*Session, error) {
	out, err := c.api.GetBrowserSession(ctx, &bedrockagentcore.GetBrowserSessionInput{
		BrowserIdentifier: aws.String(Identifier),
		SessionId:         aws.String(sessionID),
	})
	recordAWSCall("GetBrowserSession", err)
	if err != nil {
		return nil, fmt.Errorf("getting browser session: %w", err)
	}

	session := &Session{
		SessionID: sessionID,
		Status:    string(out.Status),
	}
	session.LiveViewURL, session.AutomationURL = streamEndpoints(out.Streams)
	return session, nil
}

// Stop terminates a browser sandbox.
func (c *Client) Stop(ctx context.Context, sessionID string) error {
	_, err := c.api.StopBrowserSession(ctx, &bedrockagentcore.StopBrowserSessionInput{
		BrowserIdentifier: aws.String(Identifier),
		SessionId:         aws.String(sessionID),
	})
	recordAWSCall("StopBrowserSession", err)
	if err != nil {
		return fmt.Errorf("stopping browser session: %w", err)
	}
	return nil
}

func streamEndpoints(streams *actypes.BrowserSessionStream) (liveView, automation string) {
	if streams == nil {
		return "", ""
	}
	if streams.LiveViewStream != nil {
		liveView = aws.ToString(streams.LiveViewStream.StreamEndpoint)
	}
	if streams.AutomationStream != nil {
		automation = aws.ToString(streams.AutomationStream.StreamEndpoint)
	}
	return liveView, automation
}

func recordAWSCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore", operation, status).Inc()
}
