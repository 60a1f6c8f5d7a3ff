// Package memory manages AgentCore memory resources and the short- and
// long-term memory demos. The control client creates and deletes memory
// resources, the data client stores and retrieves conversational events
// and extracted records.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	cctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

const (
	// Retention for raw events. Short-term memories keep a week of
	// conversation; long-term memories keep a month so the extraction
	// strategies have material to work with.
	stmExpiryDays = 7
	ltmExpiryDays = 30

	semanticStrategyName = "semantic_facts"
	userPrefStrategyName = "user_preferences"

	// strategyNamespace scopes extracted records per strategy and actor.
	strategyNamespace = "/strategies/{memoryStrategyId}/actors/{actorId}"
)

// createPollInterval is how often CreateAndWait checks the memory status.
var createPollInterval = 5 * time.Second

// ControlAPI is the subset of the AgentCore control-plane client used
// for memory resources.
type ControlAPI interface {
	CreateMemory(ctx context.Context, params *bedrockagentcorecontrol.CreateMemoryInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateMemoryOutput, error)
	GetMemory(ctx context.Context, params *bedrockagentcorecontrol.GetMemoryInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.GetMemoryOutput, error)
	ListMemories(ctx context.Context, params *bedrockagentcorecontrol.ListMemoriesInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListMemoriesOutput, error)
	DeleteMemory(ctx context.Context, params *bedrockagentcorecontrol.DeleteMemoryInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.DeleteMemoryOutput, error)
}

// ControlClient wraps the memory control plane.
type ControlClient struct {
	api ControlAPI
}

// NewControlClient creates a memory control-plane client.
func NewControlClient(apiClient ControlAPI) *ControlClient {
	return &ControlClient{api: apiClient}
}

// CreateSTM creates a short-term memory: raw events only, no extraction
// strategies.
func (c *ControlClient) CreateSTM(ctx context.Context, name string) (*api.MemoryView, error) {
	out, err := c.api.CreateMemory(ctx, &bedrockagentcorecontrol.CreateMemoryInput{
		Name:                aws.String(name),
		Description:         aws.String("Short-term conversational memory"),
		EventExpiryDuration: aws.Int32(stmExpiryDays),
		ClientToken:         aws.String(api.NewClientToken()),
	})
	recordControlCall("CreateMemory", err)
	if err != nil {
		return nil, fmt.Errorf("creating short-term memory: %w", err)
	}
	return memoryView(out.Memory), nil
}

// CreateLTM creates a long-term memory with semantic-fact and
// user-preference extraction strategies.
func (c *ControlClient) CreateLTM(ctx context.Context, name string) (*api.MemoryView, error) {
	out, err := c.api.CreateMemory(ctx, &bedrockagentcorecontrol.CreateMemoryInput{
		Name:                aws.String(name),
		Description:         aws.String("Long-term memory with semantic and preference extraction"),
		EventExpiryDuration: aws.Int32(ltmExpiryDays),
		ClientToken:         aws.String(api.NewClientToken()),
		MemoryStrategies: []cctypes.MemoryStrategyInput{
			&cctypes.MemoryStrategyInputMemberSemanticMemoryStrategy{
				Value: cctypes.SemanticMemoryStrategyInput{
					Name:       aws.String(semanticStrategyName),
					Namespaces: []string{strategyNamespace},
				},
			},
			&cctypes.MemoryStrategyInputMemberUserPreferenceMemoryStrategy{
				Value: cctypes.UserPreferenceMemoryStrategyInput{
					Name:       aws.String(userPrefStrategyName),
					Namespaces: []string{strategyNamespace},
				},
			},
		},
	})
	recordControlCall("CreateMemory", err)
	if err != nil {
		return nil, fmt.Errorf("creating long-term memory: %w", err)
	}
	return memoryView(out.Memory), nil
}

// Get returns one memory resource.
func (c *ControlClient) Get(ctx context.Context, memoryID string) (*api.MemoryView, error) {
	out, err := c.api.GetMemory(ctx, &bedrockagentcorecontrol.GetMemoryInput{
		MemoryId: aws.String(memoryID),
	})
	recordControlCall("GetMemory", err)
	if err != nil {
		return nil, fmt.Errorf("getting memory %s: %w", memoryID, err)
	}
	return memoryView(out.Memory), nil
}

// List returns all memory resources in the account and region.
func (c *ControlClient) List(ctx context.Context) ([]api.MemoryView, error) {
	views := []api.MemoryView{}
	var nextToken *string
	for {
		out, err := c.api.ListMemories(ctx, &bedrockagentcorecontrol.ListMemoriesInput{
			MaxResults: aws.Int32(50),
			NextToken:  nextToken,
		})
		recordControlCall("ListMemories", err)
		if err != nil {
			return nil, fmt.Errorf("listing memories: %w", err)
		}
		for _, m := range out.Memories {
			v := api.MemoryView{
				MemoryID:  aws.ToString(m.Id),
				ARN:       aws.ToString(m.Arn),
				Status:    string(m.Status),
				CreatedAt: m.CreatedAt,
			}
			views = append(views, v)
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return views, nil
}

// Delete removes a memory resource and everything stored in it.
func (c *ControlClient) Delete(ctx context.Context, memoryID string) error {
	_, err := c.api.DeleteMemory(ctx, &bedrockagentcorecontrol.DeleteMemoryInput{
		MemoryId:    aws.String(memoryID),
		ClientToken: aws.String(api.NewClientToken()),
	})
	recordControlCall("DeleteMemory", err)
	if err != nil {
		return fmt.Errorf("deleting memory %s: %w", memoryID, err)
	}
	return nil
}

// WaitActive polls the memory until it reaches ACTIVE or fails.
func (c *ControlClient) WaitActive(ctx context.Context, memoryID string) (*api.MemoryView, error) {
	for {
		view, err := c.Get(ctx, memoryID)
		if err != nil {
			return nil, err
		}
		switch view.Status {
		case string(cctypes.MemoryStatusActive):
			return view, nil
		case string(cctypes.MemoryStatusFailed):
			return nil, api.NewServerError(fmt.Sprintf("memory %s entered FAILED state", memoryID))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(createPollInterval):
		}
	}
}

// memoryView converts the SDK memory shape into the API view.
func memoryView(m *cctypes.Memory) *api.MemoryView {
	if m == nil {
		return &api.MemoryView{}
	}
	view := &api.MemoryView{
		MemoryID:  aws.ToString(m.Id),
		Name:      aws.ToString(m.Name),
		ARN:       aws.ToString(m.Arn),
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
	for _, s := range m.Strategies {
		view.Strategies = append(view.Strategies, api.StrategyView{
			StrategyID: aws.ToString(s.StrategyId),
			Name:       aws.ToString(s.Name),
			Type:       string(s.Type),
		})
	}
	return view
}

func recordControlCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore-control", operation, status).Inc()
}
