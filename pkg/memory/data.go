package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	actypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

const (
	// lastKTurns is how many recent turns the short-term demo feeds back
	// into the model as context.
	lastKTurns = 5

	// searchTopK caps semantic retrieval results.
	searchTopK = 5
)

// DataAPI is the subset of the AgentCore data-plane client used for
// memory events and records.
type DataAPI interface {
	CreateEvent(ctx context.Context, params *bedrockagentcore.CreateEventInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.CreateEventOutput, error)
	ListEvents(ctx context.Context, params *bedrockagentcore.ListEventsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListEventsOutput, error)
	ListSessions(ctx context.Context, params *bedrockagentcore.ListSessionsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListSessionsOutput, error)
	RetrieveMemoryRecords(ctx context.Context, params *bedrockagentcore.RetrieveMemoryRecordsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.RetrieveMemoryRecordsOutput, error)
	ListMemoryRecords(ctx context.Context, params *bedrockagentcore.ListMemoryRecordsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListMemoryRecordsOutput, error)
}

// DataClient wraps the memory data plane.
type DataClient struct {
	api DataAPI
	now func() time.Time
}

// NewDataClient creates a memory data-plane client.
func NewDataClient(apiClient DataAPI) *DataClient {
	return &DataClient{api: apiClient, now: time.Now}
}

// AddTurns stores conversational turns as a single event.
func (c *DataClient) AddTurns(ctx context.Context, memoryID, actorID, sessionID string, turns []api.Turn) error {
	payload := make([]actypes.PayloadType, 0, len(turns))
	for _, t := range turns {
		payload = append(payload, &actypes.PayloadTypeMemberConversational{
			Value: actypes.Conversational{
				Role: actypes.Role(strings.ToUpper(t.Role)),
				Content: &actypes.ContentMemberText{
					Value: t.Text,
				},
			},
		})
	}

	_, err := c.api.CreateEvent(ctx, &bedrockagentcore.CreateEventInput{
		MemoryId:       aws.String(memoryID),
		ActorId:        aws.String(actorID),
		SessionId:      aws.String(sessionID),
		EventTimestamp: aws.Time(c.now()),
		Payload:        payload,
	})
	recordDataCall("CreateEvent", err)
	if err != nil {
		return fmt.Errorf("storing turns: %w", err)
	}
	return nil
}

// LastTurns returns up to k most recent turns for the actor and session,
// oldest first.
func (c *DataClient) LastTurns(ctx context.Context, memoryID, actorID, sessionID string, k int) ([]api.Turn, error) {
	events, err := c.Events(ctx, memoryID, actorID, sessionID)
	if err != nil {
		return nil, err
	}

	var turns []api.Turn
	for _, ev := range events {
		turns = append(turns, ev.Turns...)
	}
	if len(turns) > k {
		turns = turns[len(turns)-k:]
	}
	return turns, nil
}

// Events lists stored events with their conversational payloads, oldest
// first.
func (c *DataClient) Events(ctx context.Context, memoryID, actorID, sessionID string) ([]api.MemoryEventView, error) {
	out, err := c.api.ListEvents(ctx, &bedrockagentcore.ListEventsInput{
		MemoryId:        aws.String(memoryID),
		ActorId:         aws.String(actorID),
		SessionId:       aws.String(sessionID),
		IncludePayloads: aws.Bool(true),
		MaxResults:      aws.Int32(100),
	})
	recordDataCall("ListEvents", err)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	views := make([]api.MemoryEventView, 0, len(out.Events))
	for _, ev := range out.Events {
		view := api.MemoryEventView{
			EventID:   aws.ToString(ev.EventId),
			SessionID: aws.ToString(ev.SessionId),
			Timestamp: ev.EventTimestamp,
		}
		for _, p := range ev.Payload {
			conv, ok := p.(*actypes.PayloadTypeMemberConversational)
			if !ok {
				continue
			}
			text := ""
			if t, ok := conv.Value.Content.(*actypes.ContentMemberText); ok {
				text = t.Value
			}
			view.Turns = append(view.Turns, api.Turn{
				Role: strings.ToLower(string(conv.Value.Role)),
				Text: text,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// Sessions lists the session IDs an actor has events under.
func (c *DataClient) Sessions(ctx context.Context, memoryID, actorID string) ([]string, error) {
	out, err := c.api.ListSessions(ctx, &bedrockagentcore.ListSessionsInput{
		MemoryId:   aws.String(memoryID),
		ActorId:    aws.String(actorID),
		MaxResults: aws.Int32(100),
	})
	recordDataCall("ListSessions", err)
	if err != nil {
		return nil, fmt.Errorf("listing memory sessions: %w", err)
	}

	ids := make([]string, 0, len(out.SessionSummaries))
	for _, s := range out.SessionSummaries {
		ids = append(ids, aws.ToString(s.SessionId))
	}
	return ids, nil
}

// Search retrieves the records most relevant to the query from one
// strategy namespace.
func (c *DataClient) Search(ctx context.Context, memoryID, namespace, query string) ([]api.MemoryRecordView, error) {
	out, err := c.api.RetrieveMemoryRecords(ctx, &bedrockagentcore.RetrieveMemoryRecordsInput{
		MemoryId:  aws.String(memoryID),
		Namespace: aws.String(namespace),
		SearchCriteria: &actypes.SearchCriteria{
			SearchQuery: aws.String(query),
			TopK:        aws.Int32(searchTopK),
		},
	})
	recordDataCall("RetrieveMemoryRecords", err)
	if err != nil {
		return nil, fmt.Errorf("searching memory records: %w", err)
	}
	return recordViews(out.MemoryRecordSummaries), nil
}

// Records lists all records under a namespace without scoring.
func (c *DataClient) Records(ctx context.Context, memoryID, namespace string) ([]api.MemoryRecordView, error) {
	out, err := c.api.ListMemoryRecords(ctx, &bedrockagentcore.ListMemoryRecordsInput{
		MemoryId:   aws.String(memoryID),
		Namespace:  aws.String(namespace),
		MaxResults: aws.Int32(100),
	})
	recordDataCall("ListMemoryRecords", err)
	if err != nil {
		return nil, fmt.Errorf("listing memory records: %w", err)
	}
	return recordViews(out.MemoryRecordSummaries), nil
}

func recordViews(summaries []actypes.MemoryRecordSummary) []api.MemoryRecordView {
	views := make([]api.MemoryRecordView, 0, len(summaries))
	for _, r := range summaries {
		text := ""
		if t, ok := r.Content.(*actypes.MemoryContentMemberText); ok {
			text = t.Value
		}
		views = append(views, api.MemoryRecordView{
			RecordID:   aws.ToString(r.MemoryRecordId),
			Namespaces: r.Namespaces,
			Text:       text,
			Score:      r.Score,
			CreatedAt:  r.CreatedAt,
		})
	}
	return views
}

// ActorNamespace resolves the namespace template for one strategy and
// actor.
func ActorNamespace(strategyID, actorID string) string {
	ns := strings.ReplaceAll(strategyNamespace, "{memoryStrategyId}", strategyID)
	return strings.ReplaceAll(ns, "{actorId}", actorID)
}

func recordDataCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.AWSRequestsTotal.WithLabelValues("bedrock-agentcore", operation, status).Inc()
}
