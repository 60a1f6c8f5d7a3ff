package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

// Default resource names and demo identities.
const (
	defaultSTMName = "agentcore_stm_demo"
	defaultLTMName = "agentcore_ltm_demo"

	demoActorID      = "demo-user"
	demoSTMSessionID = "stm-demo-session"
	demoLTMSessionID = "ltm-demo-session"
)

// demoSTMTurns is the conversation the short-term demo seeds.
var demoSTMTurns = []api.Turn{
	{Role: "user", Text: "I'm planning a trip to Lisbon in October."},
	{Role: "assistant", Text: "Great choice. October in Lisbon is mild, around 20 degrees. Anything specific you want to do?"},
	{Role: "user", Text: "I want to visit the Oceanario and eat at a good seafood place near Belem."},
	{Role: "assistant", Text: "Noted. The Oceanario is in Parque das Nacoes, and Belem has several well-reviewed seafood restaurants along the river."},
}

// demoLTMTurns is the fact-rich conversation the long-term demo seeds
// for the extraction strategies to work on.
var demoLTMTurns = []api.Turn{
	{Role: "user", Text: "My name is Alex and I work as a data engineer in Hamburg."},
	{Role: "assistant", Text: "Nice to meet you, Alex. How can I help?"},
	{Role: "user", Text: "I prefer short answers, and I'm vegetarian, so skip meat dishes in any food suggestions."},
	{Role: "assistant", Text: "Understood. Short answers and vegetarian options only."},
	{Role: "user", Text: "Also, my team deploys on Fridays, so never schedule maintenance then."},
	{Role: "assistant", Text: "Got it, no Friday maintenance windows."},
}

// Control is the control-plane surface the service drives.
// *ControlClient implements it.
type Control interface {
	CreateSTM(ctx context.Context, name string) (*api.MemoryView, error)
	CreateLTM(ctx context.Context, name string) (*api.MemoryView, error)
	Get(ctx context.Context, memoryID string) (*api.MemoryView, error)
	List(ctx context.Context) ([]api.MemoryView, error)
	Delete(ctx context.Context, memoryID string) error
	WaitActive(ctx context.Context, memoryID string) (*api.MemoryView, error)
}

// Data is the data-plane surface the service drives. *DataClient
// implements it.
type Data interface {
	AddTurns(ctx context.Context, memoryID, actorID, sessionID string, turns []api.Turn) error
	LastTurns(ctx context.Context, memoryID, actorID, sessionID string, k int) ([]api.Turn, error)
	Events(ctx context.Context, memoryID, actorID, sessionID string) ([]api.MemoryEventView, error)
	Sessions(ctx context.Context, memoryID, actorID string) ([]string, error)
	Search(ctx context.Context, memoryID, namespace, query string) ([]api.MemoryRecordView, error)
	Records(ctx context.Context, memoryID, namespace string) ([]api.MemoryRecordView, error)
}

// Completer produces model replies for the ask steps of the demos.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Stream(ctx context.Context, system, prompt string, onDelta func(delta string) error) error
}

// Service binds the memory demos to a short-term and a long-term memory
// resource.
type Service struct {
	control Control
	data    Data
	llm     Completer
	logger  *slog.Logger

	mu    sync.RWMutex
	stmID string
	ltmID string
}

// NewService creates a memory service. The memory IDs may be empty; Init
// or the create streams bind them later.
func NewService(control Control, data Data, llm Completer, stmID, ltmID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		control: control,
		data:    data,
		llm:     llm,
		logger:  logger,
		stmID:   stmID,
		ltmID:   ltmID,
	}
}

// IDs returns the currently bound memory IDs.
func (s *Service) IDs() (stmID, ltmID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stmID, s.ltmID
}

// Init makes sure both memory resources exist, creating any that are
// missing and waiting for them to become active.
func (s *Service) Init(ctx context.Context) (*api.MemoryInitResult, error) {
	stmID, ltmID := s.IDs()
	created := false

	if stmID == "" {
		view, err := s.control.CreateSTM(ctx, defaultSTMName)
		if err != nil {
			return nil, err
		}
		if _, err := s.control.WaitActive(ctx, view.MemoryID); err != nil {
			return nil, err
		}
		stmID = view.MemoryID
		created = true
		s.logger.Info("created short-term memory", slog.String("memory_id", stmID))
	} else if _, err := s.control.Get(ctx, stmID); err != nil {
		return nil, err
	}

	if ltmID == "" {
		view, err := s.control.CreateLTM(ctx, defaultLTMName)
		if err != nil {
			return nil, err
		}
		if _, err := s.control.WaitActive(ctx, view.MemoryID); err != nil {
			return nil, err
		}
		ltmID = view.MemoryID
		created = true
		s.logger.Info("created long-term memory", slog.String("memory_id", ltmID))
	} else if _, err := s.control.Get(ctx, ltmID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stmID, s.ltmID = stmID, ltmID
	s.mu.Unlock()

	return &api.MemoryInitResult{
		STMMemoryID: stmID,
		LTMMemoryID: ltmID,
		Created:     created,
	}, nil
}

// InitStream is Init with progress lines.
func (s *Service) InitStream(ctx context.Context, stream transport.LineStream) error {
	if err := stream.WriteLine(ctx, "Checking memory resources..."); err != nil {
		return err
	}
	result, err := s.Init(ctx)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if result.Created {
		if err := stream.WriteLine(ctx, "Created missing memory resources and waited for ACTIVE"); err != nil {
			return err
		}
	} else {
		if err := stream.WriteLine(ctx, "Both memory resources already exist"); err != nil {
			return err
		}
	}
	return stream.WriteDone(ctx, map[string]any{
		"stm_memory_id": result.STMMemoryID,
		"ltm_memory_id": result.LTMMemoryID,
		"created":       result.Created,
	})
}

// CreateSTMStream creates a fresh short-term memory and binds it,
// streaming progress.
func (s *Service) CreateSTMStream(ctx context.Context, stream transport.LineStream) error {
	if err := stream.WriteLine(ctx, "Creating short-term memory (no extraction strategies)..."); err != nil {
		return err
	}
	view, err := s.control.CreateSTM(ctx, defaultSTMName)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Created %s, waiting for ACTIVE...", view.MemoryID)); err != nil {
		return err
	}
	if _, err := s.control.WaitActive(ctx, view.MemoryID); err != nil {
		return stream.Fail(ctx, err.Error())
	}

	s.mu.Lock()
	s.stmID = view.MemoryID
	s.mu.Unlock()

	return stream.WriteDone(ctx, map[string]any{"memory_id": view.MemoryID})
}

// CreateLTMStream creates a fresh long-term memory with both extraction
// strategies and binds it, streaming progress.
func (s *Service) CreateLTMStream(ctx context.Context, stream transport.LineStream) error {
	if err := stream.WriteLine(ctx, "Creating long-term memory with semantic and user-preference strategies..."); err != nil {
		return err
	}
	view, err := s.control.CreateLTM(ctx, defaultLTMName)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Created %s, waiting for ACTIVE...", view.MemoryID)); err != nil {
		return err
	}
	active, err := s.control.WaitActive(ctx, view.MemoryID)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	for _, st := range active.Strategies {
		if err := stream.WriteLine(ctx, fmt.Sprintf("Strategy %s (%s) ready", st.Name, st.Type)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.ltmID = view.MemoryID
	s.mu.Unlock()

	return stream.WriteDone(ctx, map[string]any{"memory_id": view.MemoryID})
}

// List returns all memory resources.
func (s *Service) List(ctx context.Context) ([]api.MemoryView, error) {
	return s.control.List(ctx)
}

// Delete removes a memory resource. A bound ID is unbound.
func (s *Service) Delete(ctx context.Context, memoryID string) error {
	if err := s.control.Delete(ctx, memoryID); err != nil {
		return err
	}
	s.mu.Lock()
	if s.stmID == memoryID {
		s.stmID = ""
	}
	if s.ltmID == memoryID {
		s.ltmID = ""
	}
	s.mu.Unlock()
	return nil
}

// STMStep1 stores the demo conversation in the short-term memory.
func (s *Service) STMStep1(ctx context.Context, req *api.StoreTurnsRequest) (*api.StoreTurnsResult, error) {
	stmID, _ := s.IDs()
	if stmID == "" {
		return nil, errNotInitialized("short-term")
	}
	actorID, sessionID, turns := demoDefaults(req, demoSTMSessionID, demoSTMTurns)

	if err := s.data.AddTurns(ctx, stmID, actorID, sessionID, turns); err != nil {
		return nil, err
	}
	return &api.StoreTurnsResult{
		MemoryID:  stmID,
		ActorID:   actorID,
		SessionID: sessionID,
		Stored:    len(turns),
	}, nil
}

// STMStep2 answers a question using the last turns of the stored
// conversation as context.
func (s *Service) STMStep2(ctx context.Context, req *api.AskRequest) (*api.AskResult, error) {
	stmID, _ := s.IDs()
	if stmID == "" {
		return nil, errNotInitialized("short-term")
	}
	if req.Question == "" {
		return nil, api.NewInvalidRequestError("question", "question must not be empty")
	}
	actorID := orDefault(req.ActorID, demoActorID)
	sessionID := orDefault(req.SessionID, demoSTMSessionID)

	turns, err := s.data.LastTurns(ctx, stmID, actorID, sessionID, lastKTurns)
	if err != nil {
		return nil, err
	}

	prompt := buildTurnsPrompt(turns, req.Question)
	answer, err := s.llm.Complete(ctx, "You answer using only the conversation context provided.", prompt)
	if err != nil {
		return nil, err
	}
	return &api.AskResult{Answer: answer, TurnsUsed: turns}, nil
}

// LTMStep1 stores the fact-rich demo conversation in the long-term
// memory for the strategies to extract from.
func (s *Service) LTMStep1(ctx context.Context, req *api.StoreTurnsRequest) (*api.StoreTurnsResult, error) {
	_, ltmID := s.IDs()
	if ltmID == "" {
		return nil, errNotInitialized("long-term")
	}
	actorID, sessionID, turns := demoDefaults(req, demoLTMSessionID, demoLTMTurns)

	if err := s.data.AddTurns(ctx, ltmID, actorID, sessionID, turns); err != nil {
		return nil, err
	}
	return &api.StoreTurnsResult{
		MemoryID:  ltmID,
		ActorID:   actorID,
		SessionID: sessionID,
		Stored:    len(turns),
	}, nil
}

// LTMStep2 answers a question using semantically retrieved long-term
// records as context.
func (s *Service) LTMStep2(ctx context.Context, req *api.AskRequest) (*api.AskResult, error) {
	_, ltmID := s.IDs()
	if ltmID == "" {
		return nil, errNotInitialized("long-term")
	}
	if req.Question == "" {
		return nil, api.NewInvalidRequestError("question", "question must not be empty")
	}
	actorID := orDefault(req.ActorID, demoActorID)

	records, err := s.searchAllStrategies(ctx, ltmID, actorID, req.Question)
	if err != nil {
		return nil, err
	}

	prompt := buildRecordsPrompt(records, req.Question)
	answer, err := s.llm.Complete(ctx, "You answer using only the remembered facts provided.", prompt)
	if err != nil {
		return nil, err
	}
	return &api.AskResult{Answer: answer, Records: records}, nil
}

// CombinedDemo runs the short- and long-term flows back to back,
// streaming progress and the final model answer.
func (s *Service) CombinedDemo(ctx context.Context, stream transport.LineStream) error {
	stmID, ltmID := s.IDs()
	if stmID == "" || ltmID == "" {
		return stream.Fail(ctx, "memory resources not initialized; run init first")
	}

	if err := stream.WriteLine(ctx, "Storing demo conversation in short-term memory..."); err != nil {
		return err
	}
	if err := s.data.AddTurns(ctx, stmID, demoActorID, demoSTMSessionID, demoSTMTurns); err != nil {
		return stream.Fail(ctx, err.Error())
	}

	if err := stream.WriteLine(ctx, "Storing fact-rich conversation in long-term memory..."); err != nil {
		return err
	}
	if err := s.data.AddTurns(ctx, ltmID, demoActorID, demoLTMSessionID, demoLTMTurns); err != nil {
		return stream.Fail(ctx, err.Error())
	}

	if err := stream.WriteLine(ctx, "Reading recent turns from short-term memory..."); err != nil {
		return err
	}
	turns, err := s.data.LastTurns(ctx, stmID, demoActorID, demoSTMSessionID, lastKTurns)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Got %d recent turns", len(turns))); err != nil {
		return err
	}

	question := "Where am I travelling, and what should you keep in mind about me?"
	if err := stream.WriteLine(ctx, "Searching long-term records..."); err != nil {
		return err
	}
	records, err := s.searchAllStrategies(ctx, ltmID, demoActorID, question)
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, fmt.Sprintf("Retrieved %d long-term records", len(records))); err != nil {
		return err
	}

	if err := stream.WriteLine(ctx, "Answer:"); err != nil {
		return err
	}
	prompt := buildCombinedPrompt(turns, records, question)
	err = s.llm.Stream(ctx, "You answer using the conversation and remembered facts provided.", prompt, func(delta string) error {
		return stream.WriteLine(ctx, delta)
	})
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}

	return stream.WriteDone(ctx, map[string]any{
		"turns_used": len(turns),
		"records":    len(records),
	})
}

// ListEvents returns the stored events of a memory session.
func (s *Service) ListEvents(ctx context.Context, memoryID, actorID, sessionID string) ([]api.MemoryEventView, error) {
	if memoryID == "" {
		memoryID, _ = s.IDs()
	}
	if memoryID == "" {
		return nil, errNotInitialized("short-term")
	}
	actorID = orDefault(actorID, demoActorID)
	sessionID = orDefault(sessionID, demoSTMSessionID)
	return s.data.Events(ctx, memoryID, actorID, sessionID)
}

// ListRecords returns the extracted records of a long-term memory across
// all its strategies.
func (s *Service) ListRecords(ctx context.Context, memoryID, actorID string) ([]api.MemoryRecordView, error) {
	if memoryID == "" {
		_, memoryID = s.IDs()
	}
	if memoryID == "" {
		return nil, errNotInitialized("long-term")
	}
	actorID = orDefault(actorID, demoActorID)

	view, err := s.control.Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	var all []api.MemoryRecordView
	for _, st := range view.Strategies {
		records, err := s.data.Records(ctx, memoryID, ActorNamespace(st.StrategyID, actorID))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// searchAllStrategies queries every strategy namespace of the memory and
// merges the results.
func (s *Service) searchAllStrategies(ctx context.Context, memoryID, actorID, query string) ([]api.MemoryRecordView, error) {
	view, err := s.control.Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	var all []api.MemoryRecordView
	for _, st := range view.Strategies {
		records, err := s.data.Search(ctx, memoryID, ActorNamespace(st.StrategyID, actorID), query)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func demoDefaults(req *api.StoreTurnsRequest, defaultSession string, defaultTurns []api.Turn) (actorID, sessionID string, turns []api.Turn) {
	actorID = demoActorID
	sessionID = defaultSession
	turns = defaultTurns
	if req != nil {
		actorID = orDefault(req.ActorID, actorID)
		sessionID = orDefault(req.SessionID, sessionID)
		if len(req.Turns) > 0 {
			turns = req.Turns
		}
	}
	return actorID, sessionID, turns
}

func buildTurnsPrompt(turns []api.Turn, question string) string {
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, t := range turns {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Text)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

func buildRecordsPrompt(records []api.MemoryRecordView, question string) string {
	var sb strings.Builder
	sb.WriteString("Remembered facts:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "- %s\n", r.Text)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

func buildCombinedPrompt(turns []api.Turn, records []api.MemoryRecordView, question string) string {
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, t := range turns {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Text)
	}
	sb.WriteString("\nRemembered facts:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "- %s\n", r.Text)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

func errNotInitialized(kind string) error {
	return api.NewInvalidRequestError("", kind+" memory not initialized; run init first")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
