package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/avollmer/agentcore-showcase/pkg/api"
)

// fakeControl tracks created and deleted memories.
type fakeControl struct {
	created int
	deleted []string

	memories map[string]*api.MemoryView
}

func newFakeControl() *fakeControl {
	return &fakeControl{memories: map[string]*api.MemoryView{}}
}

func (f *fakeControl) create(name string, strategies []api.StrategyView) (*api.MemoryView, error) {
	f.created++
	id := fmt.Sprintf("mem-%d", f.created)
	view := &api.MemoryView{
		MemoryID:   id,
		Name:       name,
		Status:     "CREATING",
		Strategies: strategies,
	}
	f.memories[id] = view
	return view, nil
}

func (f *fakeControl) CreateSTM(ctx context.Context, name string) (*api.MemoryView, error) {
	return f.create(name, nil)
}

func (f *fakeControl) CreateLTM(ctx context.Context, name string) (*api.MemoryView, error) {
	return f.create(name, []api.StrategyView{
		{StrategyID: "strat-sem", Name: semanticStrategyName, Type: "SEMANTIC"},
		{StrategyID: "strat-pref", Name: userPrefStrategyName, Type: "USER_PREFERENCE"},
	})
}

func (f *fakeControl) Get(ctx context.Context, memoryID string) (*api.MemoryView, error) {
	view, ok := f.memories[memoryID]
	if !ok {
		return nil, errors.New("memory not found")
	}
	return view, nil
}

func (f *fakeControl) List(ctx context.Context) ([]api.MemoryView, error) {
	out := []api.MemoryView{}
	for _, v := range f.memories {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeControl) Delete(ctx context.Context, memoryID string) error {
	if _, ok := f.memories[memoryID]; !ok {
		return errors.New("memory not found")
	}
	delete(f.memories, memoryID)
	f.deleted = append(f.deleted, memoryID)
	return nil
}

func (f *fakeControl) WaitActive(ctx context.Context, memoryID string) (*api.MemoryView, error) {
	view, ok := f.memories[memoryID]
	if !ok {
		return nil, errors.New("memory not found")
	}
	view.Status = "ACTIVE"
	return view, nil
}

// fakeData stores turns in a flat map keyed by memory/actor/session.
type fakeData struct {
	turns    map[string][]api.Turn
	records  map[string][]api.MemoryRecordView
	searches []string
}

func newFakeData() *fakeData {
	return &fakeData{
		turns:   map[string][]api.Turn{},
		records: map[string][]api.MemoryRecordView{},
	}
}

func key(memoryID, actorID, sessionID string) string {
	return memoryID + "/" + actorID + "/" + sessionID
}

func (f *fakeData) AddTurns(ctx context.Context, memoryID, actorID, sessionID string, turns []api.Turn) error {
	k := key(memoryID, actorID, sessionID)
	f.turns[k] = append(f.turns[k], turns...)
	return nil
}

func (f *fakeData) LastTurns(ctx context.Context, memoryID, actorID, sessionID string, k int) ([]api.Turn, error) {
	turns := f.turns[key(memoryID, actorID, sessionID)]
	if len(turns) > k {
		turns = turns[len(turns)-k:]
	}
	return turns, nil
}

func (f *fakeData) Events(ctx context.Context, memoryID, actorID, sessionID string) ([]api.MemoryEventView, error) {
	turns := f.turns[key(memoryID, actorID, sessionID)]
	if len(turns) == 0 {
		return nil, nil
	}
	return []api.MemoryEventView{{EventID: "ev-1", SessionID: sessionID, Turns: turns}}, nil
}

func (f *fakeData) Sessions(ctx context.Context, memoryID, actorID string) ([]string, error) {
	return nil, nil
}

func (f *fakeData) Search(ctx context.Context, memoryID, namespace, query string) ([]api.MemoryRecordView, error) {
	f.searches = append(f.searches, namespace)
	return f.records[namespace], nil
}

func (f *fakeData) Records(ctx context.Context, memoryID, namespace string) ([]api.MemoryRecordView, error) {
	return f.records[namespace], nil
}

// fakeCompleter echoes a canned answer and records prompts.
type fakeCompleter struct {
	answer  string
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, nil
}

func (f *fakeCompleter) Stream(ctx context.Context, system, prompt string, onDelta func(string) error) error {
	f.prompts = append(f.prompts, prompt)
	for _, word := range strings.Fields(f.answer) {
		if err := onDelta(word); err != nil {
			return err
		}
	}
	return nil
}

// fakeStream collects streamed lines and done payloads.
type fakeStream struct {
	lines []string
	done  []map[string]any
	fails []string
}

func (f *fakeStream) WriteLine(ctx context.Context, line string) error {
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeStream) WriteEvent(ctx context.Context, event string, payload any) error {
	return nil
}

func (f *fakeStream) WriteDone(ctx context.Context, fields map[string]any) error {
	f.done = append(f.done, fields)
	return nil
}

func (f *fakeStream) Fail(ctx context.Context, message string) error {
	f.fails = append(f.fails, message)
	return nil
}

func newTestService(control *fakeControl, data *fakeData, llm *fakeCompleter, stmID, ltmID string) *Service {
	return NewService(control, data, llm, stmID, ltmID, nil)
}

func TestInitCreatesMissingMemories(t *testing.T) {
	control := newFakeControl()
	svc := newTestService(control, newFakeData(), &fakeCompleter{}, "", "")

	result, err := svc.Init(context.Background())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !result.Created {
		t.Error("expected Created = true")
	}
	if result.STMMemoryID == "" || result.LTMMemoryID == "" {
		t.Errorf("missing IDs: %+v", result)
	}
	if control.created != 2 {
		t.Errorf("created = %d, want 2", control.created)
	}

	stmID, ltmID := svc.IDs()
	if stmID != result.STMMemoryID || ltmID != result.LTMMemoryID {
		t.Error("service should bind the created IDs")
	}
}

func TestInitVerifiesConfiguredMemories(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	ltm, _ := control.CreateLTM(context.Background(), "ltm")
	svc := newTestService(control, newFakeData(), &fakeCompleter{}, stm.MemoryID, ltm.MemoryID)

	result, err := svc.Init(context.Background())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if result.Created {
		t.Error("expected Created = false for configured memories")
	}
	if control.created != 2 {
		t.Errorf("created = %d, want 2 (no new ones)", control.created)
	}
}

func TestSTMRoundTrip(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	data := newFakeData()
	llm := &fakeCompleter{answer: "You are going to Lisbon."}
	svc := newTestService(control, data, llm, stm.MemoryID, "")
	ctx := context.Background()

	stored, err := svc.STMStep1(ctx, &api.StoreTurnsRequest{})
	if err != nil {
		t.Fatalf("STMStep1: %v", err)
	}
	if stored.Stored != len(demoSTMTurns) {
		t.Errorf("stored = %d, want %d", stored.Stored, len(demoSTMTurns))
	}

	answer, err := svc.STMStep2(ctx, &api.AskRequest{Question: "Where am I going?"})
	if err != nil {
		t.Fatalf("STMStep2: %v", err)
	}
	if answer.Answer != "You are going to Lisbon." {
		t.Errorf("answer = %q", answer.Answer)
	}
	if len(answer.TurnsUsed) == 0 || len(answer.TurnsUsed) > lastKTurns {
		t.Errorf("turns used = %d, want 1..%d", len(answer.TurnsUsed), lastKTurns)
	}
	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "Where am I going?") {
		t.Errorf("prompt should carry the question: %v", llm.prompts)
	}
}

func TestSTMStep2LimitsContextTurns(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	data := newFakeData()
	svc := newTestService(control, data, &fakeCompleter{answer: "ok"}, stm.MemoryID, "")
	ctx := context.Background()

	var turns []api.Turn
	for i := 0; i < 12; i++ {
		turns = append(turns, api.Turn{Role: "user", Text: fmt.Sprintf("turn %d", i)})
	}
	if _, err := svc.STMStep1(ctx, &api.StoreTurnsRequest{Turns: turns}); err != nil {
		t.Fatal(err)
	}

	answer, err := svc.STMStep2(ctx, &api.AskRequest{Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if len(answer.TurnsUsed) != lastKTurns {
		t.Errorf("turns used = %d, want %d", len(answer.TurnsUsed), lastKTurns)
	}
	if answer.TurnsUsed[len(answer.TurnsUsed)-1].Text != "turn 11" {
		t.Errorf("expected the most recent turns, got %+v", answer.TurnsUsed)
	}
}

func TestSTMRequiresInit(t *testing.T) {
	svc := newTestService(newFakeControl(), newFakeData(), &fakeCompleter{}, "", "")

	_, err := svc.STMStep1(context.Background(), nil)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request, got %v", err)
	}
}

func TestLTMStep2SearchesAllStrategies(t *testing.T) {
	control := newFakeControl()
	ltm, _ := control.CreateLTM(context.Background(), "ltm")
	data := newFakeData()
	data.records[ActorNamespace("strat-sem", demoActorID)] = []api.MemoryRecordView{
		{RecordID: "r1", Text: "Alex works as a data engineer in Hamburg."},
	}
	data.records[ActorNamespace("strat-pref", demoActorID)] = []api.MemoryRecordView{
		{RecordID: "r2", Text: "Prefers short answers, vegetarian."},
	}
	llm := &fakeCompleter{answer: "Alex is a vegetarian data engineer."}
	svc := newTestService(control, data, llm, "", ltm.MemoryID)

	result, err := svc.LTMStep2(context.Background(), &api.AskRequest{Question: "Who am I?"})
	if err != nil {
		t.Fatalf("LTMStep2: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("records = %d, want 2 (both strategies)", len(result.Records))
	}
	if len(data.searches) != 2 {
		t.Errorf("searches = %v, want one per strategy", data.searches)
	}
	if !strings.Contains(llm.prompts[0], "data engineer") {
		t.Errorf("prompt should carry retrieved facts: %q", llm.prompts[0])
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	svc := newTestService(control, newFakeData(), &fakeCompleter{}, stm.MemoryID, "")

	_, err := svc.STMStep2(context.Background(), &api.AskRequest{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Param != "question" {
		t.Errorf("expected invalid_request on question, got %v", err)
	}
}

func TestDeleteUnbindsMemory(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	svc := newTestService(control, newFakeData(), &fakeCompleter{}, stm.MemoryID, "")

	if err := svc.Delete(context.Background(), stm.MemoryID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stmID, _ := svc.IDs()
	if stmID != "" {
		t.Errorf("stmID = %q, want unbound", stmID)
	}
}

func TestCombinedDemoStream(t *testing.T) {
	control := newFakeControl()
	stm, _ := control.CreateSTM(context.Background(), "stm")
	ltm, _ := control.CreateLTM(context.Background(), "ltm")
	data := newFakeData()
	data.records[ActorNamespace("strat-sem", demoActorID)] = []api.MemoryRecordView{
		{RecordID: "r1", Text: "Trip to Lisbon in October."},
	}
	llm := &fakeCompleter{answer: "Lisbon trip with vegetarian food"}
	svc := newTestService(control, data, llm, stm.MemoryID, ltm.MemoryID)
	stream := &fakeStream{}

	if err := svc.CombinedDemo(context.Background(), stream); err != nil {
		t.Fatalf("CombinedDemo: %v", err)
	}
	if len(stream.fails) != 0 {
		t.Fatalf("unexpected failures: %v", stream.fails)
	}
	if len(stream.done) != 1 {
		t.Fatalf("done events = %d, want exactly 1", len(stream.done))
	}
	// Model deltas flow through as lines.
	joined := strings.Join(stream.lines, " ")
	if !strings.Contains(joined, "Lisbon") {
		t.Errorf("streamed answer missing: %v", stream.lines)
	}
}

func TestCombinedDemoRequiresInit(t *testing.T) {
	svc := newTestService(newFakeControl(), newFakeData(), &fakeCompleter{}, "", "")
	stream := &fakeStream{}

	if err := svc.CombinedDemo(context.Background(), stream); err != nil {
		t.Fatalf("failure goes through the stream: %v", err)
	}
	if len(stream.fails) != 1 {
		t.Errorf("fails = %d, want 1", len(stream.fails))
	}
}

func TestListRecordsMergesStrategies(t *testing.T) {
	control := newFakeControl()
	ltm, _ := control.CreateLTM(context.Background(), "ltm")
	data := newFakeData()
	data.records[ActorNamespace("strat-sem", demoActorID)] = []api.MemoryRecordView{{RecordID: "r1", Text: "a"}}
	data.records[ActorNamespace("strat-pref", demoActorID)] = []api.MemoryRecordView{{RecordID: "r2", Text: "b"}}
	svc := newTestService(control, data, &fakeCompleter{}, "", ltm.MemoryID)

	records, err := svc.ListRecords(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestActorNamespace(t *testing.T) {
	got := ActorNamespace("strat-1", "actor-9")
	want := "/strategies/strat-1/actors/actor-9"
	if got != want {
		t.Errorf("ActorNamespace = %q, want %q", got, want)
	}
}
