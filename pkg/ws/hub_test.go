package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
)

// fakeConn records written frames.
type fakeConn struct {
	frames [][]byte
	closed bool
}

func (f *fakeConn) Write(ctx context.Context, data []byte) error {
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func decode(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(frame, &m); err != nil {
		t.Fatalf("decoding frame %s: %v", frame, err)
	}
	return m
}

func TestSendToSessionDelivered(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	c := hub.register(conn)
	hub.associate(context.Background(), c, "ui-1")

	hub.SendToSession("ui-1", map[string]any{"type": "ping"})
	if len(conn.frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(conn.frames))
	}
	if got := decode(t, conn.frames[0])["type"]; got != "ping" {
		t.Errorf("type = %v", got)
	}
}

func TestSendToSessionQueuedUntilAssociate(t *testing.T) {
	hub := NewHub(nil)

	hub.SendToSession("ui-1", map[string]any{"seq": 1})
	hub.SendToSession("ui-1", map[string]any{"seq": 2})
	if hub.QueuedCount() != 2 {
		t.Fatalf("queued = %d, want 2", hub.QueuedCount())
	}

	conn := &fakeConn{}
	c := hub.register(conn)
	hub.associate(context.Background(), c, "ui-1")

	if hub.QueuedCount() != 0 {
		t.Errorf("queued = %d after flush, want 0", hub.QueuedCount())
	}
	if len(conn.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(conn.frames))
	}
	// Backlog is flushed in order.
	if got := decode(t, conn.frames[0])["seq"]; got != float64(1) {
		t.Errorf("first frame seq = %v", got)
	}
}

func TestQueueTruncatesOldest(t *testing.T) {
	hub := NewHub(nil)

	for i := 0; i < maxQueuedPerSession+10; i++ {
		hub.SendToSession("ui-1", map[string]any{"seq": i})
	}
	if hub.QueuedCount() != maxQueuedPerSession {
		t.Fatalf("queued = %d, want %d", hub.QueuedCount(), maxQueuedPerSession)
	}

	conn := &fakeConn{}
	c := hub.register(conn)
	hub.associate(context.Background(), c, "ui-1")

	// The oldest 10 were dropped.
	if got := decode(t, conn.frames[0])["seq"]; got != float64(10) {
		t.Errorf("first surviving seq = %v, want 10", got)
	}
}

func TestSendToOtherSessionNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	c := hub.register(conn)
	hub.associate(context.Background(), c, "ui-1")

	hub.SendToSession("ui-2", map[string]any{"type": "ping"})
	if len(conn.frames) != 0 {
		t.Errorf("frames = %d, want 0", len(conn.frames))
	}
	if hub.QueuedCount() != 1 {
		t.Errorf("queued = %d, want 1", hub.QueuedCount())
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(nil)
	conns := make([]*fakeConn, 3)
	for i := range conns {
		conns[i] = &fakeConn{}
		c := hub.register(conns[i])
		if i < 2 {
			hub.associate(context.Background(), c, fmt.Sprintf("ui-%d", i))
		}
	}

	hub.Broadcast(map[string]any{"type": "log"})
	for i, conn := range conns {
		if len(conn.frames) != 1 {
			t.Errorf("conn %d frames = %d, want 1", i, len(conn.frames))
		}
	}
}

func TestUnregisterClosesAndStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	c := hub.register(conn)
	hub.associate(context.Background(), c, "ui-1")
	hub.unregister(c)

	if !conn.closed {
		t.Error("connection should be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients = %d, want 0", hub.ClientCount())
	}

	hub.SendToSession("ui-1", map[string]any{"type": "ping"})
	if len(conn.frames) != 0 {
		t.Error("no delivery after unregister")
	}
}

func TestLogHandlerMirrorsRecords(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	hub.register(conn)

	var discard discardHandler
	logger := slog.New(NewLogHandler(discard, hub, slog.LevelInfo))

	logger.Info("deployment ready", slog.String("runtime_id", "rt-1"))
	logger.Debug("too quiet to mirror")

	if len(conn.frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(conn.frames))
	}
	msg := decode(t, conn.frames[0])
	if msg["message"] != "deployment ready" || msg["level"] != "INFO" {
		t.Errorf("unexpected log frame: %v", msg)
	}
	fields, _ := msg["fields"].(map[string]any)
	if fields["runtime_id"] != "rt-1" {
		t.Errorf("fields = %v", fields)
	}
}

// discardHandler accepts every record and drops it.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
