package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if a container runtime is not available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	// Verify podman is running.
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("showcase_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func makeDeployment(sessionID string) *storage.Deployment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &storage.Deployment{
		SessionID:      sessionID,
		DeploymentType: "code",
		AgentName:      "agentcore_demo",
		RuntimeID:      "rt-123",
		RuntimeARN:     "arn:aws:bedrock-agentcore:us-west-2:123456789012:runtime/rt-123",
		Status:         "CREATING",
		S3Key:          "agentcore_demo/deployment_package.zip",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPostgres_DeploymentRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	sessionID := fmt.Sprintf("ui_%d", time.Now().UnixNano())
	rec := makeDeployment(sessionID)
	if err := store.PutDeployment(ctx, rec); err != nil {
		t.Fatalf("PutDeployment failed: %v", err)
	}

	got, err := store.GetDeployment(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetDeployment failed: %v", err)
	}
	if got.RuntimeID != "rt-123" {
		t.Errorf("RuntimeID = %q, want rt-123", got.RuntimeID)
	}
	if got.Status != "CREATING" {
		t.Errorf("Status = %q, want CREATING", got.Status)
	}

	// Upsert with the same session updates the record.
	rec.Status = "READY"
	if err := store.PutDeployment(ctx, rec); err != nil {
		t.Fatalf("PutDeployment (update) failed: %v", err)
	}
	got, err = store.GetDeployment(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "READY" {
		t.Errorf("Status after update = %q, want READY", got.Status)
	}
}

func TestPostgres_DeploymentNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetDeployment(context.Background(), "ui_nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_DeleteDeployment(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	sessionID := fmt.Sprintf("ui_del_%d", time.Now().UnixNano())
	store.PutDeployment(ctx, makeDeployment(sessionID))

	if err := store.DeleteDeployment(ctx, sessionID); err != nil {
		t.Fatalf("DeleteDeployment failed: %v", err)
	}
	if _, err := store.GetDeployment(ctx, sessionID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteDeployment(ctx, sessionID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgres_InterpreterSessionRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	sessionID := fmt.Sprintf("ui_ci_%d", time.Now().UnixNano())
	rec := &storage.InterpreterSession{
		SessionID:            sessionID,
		InterpreterSessionID: "ci-xyz",
		Language:             "python",
		CreatedAt:            now,
		LastUsedAt:           now,
	}
	if err := store.PutInterpreterSession(ctx, rec); err != nil {
		t.Fatalf("PutInterpreterSession failed: %v", err)
	}

	got, err := store.GetInterpreterSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetInterpreterSession failed: %v", err)
	}
	if got.InterpreterSessionID != "ci-xyz" || got.Language != "python" {
		t.Errorf("got %+v", got)
	}

	all, err := store.ListInterpreterSessions(ctx)
	if err != nil {
		t.Fatalf("ListInterpreterSessions failed: %v", err)
	}
	found := false
	for _, s := range all {
		if s.SessionID == sessionID {
			found = true
		}
	}
	if !found {
		t.Error("stored session missing from list")
	}

	if err := store.DeleteInterpreterSession(ctx, sessionID); err != nil {
		t.Fatalf("DeleteInterpreterSession failed: %v", err)
	}
}

func TestPostgres_ListDeploymentsOrder(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	prefix := fmt.Sprintf("ui_ord_%d", time.Now().UnixNano())
	for i := 0; i < 3; i++ {
		rec := makeDeployment(fmt.Sprintf("%s_%d", prefix, i))
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.PutDeployment(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.ListDeployments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ours []*storage.Deployment
	for _, d := range all {
		if strings.HasPrefix(d.SessionID, prefix) {
			ours = append(ours, d)
		}
	}
	if len(ours) != 3 {
		t.Fatalf("found %d deployments, want 3", len(ours))
	}
	if !ours[0].CreatedAt.After(ours[2].CreatedAt) {
		t.Error("deployments not ordered newest first")
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
