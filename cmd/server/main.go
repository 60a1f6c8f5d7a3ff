// Command server runs the AgentCore showcase gateway.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (-config flag, SHOWCASE_CONFIG, ./config.yaml), and environment
// variable overrides. See pkg/config for the full list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/avollmer/agentcore-showcase/pkg/auth"
	"github.com/avollmer/agentcore-showcase/pkg/browser"
	"github.com/avollmer/agentcore-showcase/pkg/config"
	"github.com/avollmer/agentcore-showcase/pkg/debug"
	"github.com/avollmer/agentcore-showcase/pkg/interpreter"
	"github.com/avollmer/agentcore-showcase/pkg/memory"
	"github.com/avollmer/agentcore-showcase/pkg/provider/bedrock"
	"github.com/avollmer/agentcore-showcase/pkg/runtime"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
	memstore "github.com/avollmer/agentcore-showcase/pkg/storage/memory"
	"github.com/avollmer/agentcore-showcase/pkg/storage/postgres"
	transporthttp "github.com/avollmer/agentcore-showcase/pkg/transport/http"
	"github.com/avollmer/agentcore-showcase/pkg/ws"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug.Init("")

	// The websocket hub needs the logger and the log handler needs the
	// hub, so the hub starts with the default logger and the mirrored
	// logger is built afterwards.
	hub := ws.NewHub(slog.Default())
	logger := newLogger(cfg.Logging, hub)
	slog.SetDefault(logger)

	store, err := newStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	dataClient := bedrockagentcore.NewFromConfig(awsCfg)
	controlClient := bedrockagentcorecontrol.NewFromConfig(awsCfg)
	runtimeClient := bedrockruntime.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	llm := bedrock.New(runtimeClient, bedrock.Config{
		ModelID:     cfg.Model.ID,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
	}, logger)

	interpSvc := interpreter.NewService(interpreter.NewClient(dataClient), store, logger)

	memorySvc := memory.NewService(
		memory.NewControlClient(controlClient),
		memory.NewDataClient(dataClient),
		llm,
		cfg.Memory.STMMemoryID,
		cfg.Memory.LTMMemoryID,
		logger,
	)

	deployer := runtime.NewDeployer(controlClient, dataClient, s3Client, store, runtime.Config{
		Region:                    cfg.AWS.Region,
		AccountID:                 cfg.AWS.AccountID,
		S3Bucket:                  cfg.AWS.S3Bucket,
		ExecutionRoleARN:          cfg.AWS.ExecutionRoleARN,
		PackagePath:               cfg.AWS.DeploymentPackagePath,
		AgentName:                 cfg.AWS.AgentName,
		ContainerRepository:       cfg.AWS.ContainerRepository,
		ContainerImageTag:         cfg.AWS.ContainerImageTag,
		ContainerExecutionRoleARN: cfg.AWS.ContainerExecutionRoleARN,
		ContainerAgentName:        cfg.AWS.ContainerAgentName,
	}, logger)

	browserSvc := browser.NewService(browser.NewClient(dataClient), llm, hub, logger)

	authManager, err := auth.NewManager(auth.Config{
		Enabled:     cfg.Login.Enabled,
		Username:    cfg.Login.Username,
		Password:    cfg.Login.Password,
		TokenSecret: cfg.Login.TokenSecret,
		TokenTTL:    cfg.Login.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("creating auth manager: %w", err)
	}

	adapter := transporthttp.NewAdapter(transporthttp.Services{
		Auth:        authManager,
		Interpreter: interpSvc,
		Memory:      memorySvc,
		Runtime:     deployer,
		Browser:     browserSvc,
		Hub:         hub,
		WSHandler:   ws.NewHandler(hub, logger),
		Store:       store,
	}, transporthttp.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
		StreamDelay: cfg.Demo.StreamDelay,
		MetricsPath: cfg.Observability.Metrics.Path,
	}, logger)

	server := transporthttp.NewServer(adapter, authManager,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)

	err = server.ListenAndServe()

	// Stop any sandboxes still running so AWS does not keep billing
	// for them after the gateway is gone.
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	interpSvc.StopAll(stopCtx)
	browserSvc.StopAll(stopCtx)

	return err
}

// newLogger builds the structured logger and mirrors records to
// connected websocket clients.
func newLogger(cfg config.LoggingConfig, hub *ws.Hub) *slog.Logger {
	level := debug.ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		inner = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(ws.NewLogHandler(inner, hub, level))
}

// newStore creates the configured session store.
func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(context.Background(), postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
	default:
		return memstore.New(cfg.MaxSize), nil
	}
}
