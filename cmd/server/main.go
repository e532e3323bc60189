package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"

	"group-chat/auth"
	"group-chat/contract"
	"group-chat/infrastructure/grpc/server"
	"group-chat/infrastructure/push"
	"group-chat/infrastructure/storage"
	"group-chat/internal"
	"group-chat/observability"
	pb "group-chat/proto/chat"
	"group-chat/runtime"
	"group-chat/runtime/workers"
	"group-chat/services"
	"group-chat/sink"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns the server lifecycle, so deferred
// cleanups always execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (BadgerDB log, Bluge index)
	db, err := storage.OpenBadger(config.BadgerFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := storage.OpenSearchIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()

	directory := storage.NewDirectoryRepository(db, logger)
	messageRepository := storage.NewMessageRepository(db, logger)
	receiptRepository := storage.NewReceiptRepository(db, logger)

	// 3. Supervision & Orchestration
	dispatchQueue := sink.NewQueueSink("dispatch", config.DispatchQueueSize, logger)
	indexQueue := sink.NewQueueSink("index", config.IndexQueueSize, logger)
	monitoring := observability.NewMonitoringManager(logger)
	sup := workers.NewSupervisor(logger).WithRestartInterval(config.RestartInterval)

	orchestrator := runtime.NewOrchestrator(logger, runtime.OrchestratorConfig{
		NotificationWorkers: config.NotificationWorkers,
		PushTimeout:         config.PushTimeout,
		TelemetryInterval:   config.MetricInterval,
		CensoredChar:        charReplacement,
	}, sup, dispatchQueue, indexQueue, directory, buildTransport(config, logger), index, monitoring)

	store := services.NewMessageStore(logger, messageRepository, directory, orchestrator,
		config.PageSize, config.MaxPageSize)
	tracker := services.NewTracker(logger, receiptRepository, messageRepository, directory, orchestrator)
	hub := runtime.NewHub(logger, store, config.InboxSize, config.ReplayWindow)
	dispatcher := services.NewDispatcher(logger, dispatchQueue, directory)
	orchestrator.AttachHub(hub)
	orchestrator.Add(dispatcher, indexQueue)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)

	// 5. Start the workers
	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. Debug server (metrics, stats, key inspector)
	var debugServer *http.Server
	if config.DebugPort > 0 {
		debugServer = internal.NewDebugServer(config.DebugPort,
			internal.DebugHandler(logger, db, inspectMapper, monitoring.AsMap))
		go func() {
			logger.Info("Debug server available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
			if err := debugServer.ListenAndServe(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("debug server error: %w", err)
			}
		}()
	}

	// 7. gRPC Server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	authenticator := auth.NewAuthenticator(config.JWTSecret, config.AuthTokenDuration)
	interceptors := auth.NewInterceptors(logger, authenticator)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			interceptors.Unary(),
		),
		grpc.StreamInterceptor(interceptors.Stream()),
	)
	chatService := services.NewChatService(logger, store, tracker, hub, index, dispatcher, directory)
	pb.RegisterChatServiceServer(s, server.NewChatServer(logger, chatService))

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !goerrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		s.Stop()
		return exitRuntime, err
	}

	// 9. Graceful shutdown: subscriptions end first so streaming RPCs can return.
	logger.Info("Shutting down gracefully...")
	orchestrator.Stop()
	s.GracefulStop()
	if debugServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = debugServer.Shutdown(shutdownCtx)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildTransport(config internal.Config, logger *slog.Logger) contract.PushTransport {
	if config.PushTransport == internal.TransportWebhook {
		return push.NewWebhookTransport(logger, config.WebhookURL, &http.Client{Timeout: config.PushTimeout}).
			WithSecret(config.WebhookSecret)
	}
	return push.NewLogTransport(logger)
}

func inspectMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	row.Type, row.Detail = storage.DescribeEntry(key, val)
	return row
}
