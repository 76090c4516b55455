package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pair-chat/auth"
	"pair-chat/infrastructure/admin"
	"pair-chat/infrastructure/grpc"
	"pair-chat/infrastructure/websocket"
	"pair-chat/internal"
	"pair-chat/observability"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/runtime/workers"
	"pair-chat/services"
	"pair-chat/sink"
	"pair-chat/ui"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		code, err := hashPassword(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
		}
		os.Exit(code)
	}

	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pairchat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal or a listener failure, then
// shuts down in reverse order. Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.InspectPort > 0 {
		endpoint := "/inspect"
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.InspectPort, endpoint))
		database.StartDebugServer(db, config.InspectPort, endpoint, recordMapper)
	}

	records := repositories.NewRecordRepository(db, log)

	monitor, err := observability.NewMonitor(log)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Engine & supervised workers
	engine := runtime.NewEngine(log, runtime.EngineConfig{
		RecorderBufferSize: config.RecorderBufferSize,
		SinkTimeout:        config.SinkTimeout,
		RestartInterval:    config.RestartInterval,
		PresenceInterval:   config.PresenceInterval,
	}, runtime.FloorInflator{Floor: config.OnlineFloor, Jitter: config.OnlineJitter})
	engine.Add(sink.NewDiskSink(records, log), sink.NewLogSink(log))
	if config.HeartbeatInterval > 0 {
		engine.AddWorker(workers.NewHeartbeatWorker(log, monitor, engine.Registry(), config.HeartbeatInterval))
	}

	service := services.NewPairingService(log, engine)
	wsServer := websocket.NewServer(log, websocket.Config{
		OutboxSize:     config.OutboxSize,
		MaxMessageSize: config.MaxMessageSize,
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		AllowedOrigin:  config.AllowedOrigin,
	}, service, websocket.HeaderLocator{})

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Start(ctx)
	}()

	// 5. Listeners
	errChan := make(chan error, 3)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	mux.Handle("/", ui.Handler())
	chatServer := &http.Server{Addr: config.Address(config.Port), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go serveHTTP(chatServer, "chat", errChan)
	log.Info("Starting chat server", "address", chatServer.Addr, "at", time.Now().UTC())

	var adminServer *http.Server
	if config.AdminEnabled() {
		issuer := auth.NewTokenIssuer(config.AdminTokenSecret, config.AdminTokenDuration)
		authService := services.NewAuthService(config.AdminPasswordHash, issuer)
		handler := admin.NewServer(log, authService, issuer, records, engine, monitor, config.AdminListLimit).Handler()
		adminServer = &http.Server{Addr: config.Address(config.AdminPort), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		go serveHTTP(adminServer, "admin", errChan)
		log.Info("Starting admin server", "address", adminServer.Addr)
	} else {
		log.Info("Admin surface disabled", "admin_port", config.AdminPort)
	}

	var health *grpc.HealthServer
	if config.HealthPort > 0 {
		listener, err := net.Listen("tcp", config.Address(config.HealthPort))
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address(config.HealthPort), err)
		}
		health = grpc.NewHealthServer(log)
		health.SetServing(true)
		go func() {
			if err := health.Serve(listener); err != nil {
				errChan <- fmt.Errorf("gRPC health server error: %w", err)
			}
		}()
	}

	// 6. Wait for Stop or Error
	code, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
		log.Error("Listener failed, shutting down", "error", runErr)
	}

	// 7. Final Cleanup
	if health != nil {
		health.SetServing(false)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = chatServer.Shutdown(shutdownCtx)
	wsServer.Close()
	if adminServer != nil {
		_ = adminServer.Shutdown(shutdownCtx)
	}
	if health != nil {
		health.Stop()
	}
	stop()
	engine.Stop()
	<-engineDone

	stats := engine.Stats()
	log.Info("Program stopped cleanly",
		"sessions_opened", stats.SessionsOpened,
		"sessions_closed", stats.SessionsClosed,
		"recorder_dropped", stats.RecorderDropped)
	return code, runErr
}

func serveHTTP(server *http.Server, name string, errChan chan<- error) {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChan <- fmt.Errorf("%s server error: %w", name, err)
	}
}

// hashPassword prints the argon2 hash to put in ADMIN_PASSWORD_HASH.
// The password is read from the first argument, or from stdin.
func hashPassword(args []string) (int, error) {
	password := ""
	if len(args) > 0 {
		password = args[0]
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			password = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			return exitRuntime, err
		}
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return exitConfig, errors.New("empty password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return exitRuntime, err
	}
	fmt.Println(hash)
	return exitOK, nil
}

// recordMapper renders pair-chat keys in the badger debug inspector.
func recordMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	described, err := repositories.Describe(key, val)
	if err != nil {
		row.Detail = "Error: " + err.Error()
		return row
	}
	row.Type = described.Type
	row.Detail = strings.TrimSpace(described.Owner + " " + described.Detail)
	return row
}
