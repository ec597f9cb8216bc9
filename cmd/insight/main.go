package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tailored-agentic-units/insight/kernel"
	"github.com/tailored-agentic-units/insight/server"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config JSON file (defaults apply when empty)")
		envFile     = flag.String("env", "", "Path to a dotenv file (default: .env if present)")
		serveAddr   = flag.String("serve", "", "Serve the RPC API on this address instead of the terminal chat")
		archivePath = flag.String("archive", "", "DuckDB file for session history (overrides config)")
		logFile     = flag.String("log", "", "Write logs to this file in terminal mode")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	envFiles := []string{}
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := kernel.LoadEnv(envFiles...); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	cfg := kernel.DefaultConfig()
	if *configFile != "" {
		loaded, err := kernel.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	cfg.ApplyEnv(os.Getenv)
	if *archivePath != "" {
		cfg.Archive.Path = *archivePath
	}

	logOut, closeLog, err := logWriter(*serveAddr != "", *logFile)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))

	k, err := kernel.New(&cfg)
	if err != nil {
		log.Fatalf("Failed to create kernel: %v", err)
	}
	defer k.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *serveAddr != "" {
		if err := serve(ctx, k, *serveAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	if err := runChat(ctx, k); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// logWriter picks the log destination. The terminal chat owns stdout and
// stderr, so it logs to a file or nowhere.
func logWriter(serving bool, path string) (io.Writer, func(), error) {
	if serving {
		return os.Stderr, func() {}, nil
	}
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func serve(ctx context.Context, k *kernel.Kernel, addr string) error {
	path, handler := server.New(k).Handler()
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving", "addr", addr, "service", server.ServiceName)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runChat(ctx context.Context, k *kernel.Kernel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	p := tea.NewProgram(newChat(ctx, k), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
