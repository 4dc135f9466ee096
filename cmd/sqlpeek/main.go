// ABOUTME: Entry point for the sqlpeek viewer server
// ABOUTME: Provides serve, init, and init-auth commands

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/sqlpeek/sqlpeek/internal/config"
	"github.com/sqlpeek/sqlpeek/internal/creds"
	"github.com/sqlpeek/sqlpeek/internal/registry"
	"github.com/sqlpeek/sqlpeek/internal/session"
	"github.com/sqlpeek/sqlpeek/internal/viewer"
	"github.com/sqlpeek/sqlpeek/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the sqlpeek config file.
// Priority: SQLPEEK_CONFIG env var > ./sqlpeek.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SQLPEEK_CONFIG"); envPath != "" {
		return envPath
	}
	return "sqlpeek.yaml"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: sqlpeek <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                    Start the viewer server")
		fmt.Println("  init                     Write a starter config file")
		fmt.Println("  init-auth [--password P] Create the credential file with a default admin user")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "init-auth":
		err = runInitAuth()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	gray.Printf("sqlpeek %s\n", version)
	green.Print("  ▶ ")
	fmt.Printf("Listen:      %s\n", cfg.Server.HTTPAddr)
	green.Print("  ▶ ")
	fmt.Printf("Credentials: %s\n", cfg.Auth.CredentialsPath)
	fmt.Println()

	logger.Info("starting sqlpeek",
		"addr", cfg.Server.HTTPAddr,
		"credentials", cfg.Auth.CredentialsPath,
		"session_ttl", cfg.Session.TTL,
	)

	// Construct the pieces explicitly and inject them; nothing here is a
	// package-level singleton.
	reg := registry.New(cfg.Viewer.QueryTimeout)
	defer reg.Close()

	sessions := session.NewStore(cfg.Session.TTL)
	defer sessions.Close()

	svc := viewer.New(creds.New(cfg.Auth.CredentialsPath), reg)
	handler := web.New(sessions, svc)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// runInitAuth creates the credential file with a single admin user, the
// same provisioning step the viewer has always shipped with.
func runInitAuth() error {
	password := "password123"

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--password" || arg == "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("--password requires a value")
			}
			password = args[i+1]
			i++
		case strings.HasPrefix(arg, "--password="):
			password = strings.TrimPrefix(arg, "--password=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	authPath := cfg.Auth.CredentialsPath

	if _, err := os.Stat(authPath); err == nil {
		return fmt.Errorf("credential file already exists: %s", authPath)
	}

	hash, err := creds.HashPassword(password)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(authPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating credential directory: %w", err)
		}
	}

	if err := creds.WriteFile(authPath, []creds.Credential{
		{Username: "admin", PasswordHash: hash},
	}); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created %s\n", authPath)
	fmt.Println("  Default user: admin")
	if password == "password123" {
		color.New(color.FgYellow).Println("  Using the default password. Change it before exposing the viewer.")
	}

	return nil
}

func runInit() error {
	outputFile := getConfigPath()

	if _, err := os.Stat(outputFile); err == nil {
		return fmt.Errorf("config file already exists: %s", outputFile)
	}

	content := `# sqlpeek configuration
# Generated by sqlpeek init

server:
  http_addr: ":3000"

auth:
  credentials_path: "auth.json"

session:
  ttl: "1h"

viewer:
  query_timeout: "5s"

logging:
  level: "info"
  format: "text"
`

	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Config written to %s\n", outputFile)
	fmt.Println("\nNext steps:")
	fmt.Println("  sqlpeek init-auth    # create the credential file")
	fmt.Println("  sqlpeek serve        # start the viewer")

	return nil
}
