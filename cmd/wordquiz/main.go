package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/conorfennell/wordquiz/internal/config"
	"github.com/conorfennell/wordquiz/internal/content"
	"github.com/conorfennell/wordquiz/internal/identity"
	"github.com/conorfennell/wordquiz/internal/mastery"
	"github.com/conorfennell/wordquiz/internal/scheduler"
	"github.com/conorfennell/wordquiz/internal/storage"
	"github.com/conorfennell/wordquiz/internal/vocab"
	"github.com/conorfennell/wordquiz/internal/web"
)

const sweepInterval = time.Hour

func main() {
	// A .env file in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := run(cfg); err != nil {
		slog.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newSource(cfg *config.Config) (content.Source, error) {
	switch cfg.Content.Kind {
	case "http":
		return content.NewHTTPSource(cfg.Content.Location, cfg.Content.Timeout), nil
	case "git":
		return content.NewGitSource(cfg.Content.Location, filepath.Join(cfg.DataDir, "git"))
	default:
		return content.NewDirSource(afero.NewOsFs(), cfg.Content.Location), nil
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Storage
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}
	db, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Database opened", "driver", cfg.Storage.Driver)

	// 2. Content
	source, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up content source: %w", err)
	}
	loader := content.NewLoader(source, content.Files{
		Flashcards: cfg.Content.Flashcards,
		Exercises:  cfg.Content.Exercises,
		Cloze:      cfg.Content.Cloze,
		Sentences:  cfg.Content.Sentences,
	})

	// 3. Services and HTTP server
	sessions := web.NewSessionStore(cfg.Server.SessionTTL, cfg.Server.SecureCookies)
	srv, err := web.NewServer(web.Options{
		Identity:  identity.NewProvider(db, cfg.Auth.VerifyPasswords),
		Vocab:     vocab.NewManager(db, &mastery.Params{Threshold: cfg.Quiz.MasteryThreshold}),
		Content:   loader,
		Sessions:  sessions,
		Languages: cfg.Content.Languages,
	})
	if err != nil {
		return err
	}

	// 4. Background jobs
	sched := scheduler.New(
		scheduler.Job{Name: "content-refresh", Interval: cfg.Content.RefreshInterval, Run: loader.Refresh},
		scheduler.Job{Name: "session-sweep", Interval: sweepInterval, Run: func(context.Context) {
			if n := sessions.Sweep(); n > 0 {
				slog.Info("Expired sessions removed", "count", n)
			}
		}},
	)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", cfg.Server.Addr, "languages", cfg.Content.Languages, "content", source.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
