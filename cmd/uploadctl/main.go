package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"upload-registry/config"
	"upload-registry/internal/app"
	"upload-registry/internal/repository"
	"upload-registry/internal/services"
	"upload-registry/pkg/database"
	"upload-registry/pkg/logger"
)

const usage = `
Upload Registry - Admin CLI Tool

Usage:
  uploadctl [flags] [command]

Commands:
  up          Create or migrate the engine_uploads table (postgres)
  status      Check the configured record store
  stale       List records older than -older-than
  sweep       Run one retention sweep with -action
  token       Print a development bearer token for -user

Flags:
  -older-than duration   Age for stale (default: RETENTION_MAX_AGE)
  -action string         Sweep action: report, remove or cleanup (default: RETENTION_ACTION)
  -user string           Token subject

Examples:
  go run ./cmd/uploadctl up
  go run ./cmd/uploadctl -older-than 72h stale
  go run ./cmd/uploadctl -action cleanup sweep
  go run ./cmd/uploadctl -user alice token
`

var errUsage = errors.New("usage")

type options struct {
	olderThan time.Duration
	action    string
	user      string
}

func main() {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("uploadctl", flag.ExitOnError)
	var opts options
	fs.DurationVar(&opts.olderThan, "older-than", cfg.RetentionMaxAge, "Age for stale")
	fs.StringVar(&opts.action, "action", cfg.RetentionAction, "Sweep action")
	fs.StringVar(&opts.user, "user", "", "Token subject")
	fs.Usage = func() {
		fmt.Print(usage)
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	l := logger.New(cfg.LogMode)
	defer func() { _ = l.Sync() }()

	if err := run(context.Background(), cfg, l, fs.Arg(0), opts, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Printf("Unknown command: %s\n", fs.Arg(0))
			fs.Usage()
			os.Exit(1)
		}
		log.Fatalf("%s failed: %v", fs.Arg(0), err)
	}
}

func run(ctx context.Context, cfg *config.Config, l *logger.Logger, command string, opts options, out io.Writer) error {
	switch command {
	case "up":
		return runUp(cfg, out)
	case "token":
		return runToken(cfg, opts.user, out)
	case "status", "stale", "sweep":
	default:
		return errUsage
	}

	if command == "sweep" {
		cfg.RetentionAction = opts.action
	}
	a, err := app.Build(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "status":
		return runStatus(ctx, a, out)
	case "stale":
		return runStale(ctx, a, opts.olderThan, out)
	default:
		return runSweep(ctx, a, out)
	}
}

func runUp(cfg *config.Config, out io.Writer) error {
	if cfg.StoreBackend != config.BackendPostgres {
		fmt.Fprintf(out, "store backend %s needs no schema\n", cfg.StoreBackend)
		return nil
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if err := repository.InitSchema(db); err != nil {
		return err
	}
	fmt.Fprintln(out, "engine_uploads is up to date")
	return nil
}

func runStatus(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.Uploads.Ping(ctx); err != nil {
		return err
	}
	all, err := a.Uploads.AllUploads(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "store: %s ok\nrecords: %d\nresidences: %d\n", a.Config.StoreBackend, len(all), a.Residences.Len())
	return nil
}

func runStale(ctx context.Context, a *app.App, olderThan time.Duration, out io.Writer) error {
	if olderThan <= 0 {
		return fmt.Errorf("-older-than must be positive")
	}
	cutoff := time.Now().Add(-olderThan)
	stale, err := a.Uploads.OlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, u := range stale {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", u.ID, u.UserID, u.ProviderName, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "%d records created before %s\n", len(stale), cutoff.UTC().Format(time.RFC3339))
	return nil
}

func runSweep(ctx context.Context, a *app.App, out io.Writer) error {
	result := a.Retention.RunOnce(ctx)
	fmt.Fprintf(out, "action=%s found=%d handled=%d failed=%d duration=%s\n",
		result.Action, result.Found, result.Handled, result.Failed, result.Duration)
	if result.Failed > 0 {
		return fmt.Errorf("%d records failed", result.Failed)
	}
	return nil
}

func runToken(cfg *config.Config, user string, out io.Writer) error {
	token, expiresIn, err := services.NewAuthService(cfg.JWTSecret, 0).IssueAccessToken(user)
	if err != nil {
		return fmt.Errorf("-user is required: %w", err)
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires in %ds\n", expiresIn)
	return nil
}
