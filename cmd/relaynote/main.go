// Command relaynote bridges repository push events to Linear and
// Discord: tickets referenced in pushed commit messages are marked Done
// and a release summary is posted to the team channel.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/drewfead/relaynote/internal/config"
	"github.com/drewfead/relaynote/internal/discord"
	"github.com/drewfead/relaynote/internal/event"
	"github.com/drewfead/relaynote/internal/linear"
	"github.com/drewfead/relaynote/internal/logging"
	"github.com/drewfead/relaynote/internal/release"
	"github.com/drewfead/relaynote/internal/server"
)

// Version is set at build time
var Version = "dev"

var cfg *config.Config

var (
	flagEventName string
	flagEventPath string
	flagRepo      string
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	// Top-level panic recovery
	defer func() {
		if r := recover(); r != nil {
			logging.CapturePanic(r, "component", "main")
			fmt.Fprintf(os.Stderr, "FATAL: unrecovered panic: %v\n", r)
			exitCode = 2
		}
	}()

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	if err := logging.Init(logging.Config{
		Level:     parseLogLevel(cfg.Logging.Level),
		SentryDSN: cfg.Logging.SentryDSN,
		Env:       getEnv(),
		Version:   Version,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Flush(2 * time.Second)

	if err := rootCmd.Execute(); err != nil {
		logging.Error("run failed", "error", err)
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "relaynote",
	Short: "Release-notification bridge between push events, Linear, and Discord",
	Long: `Relaynote scans pushed commit messages for ticket identifiers like
ENG-123, marks the referenced Linear issues Done, and posts a release
summary embed to a Discord webhook.

Without a subcommand it behaves as a one-shot action: the event payload
is read from GITHUB_EVENT_PATH and processed once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelease(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a single push event payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelease(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a webhook receiver that processes push deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runRelease(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	eventName := flagEventName
	if eventName == "" {
		eventName = os.Getenv("GITHUB_EVENT_NAME")
	}
	eventPath := flagEventPath
	if eventPath == "" {
		eventPath = os.Getenv("GITHUB_EVENT_PATH")
	}
	if eventPath == "" {
		return fmt.Errorf("no event payload: set --event or GITHUB_EVENT_PATH")
	}

	ev, err := event.LoadFile(eventName, eventPath)
	if err != nil {
		return err
	}

	repo := flagRepo
	if repo == "" {
		repo = os.Getenv("GITHUB_REPOSITORY")
	}
	if repo == "" {
		repo = ev.Repository.FullName
	}

	pipeline := release.New(
		linear.NewHTTPClient(cfg.Linear.APIKey, cfg.Linear.Endpoint),
		discord.NewWebhook(cfg.Discord.WebhookURL),
		logging.With("run_id", uuid.NewString()),
	)
	return pipeline.Run(ctx, repo, ev)
}

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	pipeline := release.New(
		linear.NewHTTPClient(cfg.Linear.APIKey, cfg.Linear.Endpoint),
		discord.NewWebhook(cfg.Discord.WebhookURL),
		logging.With("component", "serve"),
	)
	srv := server.New(cfg.Server, pipeline)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting webhook receiver",
			"version", Version,
			"addr", cfg.Server.Addr,
			"hmac", cfg.Server.WebhookSecret != "",
		)
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv() string {
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return "production"
	}
	return "development"
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().StringVar(&flagEventName, "event-name", "", "Event kind (default: GITHUB_EVENT_NAME)")
		cmd.Flags().StringVar(&flagEventPath, "event", "", "Path to the event payload JSON (default: GITHUB_EVENT_PATH)")
		cmd.Flags().StringVar(&flagRepo, "repo", "", "Repository slug owner/repo (default: GITHUB_REPOSITORY)")
	}

	rootCmd.AddCommand(runCmd, serveCmd)
}
