package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/jonathan/jobsheet/internal/auth"
	"github.com/jonathan/jobsheet/internal/classify"
	"github.com/jonathan/jobsheet/internal/config"
	"github.com/jonathan/jobsheet/internal/db"
	"github.com/jonathan/jobsheet/internal/llm"
	"github.com/jonathan/jobsheet/internal/mail"
	"github.com/jonathan/jobsheet/internal/observability"
	"github.com/jonathan/jobsheet/internal/reconcile"
	"github.com/jonathan/jobsheet/internal/session"
	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/similarity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.APIKey == "" {
		return errors.New("a Gemini API key is required (set GEMINI_API_KEY or api_key in the config file)")
	}

	days, err := resolveDays(args, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	httpClient, err := auth.HTTPClient(ctx, cfg.CredentialsFile, cfg.TokenFile, out)
	if err != nil {
		return err
	}

	mailClient, err := mail.NewClient(ctx, httpClient, logger.Named("mail"))
	if err != nil {
		return err
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = llmClient.Close() }()

	scorer := newScorer(similarity.Kind(cfg.Similarity), llmClient)

	store, cursor, memory, err := openStore(ctx, cfg, httpClient, logger)
	if err != nil {
		return err
	}

	index := reconcile.NewIndex(store, cursor, scorer, cfg.RoleThreshold)
	engine := reconcile.NewEngine(store, cursor, index, reconcile.NewCounters(), reconcile.Options{
		LockTimeout: cfg.LockTimeoutDuration(),
		Logger:      logger.Named("reconcile"),
	})

	opts := session.Options{
		Workers: cfg.Workers,
		Label:   cfg.Label,
		Folder:  cfg.Folder,
		Logger:  logger.Named("session"),
	}
	if cfg.DatabaseURL != "" {
		database, err := openHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("session history disabled", zap.Error(err))
		} else {
			defer database.Close()
			opts.Recorder = database
		}
	}

	classifier := classify.New(llmClient, scorer, logger.Named("classify"))
	coordinator := session.NewCoordinator(mailClient, classifier, engine, opts)

	summary, runErr := coordinator.Run(ctx, days)

	printer := observability.NewPrinter(out)
	if memory != nil {
		printer.PrintRows(memory.Rows())
	}
	if cfg.Verbose {
		printer.PrintSessionDetails(summary)
	}
	printer.PrintSummary(summary)

	return runErr
}

// newScorer picks the role similarity oracle.
func newScorer(kind similarity.Kind, embedder similarity.Embedder) similarity.Scorer {
	if kind == similarity.KindEmbedding && embedder != nil {
		return similarity.NewEmbedding(embedder)
	}
	return similarity.NewLexical()
}

// openStore binds the tracking sheet. A dry run reconciles into memory and returns
// that store as well so its rows can be printed.
func openStore(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (sheets.Store, *sheets.Cursor, *sheets.MemoryStore, error) {
	if cfg.DryRun {
		memory := sheets.NewMemoryStore()
		cursor := sheets.NewCursor("", sheets.State{Title: cfg.SheetTitle, Next: sheets.FirstDataRange})
		return memory, cursor, memory, nil
	}

	svc, err := sheets.NewGoogleService(ctx, httpClient)
	if err != nil {
		return nil, nil, nil, err
	}
	store, cursor, err := sheets.Open(ctx, svc, cfg.StateFile, cfg.SheetTitle, logger.Named("sheets"))
	if err != nil {
		return nil, nil, nil, err
	}
	return store, cursor, nil, nil
}

func openHistory(ctx context.Context, databaseURL string) (*db.DB, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
