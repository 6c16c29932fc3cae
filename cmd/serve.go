package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mentormuni-server/config"
	"mentormuni-server/db"
	"mentormuni-server/exam"
	"mentormuni-server/guard"
	"mentormuni-server/handlers"
	"mentormuni-server/journal"
	"mentormuni-server/llm"
	"mentormuni-server/logger"
	"mentormuni-server/stats"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := exam.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	gen, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}
	aiLog := logger.WithModel(log, gen.Provider(), gen.Model())
	layer := guard.NewLayer(cfg.LLM.Timeout, cfg.LLM.MaxRetries, aiLog)

	recorder, closeRecorder := openRecorder(ctx, cfg, log)
	defer closeRecorder()

	gin.SetMode(cfg.GinMode)
	router, err := handlers.NewRouter(handlers.Deps{
		Planner:           exam.NewPlanner(gen, layer, aiLog),
		Evaluator:         exam.NewEvaluator(rules),
		Assistant:         llm.NewAssistant(gen, layer, aiLog),
		Recorder:          recorder,
		Counters:          stats.New(),
		Logger:            log,
		Model:             gen.Model(),
		CORSOrigins:       cfg.CORSOrigins,
		TrustedProxies:    cfg.TrustedProxies,
		PlanPerMinute:     cfg.RateLimit.PlanPerMinute,
		EvaluatePerMinute: cfg.RateLimit.EvaluatePerMinute,
		AdminSigningKey:   cfg.Admin.JWTSigningKey,
		AdminIssuer:       cfg.Admin.Issuer,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", cfg.ServerPort), zap.String("model", gen.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited gracefully")
	return nil
}

// openRecorder returns the file journal, mirrored to PostgreSQL when a
// database is configured and reachable.
func openRecorder(ctx context.Context, cfg *config.Config, log *zap.Logger) (journal.Recorder, func()) {
	file := journal.NewFileJournal(cfg.DataDir, log)
	log.Info("journal directory", zap.String("dir", file.Dir()))

	if cfg.DatabaseURL == "" {
		return file, func() {}
	}

	pool, err := db.InitDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Warn("database unavailable, journal mirror disabled", zap.Error(err))
		return file, func() {}
	}
	if err := db.CreateSchema(ctx, pool); err != nil {
		log.Warn("database schema setup failed, journal mirror disabled", zap.Error(err))
		pool.Close()
		return file, func() {}
	}
	return journal.NewMirror(log, file, db.NewEventStore(pool)), pool.Close
}
