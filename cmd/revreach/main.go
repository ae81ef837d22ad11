package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/revreach/revreach/internal/adapters/duckdb"
	"github.com/revreach/revreach/internal/adapters/llm"
	"github.com/revreach/revreach/internal/adapters/smtp"
	appconfig "github.com/revreach/revreach/internal/config"
	"github.com/revreach/revreach/internal/core/ports"
	"github.com/revreach/revreach/internal/core/services"
	"github.com/revreach/revreach/pkg/server"
	"github.com/rs/cors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting revreach")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfgPath := os.Getenv("REVREACH_CONFIG")
	if cfgPath == "" {
		cfgPath = "revreach.yaml"
	}
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}

	repo, err := duckdb.NewRepository(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}
	defer repo.Close()

	// Core services
	eventBus := services.NewEventBus(logger)
	checkpoints := services.NewCheckpointStore(logger, repo)
	riskAssessor := services.NewRiskAssessor(services.RiskLists{
		SensitiveTargets: cfg.Risk.SensitiveTargets,
		RegulatedSectors: cfg.Risk.RegulatedSectors,
		SensitiveTopics:  cfg.Risk.SensitiveTopics,
	})
	safety := services.NewSafetyController(logger, services.SafetyLimits{
		DailyEmails:         cfg.Limits.DailyEmails,
		WeeklyEmails:        cfg.Limits.WeeklyEmails,
		MonthlyEmails:       cfg.Limits.MonthlyEmails,
		EmailsPerCampaign:   cfg.Limits.EmailsPerCampaign,
		DailyCampaigns:      cfg.Limits.DailyCampaigns,
		ConcurrentCampaigns: cfg.Limits.ConcurrentCampaigns,
	})

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	discovery := services.NewTargetDiscovery(logger, provider, 5)
	contexts := services.NewSearchContextFetcher(logger, cfg.Search.APIKey, cfg.Product.Name, cfg.Product.Pitch)
	drafter := services.NewEmailDrafter(logger, provider, cfg.Product.Name)
	sender := smtp.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password)

	engine := services.NewEngine(
		logger,
		services.EngineConfig{Product: cfg.Product.Name},
		repo,
		checkpoints,
		riskAssessor,
		safety,
		eventBus,
		discovery,
		contexts,
		drafter,
		sender,
	)

	// Campaigns that were mid-stage when the last process died get
	// parked at an intervention gate before we take traffic.
	if err := engine.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("startup recovery failed: %w", err)
	}

	apiServer := server.NewServer(logger, engine, repo, checkpoints, safety, eventBus)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildProvider constructs the configured text generation backend.
func buildProvider(cfg *appconfig.Config) (ports.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai", "":
		return llm.NewOpenAIProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model), nil
	case "ollama":
		return llm.NewOllamaProvider(cfg.LLM.BaseURL, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
